package game

import "github.com/Garsondee/Rat-Sense/internal/grid"

// Snapshot is a read-only copy of engine state for renderers, reports and
// tests. Mutating it never affects the engine.
type Snapshot struct {
	Tick   int
	Phase  Phase
	Policy string

	// Oracle truth.
	Agent  grid.Cell
	Target grid.Cell

	// Agent's self-estimate.
	Candidates []grid.Cell // row-major
	Localized  bool

	// Target estimate, nil until tracking starts.
	Belief    []float64 // dense by cell id
	MaxBelief float64
	Entropy   float64
	Goal      grid.Cell // most probable target cell

	Visited    []bool // dense by cell id
	Counters   Counters
	LastAction string
	Warning    bool // last tick raised a recoverable condition
}

// EstimatedAgent returns the agent's localized estimate.
func (s Snapshot) EstimatedAgent() (grid.Cell, bool) {
	if !s.Localized || len(s.Candidates) != 1 {
		return grid.Cell{}, false
	}
	return s.Candidates[0], true
}

// VisitedCount returns how many distinct cells the agent has stood on.
func (s Snapshot) VisitedCount() int {
	n := 0
	for _, v := range s.Visited {
		if v {
			n++
		}
	}
	return n
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	visited := make([]bool, len(e.visited))
	copy(visited, e.visited)

	s := Snapshot{
		Tick:       e.tick,
		Phase:      e.phase,
		Policy:     e.policy.Name(),
		Agent:      e.agent,
		Target:     e.target,
		Candidates: e.loc.Candidates().Cells(),
		Localized:  e.phase != PhaseLocalizing,
		Visited:    visited,
		Counters:   e.counters,
		LastAction: e.last.Description,
		Warning:    e.last.Warning != nil,
	}
	if e.phase != PhaseLocalizing {
		b := e.trk.Belief()
		s.Belief = b.Values()
		s.MaxBelief = b.Max()
		s.Entropy = b.Entropy()
		s.Goal = b.MostProbable()
	}
	return s
}
