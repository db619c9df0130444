package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/Garsondee/Rat-Sense/internal/belief"
	"github.com/Garsondee/Rat-Sense/internal/grid"
)

// Localizer narrows the agent's CandidateSet to a single cell by alternating
// sense and move actions. It reads the true agent cell only through the
// physical outcome of actions (blocked count, move success).
type Localizer struct {
	topo     *grid.Topology
	cands    *belief.CandidateSet
	rng      *rand.Rand
	failsafe int
}

// LocalizeOutcome describes one localization tick.
type LocalizeOutcome struct {
	Action      ActionKind
	Agent       grid.Cell // true agent cell after the action
	Direction   grid.Direction
	Moved       bool
	Sensed      int // blocked-neighbour reading on sense ticks
	Candidates  int // candidate count after the tick
	Localized   bool
	Failsafe    bool
	Description string
	Warning     error
}

// NewLocalizer starts with every open cell as a candidate.
func NewLocalizer(topo *grid.Topology, rng *rand.Rand, failsafeTicks int) *Localizer {
	return &Localizer{
		topo:     topo,
		cands:    belief.NewCandidateSet(topo),
		rng:      rng,
		failsafe: failsafeTicks,
	}
}

// Candidates exposes the live set. Callers must not mutate it.
func (l *Localizer) Candidates() *belief.CandidateSet { return l.cands }

// Estimate returns the localized cell once a single candidate remains.
func (l *Localizer) Estimate() (grid.Cell, bool) { return l.cands.Only() }

// Step performs the action for localization tick n with the agent physically
// at agent.
func (l *Localizer) Step(agent grid.Cell, n int) LocalizeOutcome {
	out := LocalizeOutcome{Agent: agent}
	if _, ok := l.cands.Only(); ok {
		out.Localized = true
		out.Candidates = 1
		out.Description = "Localization complete!"
		return out
	}

	out.Action = LocalizationAction(n)
	switch out.Action {
	case ActionSense:
		out.Sensed = l.topo.BlockedNeighbors(agent)
		if err := l.cands.FilterBlockedCount(out.Sensed); err != nil {
			out.Warning = fmt.Errorf("sensed %d blocked: %w", out.Sensed, err)
		}
		out.Description = fmt.Sprintf("Sensed %d blocked neighbors, %d possible locations",
			out.Sensed, l.cands.Len())

	case ActionMove:
		d := l.mostCommonOpenDirection()
		out.Direction = d
		next, err := l.topo.Step(agent, d)
		out.Moved = err == nil
		out.Agent = next
		if err := l.cands.FilterMove(d, out.Moved); err != nil {
			out.Warning = fmt.Errorf("move %s: %w", d, err)
		}
		if out.Moved {
			if err := l.cands.Shift(d); err != nil {
				out.Warning = errors.Join(out.Warning, err)
			}
		}
		result := "failed"
		if out.Moved {
			result = "success"
		}
		out.Description = fmt.Sprintf("Moved %s - %s, %d possible locations", d, result, l.cands.Len())
	}

	out.Candidates = l.cands.Len()
	if out.Candidates == 1 {
		out.Localized = true
		out.Description = "Localization complete!"
		return out
	}
	if n+1 > l.failsafe {
		l.cands.Collapse(l.cands.Nearest(out.Agent))
		out.Candidates = 1
		out.Localized = true
		out.Failsafe = true
		out.Description = "Localization complete (failsafe)"
	}
	return out
}

// mostCommonOpenDirection picks the direction open for the most candidates,
// breaking ties uniformly at random.
func (l *Localizer) mostCommonOpenDirection() grid.Direction {
	best := -1
	var ties []grid.Direction
	for _, d := range grid.Directions {
		n := l.cands.OpenCount(d)
		switch {
		case n > best:
			best = n
			ties = append(ties[:0], d)
		case n == best:
			ties = append(ties, d)
		}
	}
	return ties[l.rng.Intn(len(ties))]
}
