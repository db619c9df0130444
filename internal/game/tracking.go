package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/Garsondee/Rat-Sense/internal/belief"
	"github.com/Garsondee/Rat-Sense/internal/grid"
)

// Tracker hunts the target once the agent is localized: every third tick it
// pings the detector and updates belief, the other ticks it moves.
type Tracker struct {
	topo    *grid.Topology
	belief  *belief.Distribution
	model   DetectionModel
	policy  MovePolicy
	rng     *rand.Rand
	visited []bool // by cell id

	bonus       float64
	mobile      bool
	clearOnMiss bool

	prev    grid.Cell
	hasPrev bool
}

// TrackOutcome describes one tracking tick.
type TrackOutcome struct {
	Action      ActionKind
	Agent       grid.Cell
	Target      grid.Cell
	Direction   grid.Direction
	Moved       bool
	Pinged      bool
	Caught      bool
	Stuck       bool
	Reason      string // move reason from the policy
	Description string
	Warning     error
}

// NewTracker starts from a uniform belief. visited is shared with the caller
// and marked as the agent moves.
func NewTracker(topo *grid.Topology, cfg Config, policy MovePolicy, rng *rand.Rand, visited []bool) *Tracker {
	return &Tracker{
		topo:        topo,
		belief:      belief.NewUniform(topo),
		model:       DetectionModel{Alpha: cfg.Alpha},
		policy:      policy,
		rng:         rng,
		visited:     visited,
		bonus:       cfg.ExplorationBonus,
		mobile:      cfg.MobileTarget,
		clearOnMiss: cfg.ClearOnMiss,
	}
}

// Belief exposes the live distribution. Callers must not mutate it.
func (t *Tracker) Belief() *belief.Distribution { return t.belief }

// Step performs the action for tracking tick n.
func (t *Tracker) Step(agent, target grid.Cell, n int) TrackOutcome {
	out := TrackOutcome{Agent: agent, Target: target}
	if agent == target {
		out.Caught = true
		out.Description = "Successfully caught the target!"
		return out
	}

	out.Action = TrackingAction(n)
	switch out.Action {
	case ActionDetect:
		t.detect(&out)
	case ActionMove:
		t.move(&out)
	}

	if out.Agent == out.Target {
		out.Caught = true
		out.Description = "Successfully caught the target!"
	}
	return out
}

func (t *Tracker) detect(out *TrackOutcome) {
	d := grid.Manhattan(out.Agent, out.Target)
	out.Pinged = t.model.Ping(d, t.rng)

	agent, ping := out.Agent, out.Pinged
	err := t.belief.Reweight(func(c grid.Cell) float64 {
		w := t.model.Likelihood(grid.Manhattan(agent, c), ping)
		if t.bonus > 1 && !t.visited[t.topo.Index(c)] {
			w *= t.bonus
		}
		return w
	})
	if err != nil {
		out.Warning = fmt.Errorf("detector update: %w", err)
	}

	if t.mobile {
		if err := t.belief.Diffuse(); err != nil {
			out.Warning = errors.Join(out.Warning, fmt.Errorf("diffuse: %w", err))
		}
		out.Target = t.wander(out.Target)
	}

	if out.Pinged {
		out.Description = "Detector pinged"
	} else {
		out.Description = "Detector no ping"
	}
}

// wander moves the target uniformly among staying put and its open neighbours.
func (t *Tracker) wander(target grid.Cell) grid.Cell {
	options := append([]grid.Cell{target}, t.topo.OpenNeighbors(target)...)
	return options[t.rng.Intn(len(options))]
}

func (t *Tracker) move(out *TrackOutcome) {
	state := &MoveState{
		Topo:    t.topo,
		Agent:   out.Agent,
		Prev:    t.prev,
		HasPrev: t.hasPrev,
		Belief:  t.belief,
		Rng:     t.rng,
	}
	dec, err := t.policy.NextMove(state)
	out.Warning = dec.Warning
	if err != nil {
		out.Stuck = true
		out.Warning = errors.Join(out.Warning, err)
		out.Description = "Failed to move - completely stuck!"
		return
	}

	next, err := t.topo.Step(out.Agent, dec.Direction)
	if err != nil {
		// Policies only hand back open moves; recover through the fallback chain anyway.
		dec, err = guidedMove(state, t.belief.MostProbable(), false)
		if err != nil {
			out.Stuck = true
			out.Warning = errors.Join(out.Warning, err)
			out.Description = "Failed to move - completely stuck!"
			return
		}
		next, _ = t.topo.Step(out.Agent, dec.Direction)
	}

	t.prev, t.hasPrev = out.Agent, true
	out.Agent = next
	out.Moved = true
	out.Direction = dec.Direction
	out.Reason = dec.Reason
	t.visited[t.topo.Index(next)] = true

	if t.clearOnMiss && next != out.Target {
		if err := t.belief.Clear(next); err != nil {
			out.Warning = errors.Join(out.Warning, fmt.Errorf("clear on miss: %w", err))
		}
	}
	out.Description = describeMove(dec)
}

func describeMove(dec MoveDecision) string {
	switch dec.Reason {
	case "path":
		return fmt.Sprintf("Moved %s along path to %v", dec.Direction, dec.Goal)
	case "value":
		return fmt.Sprintf("Moved %s (MDP-optimized)", dec.Direction)
	case "guided":
		return fmt.Sprintf("Moved %s toward target (probability guided)", dec.Direction)
	default:
		return fmt.Sprintf("Moved %s (random fallback)", dec.Direction)
	}
}
