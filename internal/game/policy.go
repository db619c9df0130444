package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/Garsondee/Rat-Sense/internal/belief"
	"github.com/Garsondee/Rat-Sense/internal/grid"
)

var (
	// ErrUnreachable reports that A* found no path to the goal cell.
	ErrUnreachable = errors.New("no path to goal")
	// ErrStuck reports that the agent has no open neighbour to move to.
	ErrStuck = errors.New("agent is stuck")
)

// MoveState is what a policy sees when choosing a tracking move.
type MoveState struct {
	Topo    *grid.Topology
	Agent   grid.Cell
	Prev    grid.Cell // cell the agent occupied before its last move
	HasPrev bool
	Belief  *belief.Distribution
	Rng     *rand.Rand

	exclude bool // skip Prev when picking fallback moves
}

// MoveDecision is a policy's chosen step.
type MoveDecision struct {
	Direction grid.Direction
	Goal      grid.Cell
	Reason    string // "path", "value", "guided" or "random"
	Warning   error  // recoverable condition hit while deciding
}

// MovePolicy turns belief into a single movement direction. Implementations
// only return directions that lead to an open cell; ErrStuck means no move
// exists at all.
type MovePolicy interface {
	Name() string
	NextMove(s *MoveState) (MoveDecision, error)
}

// NewPolicy builds the policy named in cfg.
func NewPolicy(cfg Config) (MovePolicy, error) {
	switch cfg.Policy {
	case PolicyGreedy, "":
		return GreedyPolicy{}, nil
	case PolicyValueIteration:
		return ValueIterationPolicy{Horizon: cfg.Horizon, Discount: cfg.Discount}, nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, cfg.Policy)
	}
}

// GreedyPolicy walks the A* path toward the most probable target cell.
type GreedyPolicy struct{}

// Name implements MovePolicy.
func (GreedyPolicy) Name() string { return PolicyGreedy }

// NextMove implements MovePolicy.
func (GreedyPolicy) NextMove(s *MoveState) (MoveDecision, error) {
	goal := s.Belief.MostProbable()
	if goal == s.Agent {
		return guidedMove(s, goal, false)
	}

	path := s.Topo.FindPath(s.Agent, goal)
	if len(path) == 0 {
		dec, err := guidedMove(s, goal, false)
		dec.Warning = fmt.Errorf("%w: %v -> %v", ErrUnreachable, s.Agent, goal)
		return dec, err
	}

	next := path[0]
	if s.HasPrev && next == s.Prev {
		// Going straight back would oscillate. Skip ahead if the second step
		// is also adjacent, otherwise head for the goal directly.
		if len(path) < 2 {
			return guidedMove(s, goal, true)
		}
		d, ok := grid.DirectionBetween(s.Agent, path[1])
		if !ok || !s.Topo.CanMove(s.Agent, d) {
			return guidedMove(s, goal, true)
		}
		return MoveDecision{Direction: d, Goal: goal, Reason: "path"}, nil
	}

	d, _ := grid.DirectionBetween(s.Agent, next)
	return MoveDecision{Direction: d, Goal: goal, Reason: "path"}, nil
}

// guidedMove is the fallback chain: step along the dominant axis toward goal,
// then the diagonal toward it, then any open neighbour. Options of equal
// priority are chosen between at random. With avoidPrev the previous cell is
// skipped unless it is the only way out.
func guidedMove(s *MoveState, goal grid.Cell, avoidPrev bool) (MoveDecision, error) {
	if avoidPrev && s.HasPrev {
		if dec, err := guidedMove(&MoveState{
			Topo: s.Topo, Agent: s.Agent, Belief: s.Belief, Rng: s.Rng,
			Prev: s.Prev, HasPrev: true, exclude: true,
		}, goal, false); err == nil {
			return dec, nil
		}
	}

	dr, dc := goal.Row-s.Agent.Row, goal.Col-s.Agent.Col
	for _, tier := range directionTiers(dr, dc) {
		if d, ok := pickOpen(s, tier); ok {
			return MoveDecision{Direction: d, Goal: goal, Reason: "guided"}, nil
		}
	}
	if d, ok := pickOpen(s, grid.Directions[:]); ok {
		return MoveDecision{Direction: d, Goal: goal, Reason: "random"}, nil
	}
	return MoveDecision{Goal: goal}, fmt.Errorf("%w at %v", ErrStuck, s.Agent)
}

// directionTiers returns the axis tier then the diagonal tier for an offset.
func directionTiers(dr, dc int) [][]grid.Direction {
	vert := grid.North
	if dr > 0 {
		vert = grid.South
	}
	horiz := grid.West
	if dc > 0 {
		horiz = grid.East
	}

	var axis, diag []grid.Direction
	switch {
	case dr == 0 && dc == 0:
		return nil
	case abs(dr) > abs(dc):
		axis = []grid.Direction{vert}
	case abs(dc) > abs(dr):
		axis = []grid.Direction{horiz}
	default:
		axis = []grid.Direction{vert, horiz}
	}

	switch {
	case dr != 0 && dc != 0:
		diag = []grid.Direction{diagonalOf(sign(dr), sign(dc))}
	case dr != 0:
		diag = []grid.Direction{diagonalOf(sign(dr), -1), diagonalOf(sign(dr), 1)}
	default:
		diag = []grid.Direction{diagonalOf(-1, sign(dc)), diagonalOf(1, sign(dc))}
	}
	return [][]grid.Direction{axis, diag}
}

func diagonalOf(dr, dc int) grid.Direction {
	for _, d := range grid.Directions {
		r, c := d.Delta()
		if r == dr && c == dc {
			return d
		}
	}
	return grid.North
}

// pickOpen returns a random direction from options that leads to an open cell.
func pickOpen(s *MoveState, options []grid.Direction) (grid.Direction, bool) {
	open := make([]grid.Direction, 0, len(options))
	for _, d := range options {
		if s.exclude && s.Agent.Add(d) == s.Prev {
			continue
		}
		if s.Topo.CanMove(s.Agent, d) {
			open = append(open, d)
		}
	}
	if len(open) == 0 {
		return 0, false
	}
	return open[s.Rng.Intn(len(open))], true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
