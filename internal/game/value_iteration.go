package game

import (
	"math"

	"github.com/Garsondee/Rat-Sense/internal/belief"
	"github.com/Garsondee/Rat-Sense/internal/grid"
)

const (
	stayPenalty = -0.1 // reward for an action that leaves the agent in place
	beliefScale = 10.0 // reward per unit of belief mass entered
)

// ValueIterationPolicy plans over a finite horizon, treating belief mass as
// reward: entering a cell earns belief*10, bumping a wall costs 0.1.
type ValueIterationPolicy struct {
	Horizon  int
	Discount float64
}

// Name implements MovePolicy.
func (ValueIterationPolicy) Name() string { return PolicyValueIteration }

// Values runs Horizon synchronous sweeps from V=0 and returns the value of
// every cell, indexed by cell id. Blocked cells stay at zero.
func (p ValueIterationPolicy) Values(topo *grid.Topology, b *belief.Distribution) []float64 {
	open := topo.OpenCells()
	v := make([]float64, topo.Size())
	next := make([]float64, topo.Size())
	for sweep := 0; sweep < p.Horizon; sweep++ {
		for _, c := range open {
			best := math.Inf(-1)
			for _, d := range grid.Directions {
				if q := p.q(topo, b, v, c, d); q > best {
					best = q
				}
			}
			next[topo.Index(c)] = best
		}
		v, next = next, v
	}
	return v
}

// q is the one-step lookahead value of taking d from c under values v.
func (p ValueIterationPolicy) q(topo *grid.Topology, b *belief.Distribution, v []float64, c grid.Cell, d grid.Direction) float64 {
	succ, err := topo.Step(c, d)
	reward := stayPenalty
	if err == nil {
		reward = b.At(succ) * beliefScale
	}
	return reward + p.Discount*v[topo.Index(succ)]
}

// BestDirection returns the direction maximizing the lookahead value at
// agent along with that value. Ties go to the first direction in compass
// order. moves is false when that direction is blocked.
func (p ValueIterationPolicy) BestDirection(topo *grid.Topology, b *belief.Distribution, agent grid.Cell) (d grid.Direction, value float64, moves bool) {
	v := p.Values(topo, b)
	value = math.Inf(-1)
	for _, dir := range grid.Directions {
		if q := p.q(topo, b, v, agent, dir); q > value {
			value, d = q, dir
		}
	}
	return d, value, topo.CanMove(agent, d)
}

// NextMove implements MovePolicy. When the best action would leave the agent
// in place it falls back to guided movement toward the most probable cell.
// When no belief mass lies within the horizon every move scores zero, so it
// follows the A* path toward the most probable cell instead.
func (p ValueIterationPolicy) NextMove(s *MoveState) (MoveDecision, error) {
	d, value, moves := p.BestDirection(s.Topo, s.Belief, s.Agent)
	switch {
	case !moves:
		return guidedMove(s, s.Belief.MostProbable(), false)
	case value <= 0:
		return GreedyPolicy{}.NextMove(s)
	}
	return MoveDecision{Direction: d, Goal: s.Agent.Add(d), Reason: "value"}, nil
}
