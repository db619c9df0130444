package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Rat-Sense/internal/belief"
	"github.com/Garsondee/Rat-Sense/internal/grid"
)

func TestValueIteration_StepsOntoAdjacentMass(t *testing.T) {
	topo, err := grid.NewOpen(5)
	require.NoError(t, err)

	p := ValueIterationPolicy{Horizon: 3, Discount: 0.9}
	b := spikeAt(t, topo, grid.Cell{Row: 2, Col: 4})
	d, value, moves := p.BestDirection(topo, b, grid.Cell{Row: 2, Col: 3})
	assert.Equal(t, grid.East, d)
	assert.True(t, moves)
	assert.Greater(t, value, 10.0)
}

func TestValueIteration_ClosesDistance(t *testing.T) {
	topo, err := grid.NewOpen(7)
	require.NoError(t, err)

	p := ValueIterationPolicy{Horizon: 4, Discount: 0.9}
	goal := grid.Cell{Row: 5, Col: 5}
	b := spikeAt(t, topo, goal)
	agent := grid.Cell{Row: 2, Col: 2}
	d, _, moves := p.BestDirection(topo, b, agent)
	require.True(t, moves)

	next := agent.Add(d)
	before := max(abs(goal.Row-agent.Row), abs(goal.Col-agent.Col))
	after := max(abs(goal.Row-next.Row), abs(goal.Col-next.Col))
	assert.Less(t, after, before, "moved %v from %v", d, agent)
}

func TestValueIteration_ValuesOnlyOnOpenCells(t *testing.T) {
	topo, err := grid.FromRows(
		"....",
		".##.",
		"....",
		"....",
	)
	require.NoError(t, err)

	p := ValueIterationPolicy{Horizon: 3, Discount: 0.9}
	v := p.Values(topo, belief.NewUniform(topo))
	require.Len(t, v, topo.Size())
	for id, val := range v {
		c := topo.CellAt(id)
		if !topo.IsOpen(c) {
			assert.Zero(t, val, "blocked cell %v", c)
			continue
		}
		assert.False(t, math.IsInf(val, 0) || math.IsNaN(val), "cell %v = %v", c, val)
		assert.Greater(t, val, 0.0)
	}
}

// A longer horizon can only add non-negative discounted reward on top of the
// shorter one when every open cell carries mass.
func TestValueIteration_HorizonMonotone(t *testing.T) {
	topo, err := grid.NewOpen(4)
	require.NoError(t, err)

	b := belief.NewUniform(topo)
	short := ValueIterationPolicy{Horizon: 1, Discount: 0.9}.Values(topo, b)
	long := ValueIterationPolicy{Horizon: 3, Discount: 0.9}.Values(topo, b)
	for id := range short {
		assert.GreaterOrEqual(t, long[id], short[id])
	}
}

func TestValueIteration_NoMassInRangeFollowsPath(t *testing.T) {
	topo, err := grid.NewOpen(12)
	require.NoError(t, err)

	goal := grid.Cell{Row: 11, Col: 11}
	s := moveState(topo, grid.Cell{Row: 0, Col: 0}, spikeAt(t, topo, goal))
	dec, err := ValueIterationPolicy{Horizon: 3, Discount: 0.9}.NextMove(s)
	require.NoError(t, err)
	assert.Equal(t, "path", dec.Reason)
	assert.Equal(t, grid.SouthEast, dec.Direction)
}

func TestValueIteration_StuckReported(t *testing.T) {
	topo, err := grid.FromRows(
		"###",
		"#.#",
		"###",
	)
	require.NoError(t, err)

	s := moveState(topo, grid.Cell{Row: 1, Col: 1}, belief.NewUniform(topo))
	_, err = ValueIterationPolicy{Horizon: 3, Discount: 0.9}.NextMove(s)
	assert.ErrorIs(t, err, ErrStuck)
}
