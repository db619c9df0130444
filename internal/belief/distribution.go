package belief

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Garsondee/Rat-Sense/internal/grid"
)

// ErrMassCollapse reports an update that would leave no probability mass
// anywhere. The distribution keeps its prior.
var ErrMassCollapse = errors.New("belief mass collapsed to zero")

// SumTolerance bounds how far the total mass may drift from 1.
const SumTolerance = 1e-6

// Distribution is a probability mass over cells, stored densely by cell id.
// Blocked cells always hold zero.
type Distribution struct {
	topo *grid.Topology
	p    []float64
}

// NewUniform spreads mass evenly over every open cell.
func NewUniform(topo *grid.Topology) *Distribution {
	d := &Distribution{topo: topo, p: make([]float64, topo.Size())}
	w := 1 / float64(topo.OpenCount())
	for _, c := range topo.OpenCells() {
		d.p[topo.Index(c)] = w
	}
	return d
}

// At returns the probability of c, or 0 off the grid.
func (d *Distribution) At(c grid.Cell) float64 {
	if !d.topo.InBounds(c) {
		return 0
	}
	return d.p[d.topo.Index(c)]
}

// Sum returns the total mass.
func (d *Distribution) Sum() float64 { return floats.Sum(d.p) }

// Max returns the largest single-cell probability.
func (d *Distribution) Max() float64 { return floats.Max(d.p) }

// Entropy returns the Shannon entropy of the distribution in nats.
func (d *Distribution) Entropy() float64 { return stat.Entropy(d.p) }

// MostProbable returns the cell with the highest probability. Ties go to the
// lowest cell id, i.e. the first in row-major order.
func (d *Distribution) MostProbable() grid.Cell {
	return d.topo.CellAt(floats.MaxIdx(d.p))
}

// Values returns a copy of the dense per-cell probabilities.
func (d *Distribution) Values() []float64 {
	out := make([]float64, len(d.p))
	copy(out, d.p)
	return out
}

// Reweight multiplies each open cell's mass by weight(c) and renormalizes.
// Negative or NaN weights count as zero. When the result would hold no mass
// the prior is restored and ErrMassCollapse is returned.
func (d *Distribution) Reweight(weight func(c grid.Cell) float64) error {
	prior := d.Values()
	for id, v := range d.p {
		if v == 0 {
			continue
		}
		w := weight(d.topo.CellAt(id))
		if w < 0 || math.IsNaN(w) {
			w = 0
		}
		d.p[id] = v * w
	}
	if err := d.normalize(); err != nil {
		d.p = prior
		return err
	}
	return nil
}

// Clear zeroes the mass at c and renormalizes. If c held all the mass the
// prior is kept and ErrMassCollapse is returned.
func (d *Distribution) Clear(c grid.Cell) error {
	if !d.topo.InBounds(c) {
		return nil
	}
	id := d.topo.Index(c)
	if d.p[id] == 0 {
		return nil
	}
	prior := d.p[id]
	d.p[id] = 0
	if err := d.normalize(); err != nil {
		d.p[id] = prior
		return err
	}
	return nil
}

// Diffuse models one step of a target that moves uniformly among staying put
// and its open neighbours: each open cell splits its mass equally across
// itself and every open neighbour.
func (d *Distribution) Diffuse() error {
	next := make([]float64, len(d.p))
	for id, v := range d.p {
		if v == 0 {
			continue
		}
		c := d.topo.CellAt(id)
		nbs := d.topo.OpenNeighbors(c)
		share := v / float64(len(nbs)+1)
		next[id] += share
		for _, nb := range nbs {
			next[d.topo.Index(nb)] += share
		}
	}
	prior := d.p
	d.p = next
	if err := d.normalize(); err != nil {
		d.p = prior
		return err
	}
	return nil
}

func (d *Distribution) normalize() error {
	total := floats.Sum(d.p)
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return ErrMassCollapse
	}
	floats.Scale(1/total, d.p)
	return nil
}
