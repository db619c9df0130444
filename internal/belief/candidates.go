// Package belief holds the two estimates the agent keeps about the world:
// a CandidateSet of cells it might be standing on, and a Distribution of
// probability mass over where the target might be.
//
// Both are backed by the grid's flat cell ids, so iteration order is always
// row-major and tie-breaking never depends on map ordering.
package belief

import (
	"errors"
	"fmt"

	"github.com/Garsondee/Rat-Sense/internal/grid"
)

// ErrEmptyFilter reports an observation that no remaining candidate agrees
// with. The set is left unchanged.
var ErrEmptyFilter = errors.New("observation rules out every candidate")

// CandidateSet is the non-empty set of cells consistent with every
// localization observation so far. Cells are kept in row-major order.
type CandidateSet struct {
	topo  *grid.Topology
	cells []grid.Cell
}

// NewCandidateSet starts with every open cell of topo.
func NewCandidateSet(topo *grid.Topology) *CandidateSet {
	return &CandidateSet{topo: topo, cells: topo.OpenCells()}
}

// Len returns the number of candidates.
func (s *CandidateSet) Len() int { return len(s.cells) }

// Cells returns a copy of the candidates in row-major order.
func (s *CandidateSet) Cells() []grid.Cell {
	out := make([]grid.Cell, len(s.cells))
	copy(out, s.cells)
	return out
}

// Contains reports whether c is still a candidate.
func (s *CandidateSet) Contains(c grid.Cell) bool {
	for _, x := range s.cells {
		if x == c {
			return true
		}
	}
	return false
}

// Only returns the single remaining candidate. ok is false while more than
// one cell is still possible.
func (s *CandidateSet) Only() (grid.Cell, bool) {
	if len(s.cells) != 1 {
		return grid.Cell{}, false
	}
	return s.cells[0], true
}

// Filter keeps the candidates for which keep returns true. If none survive,
// the set is unchanged and ErrEmptyFilter is returned.
func (s *CandidateSet) Filter(keep func(grid.Cell) bool) error {
	kept := make([]grid.Cell, 0, len(s.cells))
	for _, c := range s.cells {
		if keep(c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return fmt.Errorf("%w: %d candidates before filtering", ErrEmptyFilter, len(s.cells))
	}
	s.cells = kept
	return nil
}

// FilterBlockedCount keeps candidates whose blocked-neighbour count equals n.
func (s *CandidateSet) FilterBlockedCount(n int) error {
	return s.Filter(func(c grid.Cell) bool {
		return s.topo.BlockedNeighbors(c) == n
	})
}

// FilterMove keeps candidates where moving in d would have the observed
// outcome.
func (s *CandidateSet) FilterMove(d grid.Direction, succeeded bool) error {
	return s.Filter(func(c grid.Cell) bool {
		return s.topo.CanMove(c, d) == succeeded
	})
}

// Shift translates every candidate one step in d, following an agent move
// that succeeded. Translation preserves row-major order. Candidates whose
// destination is not open are dropped; if that would drop them all the set is
// unchanged and ErrEmptyFilter is returned.
func (s *CandidateSet) Shift(d grid.Direction) error {
	moved := make([]grid.Cell, 0, len(s.cells))
	for _, c := range s.cells {
		if nb := c.Add(d); s.topo.IsOpen(nb) {
			moved = append(moved, nb)
		}
	}
	if len(moved) == 0 {
		return fmt.Errorf("%w: shift %s", ErrEmptyFilter, d)
	}
	s.cells = moved
	return nil
}

// OpenCount returns how many candidates have an open neighbour in direction d.
func (s *CandidateSet) OpenCount(d grid.Direction) int {
	n := 0
	for _, c := range s.cells {
		if s.topo.CanMove(c, d) {
			n++
		}
	}
	return n
}

// Nearest returns the candidate with the smallest Manhattan distance to c.
// Ties go to the earliest candidate in row-major order.
func (s *CandidateSet) Nearest(c grid.Cell) grid.Cell {
	best := s.cells[0]
	bestD := grid.Manhattan(best, c)
	for _, x := range s.cells[1:] {
		if d := grid.Manhattan(x, c); d < bestD {
			best, bestD = x, d
		}
	}
	return best
}

// Collapse replaces the set with the single cell c.
func (s *CandidateSet) Collapse(c grid.Cell) {
	s.cells = []grid.Cell{c}
}
