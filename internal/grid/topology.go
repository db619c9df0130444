// Package grid holds the static ship layout the agent moves through: a square
// grid of open and blocked cells with eight-way adjacency, plus the A*
// pathfinder that runs over it.
//
// Cells are stored in a flat array indexed by row*dimension+col. Neighbour
// queries are coordinate arithmetic with bounds checks; there are no cell
// objects pointing at each other.
package grid

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDimension = errors.New("grid dimension must be positive")
	ErrNoOpenCells      = errors.New("grid has no open cells")
	ErrInvalidMove      = errors.New("move leaves the grid or enters a blocked cell")
)

// Topology is an immutable N×N grid. Open flags never change after construction.
type Topology struct {
	dim       int
	open      []bool
	openCells []Cell // row-major
	blocked   []int8 // cached blocked-neighbour count per cell
}

// New builds a topology from a row-major open mask of length dim*dim.
// The mask is copied.
func New(dim int, open []bool) (*Topology, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}
	if len(open) != dim*dim {
		return nil, fmt.Errorf("%w: mask has %d cells, want %d", ErrInvalidDimension, len(open), dim*dim)
	}
	t := &Topology{
		dim:     dim,
		open:    make([]bool, len(open)),
		blocked: make([]int8, len(open)),
	}
	copy(t.open, open)
	for i, ok := range t.open {
		if ok {
			t.openCells = append(t.openCells, t.CellAt(i))
		}
	}
	if len(t.openCells) == 0 {
		return nil, ErrNoOpenCells
	}
	for i := range t.open {
		c := t.CellAt(i)
		var n int8
		for _, d := range Directions {
			nb := c.Add(d)
			if t.InBounds(nb) && !t.open[t.Index(nb)] {
				n++
			}
		}
		t.blocked[i] = n
	}
	return t, nil
}

// NewOpen returns a grid with every cell open.
func NewOpen(dim int) (*Topology, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}
	open := make([]bool, dim*dim)
	for i := range open {
		open[i] = true
	}
	return New(dim, open)
}

// NewWalled returns a grid whose outer ring is blocked and whose interior is open.
func NewWalled(dim int) (*Topology, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}
	open := make([]bool, dim*dim)
	for r := 1; r < dim-1; r++ {
		for c := 1; c < dim-1; c++ {
			open[r*dim+c] = true
		}
	}
	return New(dim, open)
}

// FromRows parses an ASCII layout. '#' is blocked, anything else is open.
// All rows must have the same length as the number of rows.
//
//	grid.FromRows(
//		"#####",
//		"#...#",
//		"#####",
//	)
func FromRows(rows ...string) (*Topology, error) {
	dim := len(rows)
	if dim == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidDimension)
	}
	open := make([]bool, 0, dim*dim)
	for r, line := range rows {
		if len(line) != dim {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidDimension, r, len(line), dim)
		}
		for _, ch := range line {
			open = append(open, ch != '#')
		}
	}
	return New(dim, open)
}

// Dimension returns N.
func (t *Topology) Dimension() int { return t.dim }

// Size returns N*N, the length of any dense per-cell array.
func (t *Topology) Size() int { return t.dim * t.dim }

// InBounds reports whether c lies on the grid.
func (t *Topology) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < t.dim && c.Col >= 0 && c.Col < t.dim
}

// Index returns the dense id of c. The caller must ensure c is in bounds.
func (t *Topology) Index(c Cell) int {
	return c.Row*t.dim + c.Col
}

// CellAt is the inverse of Index.
func (t *Topology) CellAt(id int) Cell {
	return Cell{Row: id / t.dim, Col: id % t.dim}
}

// IsOpen reports whether c is in bounds and open.
func (t *Topology) IsOpen(c Cell) bool {
	return t.InBounds(c) && t.open[t.Index(c)]
}

// OpenCells returns a copy of the open cells in row-major order.
func (t *Topology) OpenCells() []Cell {
	out := make([]Cell, len(t.openCells))
	copy(out, t.openCells)
	return out
}

// OpenCount returns the number of open cells.
func (t *Topology) OpenCount() int { return len(t.openCells) }

// Neighbors returns every in-bounds neighbour of c in compass order.
func (t *Topology) Neighbors(c Cell) []Cell {
	out := make([]Cell, 0, len(Directions))
	for _, d := range Directions {
		if nb := c.Add(d); t.InBounds(nb) {
			out = append(out, nb)
		}
	}
	return out
}

// OpenNeighbors returns the open neighbours of c in compass order.
func (t *Topology) OpenNeighbors(c Cell) []Cell {
	out := make([]Cell, 0, len(Directions))
	for _, d := range Directions {
		if nb := c.Add(d); t.IsOpen(nb) {
			out = append(out, nb)
		}
	}
	return out
}

// BlockedNeighbors counts the in-bounds blocked neighbours of c. Cells off the
// edge of the grid are not counted.
func (t *Topology) BlockedNeighbors(c Cell) int {
	if !t.InBounds(c) {
		return 0
	}
	return int(t.blocked[t.Index(c)])
}

// CanMove reports whether stepping from c in direction d lands on an open cell.
func (t *Topology) CanMove(c Cell, d Direction) bool {
	return t.IsOpen(c.Add(d))
}

// Step returns the cell reached by moving from c in direction d. When the
// destination is out of bounds or blocked, c is returned with ErrInvalidMove.
func (t *Topology) Step(c Cell, d Direction) (Cell, error) {
	next := c.Add(d)
	if !t.IsOpen(next) {
		return c, ErrInvalidMove
	}
	return next, nil
}

// String draws the grid with '#' for blocked and '.' for open cells.
func (t *Topology) String() string {
	var sb strings.Builder
	sb.Grow(t.dim * (t.dim + 1))
	for r := 0; r < t.dim; r++ {
		for c := 0; c < t.dim; c++ {
			if t.open[r*t.dim+c] {
				sb.WriteByte('.')
			} else {
				sb.WriteByte('#')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
