package grid

import (
	"fmt"
	"math/rand"
)

const (
	wallSpacing      = 5
	wallChance       = 0.4
	wallExtendChance = 0.5
)

// GenerateShip builds a walled ship layout: the outer ring is blocked and
// every fifth interior row/column intersection has a 40% chance of a wall
// post, which extends one cell south half of the time.
func GenerateShip(dim int, rng *rand.Rand) (*Topology, error) {
	if dim < 3 {
		return nil, fmt.Errorf("%w: ship needs at least 3 rows, got %d", ErrInvalidDimension, dim)
	}
	open := make([]bool, dim*dim)
	for r := 1; r < dim-1; r++ {
		for c := 1; c < dim-1; c++ {
			open[r*dim+c] = true
		}
	}
	for r := wallSpacing; r < dim-wallSpacing; r += wallSpacing {
		for c := wallSpacing; c < dim-wallSpacing; c += wallSpacing {
			if rng.Float64() >= wallChance {
				continue
			}
			open[r*dim+c] = false
			if rng.Float64() < wallExtendChance && r+1 < dim {
				open[(r+1)*dim+c] = false
			}
		}
	}
	return New(dim, open)
}
