package grid

import "fmt"

// Cell identifies one square of the ship by row and column.
type Cell struct {
	Row int
	Col int
}

// String renders the cell as "(row,col)".
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Add returns the cell offset by d, without any bounds check.
func (c Cell) Add(d Direction) Cell {
	dr, dc := d.Delta()
	return Cell{Row: c.Row + dr, Col: c.Col + dc}
}

// Manhattan returns |dr| + |dc| between two cells.
func Manhattan(a, b Cell) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Direction is one of the eight compass moves.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	directionCount // sentinel
)

// Directions lists every compass direction in canonical order.
var Directions = [directionCount]Direction{
	North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest,
}

var directionDeltas = [directionCount][2]int{
	North:     {-1, 0},
	NorthEast: {-1, 1},
	East:      {0, 1},
	SouthEast: {1, 1},
	South:     {1, 0},
	SouthWest: {1, -1},
	West:      {0, -1},
	NorthWest: {-1, -1},
}

var directionNames = [directionCount]string{
	"NORTH", "NORTHEAST", "EAST", "SOUTHEAST", "SOUTH", "SOUTHWEST", "WEST", "NORTHWEST",
}

// Delta returns the (row, col) offset of the direction.
func (d Direction) Delta() (int, int) {
	if d >= directionCount {
		return 0, 0
	}
	v := directionDeltas[d]
	return v[0], v[1]
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	return (d + 4) % directionCount
}

func (d Direction) String() string {
	if d >= directionCount {
		return "UNKNOWN"
	}
	return directionNames[d]
}

// DirectionBetween returns the direction that moves a onto an adjacent cell b.
// ok is false when b is not one of a's eight neighbours.
func DirectionBetween(a, b Cell) (Direction, bool) {
	dr, dc := b.Row-a.Row, b.Col-a.Col
	for _, d := range Directions {
		r, c := d.Delta()
		if r == dr && c == dc {
			return d, true
		}
	}
	return 0, false
}
