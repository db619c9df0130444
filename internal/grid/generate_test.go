package grid

import (
	"errors"
	"math/rand"
	"testing"
)

func TestGenerateShip_BorderBlocked(t *testing.T) {
	topo, err := GenerateShip(30, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	n := topo.Dimension()
	for i := 0; i < n; i++ {
		for _, c := range []Cell{{0, i}, {n - 1, i}, {i, 0}, {i, n - 1}} {
			if topo.IsOpen(c) {
				t.Fatalf("border cell %v should be blocked", c)
			}
		}
	}
	// Interior is mostly open; wall posts only sit on the 5-spaced lattice.
	for _, c := range []Cell{{1, 1}, {2, 3}, {14, 13}} {
		if !topo.IsOpen(c) {
			t.Fatalf("off-lattice interior cell %v should be open", c)
		}
	}
}

func TestGenerateShip_SeedReproducible(t *testing.T) {
	a, err := GenerateShip(30, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateShip(30, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Fatal("same seed produced different layouts")
	}
}

func TestGenerateShip_TooSmall(t *testing.T) {
	if _, err := GenerateShip(2, rand.New(rand.NewSource(1))); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}
