package game

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/Garsondee/Rat-Sense/internal/belief"
	"github.com/Garsondee/Rat-Sense/internal/grid"
)

func TestLocalizer_SenseFilters(t *testing.T) {
	topo, err := grid.NewWalled(5)
	if err != nil {
		t.Fatal(err)
	}
	l := NewLocalizer(topo, rand.New(rand.NewSource(1)), 100)

	out := l.Step(grid.Cell{Row: 2, Col: 2}, 0)
	if out.Action != ActionSense {
		t.Fatalf("tick 0 should sense, got %v", out.Action)
	}
	if out.Sensed != 0 {
		t.Fatalf("centre of walled 5x5 has 0 blocked neighbours, sensed %d", out.Sensed)
	}
	if !out.Localized {
		t.Fatalf("unique blocked count should localize immediately, %d candidates", out.Candidates)
	}
	est, ok := l.Estimate()
	if !ok || est != (grid.Cell{Row: 2, Col: 2}) {
		t.Fatalf("estimate = %v, %v", est, ok)
	}
	if out.Description != "Localization complete!" {
		t.Fatalf("unexpected description %q", out.Description)
	}
}

func TestLocalizer_MoveTracksAgent(t *testing.T) {
	topo, err := grid.NewWalled(7)
	if err != nil {
		t.Fatal(err)
	}
	l := NewLocalizer(topo, rand.New(rand.NewSource(3)), 100)
	agent := grid.Cell{Row: 3, Col: 3}

	for n := 0; n <= 101; n++ {
		out := l.Step(agent, n)
		agent = out.Agent
		if !l.Candidates().Contains(agent) {
			t.Fatalf("tick %d: true cell %v dropped from candidates %v", n, agent, l.Candidates().Cells())
		}
		if out.Warning != nil {
			t.Fatalf("tick %d: unexpected warning %v", n, out.Warning)
		}
		if out.Localized {
			est, _ := l.Estimate()
			if !out.Failsafe && est != agent {
				t.Fatalf("localized to %v, true agent at %v", est, agent)
			}
			return
		}
	}
	t.Fatal("did not localize by the failsafe bound")
}

func TestLocalizer_FailsafeCollapsesToNearest(t *testing.T) {
	// Every cell of an open grid reads 0 blocked neighbours, so only the
	// failsafe can finish localization within a few ticks.
	topo, err := grid.NewOpen(6)
	if err != nil {
		t.Fatal(err)
	}
	const failsafe = 3
	l := NewLocalizer(topo, rand.New(rand.NewSource(1)), failsafe)
	agent := grid.Cell{Row: 2, Col: 2}

	var out LocalizeOutcome
	for n := 0; n <= failsafe; n++ {
		out = l.Step(agent, n)
		agent = out.Agent
		if n < failsafe && out.Localized {
			t.Fatalf("tick %d (action %d): localized before the failsafe bound: %+v", n, n+1, out)
		}
	}
	// The collapse lands on action failsafe+1, the first one past the bound.
	if !out.Localized || !out.Failsafe {
		t.Fatalf("action %d: expected failsafe collapse, got %+v", failsafe+1, out)
	}
	est, _ := l.Estimate()
	if est != agent {
		t.Fatalf("collapse chose %v, true agent at %v", est, agent)
	}
	if out.Description != "Localization complete (failsafe)" {
		t.Fatalf("unexpected description %q", out.Description)
	}
}

func TestLocalizer_MoveDescription(t *testing.T) {
	topo, err := grid.NewOpen(6)
	if err != nil {
		t.Fatal(err)
	}
	l := NewLocalizer(topo, rand.New(rand.NewSource(2)), 100)
	out := l.Step(grid.Cell{Row: 0, Col: 0}, 1)
	if out.Action != ActionMove {
		t.Fatalf("odd tick should move, got %v", out.Action)
	}
	want := "Moved " + out.Direction.String()
	if len(out.Description) < len(want) || out.Description[:len(want)] != want {
		t.Fatalf("description %q should start with %q", out.Description, want)
	}
}

func TestLocalizer_EmptyFilterKeepsCandidates(t *testing.T) {
	topo, err := grid.NewWalled(5)
	if err != nil {
		t.Fatal(err)
	}
	l := NewLocalizer(topo, rand.New(rand.NewSource(1)), 100)
	// Knock the set down to the corner cells, then sense from the centre:
	// no corner matches a reading of 0.
	if err := l.Candidates().FilterBlockedCount(5); err != nil {
		t.Fatal(err)
	}
	before := l.Candidates().Len()
	out := l.Step(grid.Cell{Row: 2, Col: 2}, 0)
	if !errors.Is(out.Warning, belief.ErrEmptyFilter) {
		t.Fatalf("expected ErrEmptyFilter warning, got %v", out.Warning)
	}
	if l.Candidates().Len() != before {
		t.Fatalf("candidate count changed from %d to %d", before, l.Candidates().Len())
	}
}
