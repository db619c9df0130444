package game

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/Garsondee/Rat-Sense/internal/belief"
)

// --- Invariant helpers ---

// tickTrace is the per-tick state the invariant checks run over.
type tickTrace struct {
	results []TickResult
	snaps   []Snapshot
}

// runTraced steps e up to maxTicks (or until caught), snapshotting after
// every tick.
func runTraced(e *Engine, maxTicks int) tickTrace {
	var tr tickTrace
	for i := 0; i < maxTicks; i++ {
		res := e.Step()
		tr.results = append(tr.results, res)
		tr.snaps = append(tr.snaps, e.Snapshot())
		if res.Caught {
			break
		}
	}
	return tr
}

// checkBeliefNormalized verifies the belief sums to 1 after every tracking tick.
func checkBeliefNormalized(t *testing.T, tr tickTrace) {
	t.Helper()
	for i, s := range tr.snaps {
		if s.Belief == nil {
			continue
		}
		if sum := floats.Sum(s.Belief); math.Abs(sum-1) > belief.SumTolerance {
			t.Fatalf("T=%d: belief sums to %.9f", tr.results[i].Tick, sum)
		}
		for id, p := range s.Belief {
			if p < 0 || math.IsNaN(p) {
				t.Fatalf("T=%d: cell %d has probability %v", tr.results[i].Tick, id, p)
			}
		}
	}
}

// checkCandidatesMonotone verifies the candidate set never grows during
// localization, except at the failsafe tick which collapses it to one.
func checkCandidatesMonotone(t *testing.T, tr tickTrace, start int) {
	t.Helper()
	prev := start
	for i, s := range tr.snaps {
		if tr.results[i].Phase != PhaseLocalizing {
			break
		}
		n := len(s.Candidates)
		if n == 0 {
			t.Fatalf("T=%d: candidate set is empty", tr.results[i].Tick)
		}
		if n > prev {
			t.Fatalf("T=%d: candidates grew from %d to %d", tr.results[i].Tick, prev, n)
		}
		if tr.results[i].Failsafe && n != 1 {
			t.Fatalf("T=%d: failsafe left %d candidates", tr.results[i].Tick, n)
		}
		prev = n
	}
}

// checkVisitedMonotone verifies the visited set only grows and always holds
// the agent's cell.
func checkVisitedMonotone(t *testing.T, e *Engine, tr tickTrace) {
	t.Helper()
	prev := 0
	for i, s := range tr.snaps {
		n := s.VisitedCount()
		if n < prev {
			t.Fatalf("T=%d: visited shrank from %d to %d", tr.results[i].Tick, prev, n)
		}
		if !s.Visited[e.Topology().Index(s.Agent)] {
			t.Fatalf("T=%d: agent cell %v not marked visited", tr.results[i].Tick, s.Agent)
		}
		prev = n
	}
}

// checkCountersMatchActions verifies the counters tally the actions taken.
func checkCountersMatchActions(t *testing.T, tr tickTrace) {
	t.Helper()
	var want Counters
	for _, r := range tr.results {
		switch r.Action {
		case ActionSense:
			want.Sensing++
		case ActionDetect:
			want.Detections++
			if r.Pinged {
				want.Pings++
			}
		case ActionMove:
			if r.Phase == PhaseLocalizing || r.Moved {
				want.Movements++
			}
		}
	}
	if len(tr.snaps) == 0 {
		return
	}
	if got := tr.snaps[len(tr.snaps)-1].Counters; got != want {
		t.Fatalf("counters %+v, actions tally %+v", got, want)
	}
}

// checkPhaseOrder verifies phases only advance Localizing → Tracking → Caught.
func checkPhaseOrder(t *testing.T, tr tickTrace) {
	t.Helper()
	prev := PhaseLocalizing
	for i, s := range tr.snaps {
		if s.Phase < prev {
			t.Fatalf("T=%d: phase went back from %s to %s", tr.results[i].Tick, prev, s.Phase)
		}
		prev = s.Phase
	}
}
