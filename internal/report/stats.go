// Package report turns engine runs into per-run statistics, cross-run
// aggregates, belief trace plots and Prometheus metrics.
package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/Garsondee/Rat-Sense/internal/game"
)

// Outcome is how a run ended.
type Outcome int

const (
	OutcomeTimeout Outcome = iota
	OutcomeCaught
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCaught:
		return "caught"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Sample is one tick of the belief trace.
type Sample struct {
	Tick       int
	Phase      game.Phase
	Candidates int
	MaxBelief  float64 // 0 before tracking starts
	Entropy    float64
}

// RunStats summarizes a single engine run.
type RunStats struct {
	ID     string
	Index  int
	Seed   int64
	Policy string

	Outcome       Outcome
	Ticks         int
	LocalizedTick int // -1 if localization never finished
	CaughtTick    int // -1 if the target was not caught
	FirstPingTick int // -1 if the detector never pinged
	Failsafe      bool

	Counters     game.Counters
	Warnings     int
	LastWarning  string
	StuckTicks   int
	VisitedCells int
	OpenCells    int

	Trace []Sample
}

// TrackingTicks is the number of ticks spent after localization.
func (rs RunStats) TrackingTicks() int {
	if rs.LocalizedTick < 0 {
		return 0
	}
	return rs.Ticks - rs.LocalizedTick - 1
}

// Coverage is the fraction of open cells the agent stood on.
func (rs RunStats) Coverage() float64 {
	if rs.OpenCells == 0 {
		return 0
	}
	return float64(rs.VisitedCells) / float64(rs.OpenCells)
}

// Collect steps e until the target is caught, maxTicks elapse or ctx is
// done. m may be nil.
func Collect(ctx context.Context, e *game.Engine, index int, seed int64, maxTicks int, m *Metrics) (RunStats, error) {
	rs := RunStats{
		ID:            uuid.NewString(),
		Index:         index,
		Seed:          seed,
		Policy:        e.PolicyName(),
		LocalizedTick: -1,
		CaughtTick:    -1,
		FirstPingTick: -1,
		OpenCells:     e.Topology().OpenCount(),
	}

	for i := 0; i < maxTicks; i++ {
		if err := ctx.Err(); err != nil {
			return rs, fmt.Errorf("run %d: %w", index, err)
		}
		res := e.Step()
		snap := e.Snapshot()
		rs.Ticks = res.Tick + 1
		rs.Trace = append(rs.Trace, Sample{
			Tick:       res.Tick,
			Phase:      res.Phase,
			Candidates: len(snap.Candidates),
			MaxBelief:  snap.MaxBelief,
			Entropy:    snap.Entropy,
		})
		if res.Localized {
			rs.LocalizedTick = res.Tick
			rs.Failsafe = res.Failsafe
		}
		if res.Stuck {
			rs.StuckTicks++
		}
		if m != nil {
			m.ObserveTick(res)
		}
		if res.Caught {
			rs.Outcome = OutcomeCaught
			rs.CaughtTick = res.Tick
			break
		}
	}

	snap := e.Snapshot()
	rs.Counters = snap.Counters
	rs.VisitedCells = snap.VisitedCount()
	sl := e.SimLog()
	rs.Warnings = sl.CountCategory(game.CatWarning, "")
	if last, ok := sl.LastOf(game.CatWarning, ""); ok {
		rs.LastWarning = fmt.Sprintf("T=%d %s: %s", last.Tick, last.Key, last.Value)
	}
	rs.FirstPingTick = FirstTick(sl.Entries(), game.CatDetect, "ping", "")
	if m != nil {
		m.ObserveRun(rs)
	}
	return rs, nil
}

// FirstTick returns the tick of the first entry matching category and key
// whose value contains the substring, or -1.
func FirstTick(entries []game.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

// Summary aggregates a batch of runs.
type Summary struct {
	Runs         int
	Caught       int
	FailsafeRuns int
	Warnings     int

	CatchRate     float64
	MeanCatchTick float64 // over caught runs; NaN when none
	StdCatchTick  float64
	MeanLocalize  float64 // over localized runs; NaN when none
	StdLocalize   float64

	MeanMovements  float64
	MeanSensing    float64
	MeanDetections float64
	MeanPings      float64
	MeanCoverage   float64

	Policies map[string]struct{}
}

// Aggregate folds runs into a Summary.
func Aggregate(all []RunStats) Summary {
	s := Summary{Runs: len(all), Policies: make(map[string]struct{})}
	var catchTicks, localizeTicks []float64
	var moves, sensing, detections, pings, coverage []float64
	for _, rs := range all {
		s.Policies[rs.Policy] = struct{}{}
		s.Warnings += rs.Warnings
		if rs.Outcome == OutcomeCaught {
			s.Caught++
			catchTicks = append(catchTicks, float64(rs.CaughtTick))
		}
		if rs.LocalizedTick >= 0 {
			localizeTicks = append(localizeTicks, float64(rs.LocalizedTick))
		}
		if rs.Failsafe {
			s.FailsafeRuns++
		}
		moves = append(moves, float64(rs.Counters.Movements))
		sensing = append(sensing, float64(rs.Counters.Sensing))
		detections = append(detections, float64(rs.Counters.Detections))
		pings = append(pings, float64(rs.Counters.Pings))
		coverage = append(coverage, rs.Coverage())
	}
	if s.Runs > 0 {
		s.CatchRate = float64(s.Caught) / float64(s.Runs)
	}
	s.MeanCatchTick, s.StdCatchTick = meanStd(catchTicks)
	s.MeanLocalize, s.StdLocalize = meanStd(localizeTicks)
	s.MeanMovements, _ = meanStd(moves)
	s.MeanSensing, _ = meanStd(sensing)
	s.MeanDetections, _ = meanStd(detections)
	s.MeanPings, _ = meanStd(pings)
	s.MeanCoverage, _ = meanStd(coverage)
	return s
}

// meanStd returns NaN for an empty sample and a zero deviation for a
// single value.
func meanStd(x []float64) (float64, float64) {
	switch len(x) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

// WriteRun prints one run block.
func WriteRun(w io.Writer, rs RunStats) {
	fmt.Fprintf(w, "--- Run %d (seed=%d id=%s) ---\n", rs.Index, rs.Seed, rs.ID)
	fmt.Fprintf(w, "outcome=%s policy=%s ticks=%d localized=%d caught=%d failsafe=%t\n",
		rs.Outcome, rs.Policy, rs.Ticks, rs.LocalizedTick, rs.CaughtTick, rs.Failsafe)
	fmt.Fprintf(w, "counters: moves=%d sensing=%d detections=%d pings=%d first_ping=%d\n",
		rs.Counters.Movements, rs.Counters.Sensing, rs.Counters.Detections, rs.Counters.Pings, rs.FirstPingTick)
	fmt.Fprintf(w, "coverage: visited=%d open=%d (%.0f%%) stuck=%d warnings=%d\n",
		rs.VisitedCells, rs.OpenCells, rs.Coverage()*100, rs.StuckTicks, rs.Warnings)
	if rs.LastWarning != "" {
		fmt.Fprintf(w, "last_warning: %s\n", rs.LastWarning)
	}
	fmt.Fprintln(w)
}

// WriteSummary prints the aggregate block.
func WriteSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, "=== Aggregate ===")
	fmt.Fprintf(w, "runs=%d caught=%d catch_rate=%.0f%% failsafe_runs=%d warnings=%d policies=%s\n",
		s.Runs, s.Caught, s.CatchRate*100, s.FailsafeRuns, s.Warnings, joinSet(s.Policies))
	fmt.Fprintf(w, "catch_tick: mean=%s std=%s\n", fmtStat(s.MeanCatchTick), fmtStat(s.StdCatchTick))
	fmt.Fprintf(w, "localize_tick: mean=%s std=%s\n", fmtStat(s.MeanLocalize), fmtStat(s.StdLocalize))
	fmt.Fprintf(w, "avg_per_run: moves=%.1f sensing=%.1f detections=%.1f pings=%.1f coverage=%.0f%%\n",
		s.MeanMovements, s.MeanSensing, s.MeanDetections, s.MeanPings, s.MeanCoverage*100)
}

func fmtStat(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}
