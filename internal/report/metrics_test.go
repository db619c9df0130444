package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Rat-Sense/internal/game"
)

func TestMetrics_ObserveTick(t *testing.T) {
	m := NewMetrics()
	m.ObserveTick(game.TickResult{Phase: game.PhaseTracking, Action: game.ActionDetect, Pinged: true})
	m.ObserveTick(game.TickResult{Phase: game.PhaseTracking, Action: game.ActionDetect})
	m.ObserveTick(game.TickResult{Phase: game.PhaseLocalizing, Action: game.ActionSense})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks.WithLabelValues("tracking", "detect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues("localizing", "sense")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pings))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.warnings))
}

func TestMetrics_CollectRun(t *testing.T) {
	m := NewMetrics()
	e := newEngine(t, 3)
	rs, err := Collect(context.Background(), e, 0, 3, 5000, m)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(rs.Outcome.String())))
	assert.Equal(t, float64(rs.Counters.Pings), testutil.ToFloat64(m.pings))
	assert.Equal(t, 1, testutil.CollectAndCount(m.catchTicks))

	n, err := testutil.GatherAndCount(m.Registry)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveRun(RunStats{Outcome: OutcomeTimeout, LocalizedTick: -1})

	path := filepath.Join(t.TempDir(), "ratsense.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `ratsense_runs_total{outcome="timeout"} 1`), string(data))
}
