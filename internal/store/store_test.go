package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Rat-Sense/internal/game"
	"github.com/Garsondee/Rat-Sense/internal/report"
)

func openTemp(t *testing.T) *RunStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRun(index int) report.RunStats {
	return report.RunStats{
		ID:            "run-" + string(rune('a'+index)),
		Index:         index,
		Seed:          int64(100 + index),
		Policy:        game.PolicyGreedy,
		Outcome:       report.OutcomeCaught,
		Ticks:         40,
		LocalizedTick: 12,
		CaughtTick:    39,
		FirstPingTick: 16,
		Failsafe:      index%2 == 1,
		Counters:      game.Counters{Movements: 20, Sensing: 7, Detections: 9, Pings: 4},
		Warnings:      1,
		LastWarning:   "T=20 unreachable: goal walled off",
		VisitedCells:  15,
		OpenCells:     64,
		Trace: []report.Sample{
			{Tick: 0, Phase: game.PhaseLocalizing, Candidates: 30},
			{Tick: 13, Phase: game.PhaseTracking, Candidates: 1, MaxBelief: 0.2, Entropy: 3.1},
		},
	}
}

func TestRunStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	batch, err := s.StartBatch(ctx, game.DefaultConfig(), "smoke")
	require.NoError(t, err)

	want := []report.RunStats{sampleRun(0), sampleRun(1)}
	want[1].Outcome = report.OutcomeTimeout
	want[1].CaughtTick = -1
	want[1].FirstPingTick = -1
	want[1].LastWarning = ""
	for _, rs := range want {
		require.NoError(t, s.RecordRun(ctx, batch, rs))
	}

	got, err := s.Runs(ctx, batch)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(report.RunStats{}, "Trace")); diff != "" {
		t.Fatalf("runs differ (-want +got):\n%s", diff)
	}

	trace, err := s.Trace(ctx, want[0].ID)
	require.NoError(t, err)
	assert.Equal(t, want[0].Trace, trace)

	batches, err := s.Batches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, batch, batches[0].ID)
	assert.Equal(t, game.PolicyGreedy, batches[0].Policy)
	assert.Equal(t, "smoke", batches[0].Notes)
}

func TestRunStore_UnknownBatch(t *testing.T) {
	s := openTemp(t)
	err := s.RecordRun(context.Background(), "missing", sampleRun(0))
	assert.ErrorIs(t, err, ErrUnknownBatch)

	runs, err := s.Runs(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunStore_DuplicateRunRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	batch, err := s.StartBatch(ctx, game.DefaultConfig(), "")
	require.NoError(t, err)

	rs := sampleRun(0)
	require.NoError(t, s.RecordRun(ctx, batch, rs))
	require.Error(t, s.RecordRun(ctx, batch, rs))

	trace, err := s.Trace(ctx, rs.ID)
	require.NoError(t, err)
	assert.Len(t, trace, len(rs.Trace))
}

func TestRunStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	batch, err := s.StartBatch(ctx, game.DefaultConfig(), "")
	require.NoError(t, err)
	require.NoError(t, s.RecordRun(ctx, batch, sampleRun(2)))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(ctx, batch)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Index)
}
