package game

import (
	"bytes"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Rat-Sense/internal/belief"
	"github.com/Garsondee/Rat-Sense/internal/grid"
)

func TestNew_RejectsBadConfig(t *testing.T) {
	topo, err := grid.NewWalled(8)
	require.NoError(t, err)

	cases := map[string]func(*Config){
		"zero alpha":     func(c *Config) { c.Alpha = 0 },
		"negative alpha": func(c *Config) { c.Alpha = -0.5 },
		"zero horizon":   func(c *Config) { c.Horizon = 0 },
		"bad discount":   func(c *Config) { c.Discount = 1.5 },
		"low bonus":      func(c *Config) { c.ExplorationBonus = 0.9 },
		"no failsafe":    func(c *Config) { c.FailsafeTicks = 0 },
		"unknown policy": func(c *Config) { c.Policy = "teleport" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := New(topo, cfg)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestNew_ZeroDimensionWithoutTopology(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dimension = 0
	_, err := New(nil, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_PlacementMustBeOpen(t *testing.T) {
	topo, err := grid.NewWalled(8)
	require.NoError(t, err)

	_, err = New(topo, DefaultConfig(), WithAgentAt(grid.Cell{Row: 0, Col: 0}))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(topo, DefaultConfig(), WithTargetAt(grid.Cell{Row: 7, Col: 3}))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_GeneratesShip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dimension = 20
	e, err := New(nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, 20, e.Topology().Dimension())
	assert.Equal(t, PhaseLocalizing, e.Phase())
}

func TestPlacement_RespectsSeparation(t *testing.T) {
	topo, err := grid.NewWalled(30)
	require.NoError(t, err)

	for seed := int64(1); seed <= 25; seed++ {
		e, err := New(topo, DefaultConfig(), WithSeed(seed))
		require.NoError(t, err)
		s := e.Snapshot()
		assert.GreaterOrEqual(t, grid.Manhattan(s.Agent, s.Target), 5, "seed %d", seed)
		assert.True(t, topo.IsOpen(s.Agent))
		assert.True(t, topo.IsOpen(s.Target))
	}
}

func TestPlacement_FallsBackToFarthest(t *testing.T) {
	topo, err := grid.NewWalled(4) // 2x2 interior, max distance 2
	require.NoError(t, err)

	e, err := New(topo, DefaultConfig(), WithAgentAt(grid.Cell{Row: 1, Col: 1}))
	require.NoError(t, err)
	assert.Equal(t, grid.Cell{Row: 2, Col: 2}, e.Snapshot().Target)
}

// Fixed topology and seed replay the same actions and catch tick.
func TestEngine_Deterministic(t *testing.T) {
	topo, err := grid.GenerateShip(15, newTestRand(9))
	require.NoError(t, err)

	for _, policy := range []string{PolicyGreedy, PolicyValueIteration} {
		t.Run(policy, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Policy = policy

			run := func() ([]TickResult, Snapshot) {
				e, err := New(topo, cfg, WithSeed(77))
				require.NoError(t, err)
				tr := runTraced(e, 3000)
				return tr.results, e.Snapshot()
			}
			resA, snapA := run()
			resB, snapB := run()

			opts := cmp.Options{
				cmpopts.IgnoreFields(TickResult{}, "Warning"),
			}
			if diff := cmp.Diff(resA, resB, opts); diff != "" {
				t.Fatalf("tick results differ (-first +second):\n%s", diff)
			}
			if diff := cmp.Diff(snapA, snapB); diff != "" {
				t.Fatalf("final snapshots differ (-first +second):\n%s", diff)
			}
		})
	}
}

func TestEngine_StepAfterCaughtIsNoop(t *testing.T) {
	topo, err := grid.NewWalled(6)
	require.NoError(t, err)

	e, err := New(topo, DefaultConfig(), WithSeed(3))
	require.NoError(t, err)
	caughtAt := e.RunUntilCaught(2000)
	require.NotEqual(t, -1, caughtAt, "target not caught\n%s", e.SimLog().Format())

	before := e.Snapshot()
	res := e.Step()
	assert.True(t, res.Caught)
	assert.Equal(t, caughtAt, res.Tick)
	assert.Empty(t, cmp.Diff(before, e.Snapshot()))
	assert.Equal(t, PhaseCaught, e.Phase())
	assert.Equal(t, before.Agent, before.Target)
}

func TestEngine_SnapshotIsACopy(t *testing.T) {
	topo, err := grid.NewWalled(8)
	require.NoError(t, err)

	e, err := New(topo, DefaultConfig(), WithSeed(4))
	require.NoError(t, err)
	e.RunUntil(func(s Snapshot) bool { return s.Phase == PhaseTracking }, 500)

	s := e.Snapshot()
	require.NotNil(t, s.Belief)
	s.Belief[0] = 42
	s.Visited[0] = true
	s.Candidates[0] = grid.Cell{Row: -1, Col: -1}

	fresh := e.Snapshot()
	assert.NotEqual(t, 42.0, fresh.Belief[0])
	assert.NotEqual(t, grid.Cell{Row: -1, Col: -1}, fresh.Candidates[0])
}

func TestEngine_TrackingStartsWithDetection(t *testing.T) {
	topo, err := grid.NewWalled(8)
	require.NoError(t, err)

	e, err := New(topo, DefaultConfig(), WithSeed(5))
	require.NoError(t, err)
	tr := runTraced(e, 2000)

	var tracking []TickResult
	for _, r := range tr.results {
		if r.Phase == PhaseTracking {
			tracking = append(tracking, r)
		}
	}
	for i, r := range tracking {
		if r.Caught && r.Action == ActionNone {
			continue
		}
		want := TrackingAction(i)
		assert.Equal(t, want, r.Action, "tracking tick %d", i)
	}
}

func TestEngine_LogsToSlog(t *testing.T) {
	topo, err := grid.NewWalled(8)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e, err := New(topo, DefaultConfig(), WithSeed(6), WithLogger(logger))
	require.NoError(t, err)
	e.RunTicks(5)

	out := buf.String()
	assert.True(t, strings.Contains(out, "engine ready"), out)
	assert.True(t, strings.Contains(out, "action=sense"), out)
}

func TestEngine_MobileTarget(t *testing.T) {
	topo, err := grid.NewWalled(10)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.MobileTarget = true
	e, err := New(topo, cfg, WithSeed(8))
	require.NoError(t, err)
	tr := runTraced(e, 600)

	checkBeliefNormalized(t, tr)
	checkPhaseOrder(t, tr)
	for _, s := range tr.snaps {
		require.True(t, topo.IsOpen(s.Target), "target left the open cells: %v", s.Target)
	}
}

// An injected random source drives the run exactly like WithSeed does.
func TestEngine_WithRandReplays(t *testing.T) {
	topo, err := grid.NewWalled(10)
	require.NoError(t, err)

	run := func(opt Option) []TickResult {
		e, err := New(topo, DefaultConfig(), opt)
		require.NoError(t, err)
		return runTraced(e, 2000).results
	}
	a := run(WithRand(rand.New(rand.NewSource(31)))) // #nosec G404 -- test
	b := run(WithRand(rand.New(rand.NewSource(31)))) // #nosec G404 -- test
	seeded := run(WithSeed(31))

	opts := cmpopts.IgnoreFields(TickResult{}, "Warning")
	if diff := cmp.Diff(a, b, opts); diff != "" {
		t.Fatalf("same source gave different runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(a, seeded, opts); diff != "" {
		t.Fatalf("WithRand and WithSeed disagree (-rand +seed):\n%s", diff)
	}
}

// A walled-in agent localizes on its first reading and then cannot move.
func TestEngine_StuckAgentLogsWarning(t *testing.T) {
	topo, err := grid.FromRows(
		"#####",
		"#.###",
		"#####",
		"#...#",
		"#####",
	)
	require.NoError(t, err)

	agent := grid.Cell{Row: 1, Col: 1}
	e, err := New(topo, DefaultConfig(), WithSeed(2),
		WithAgentAt(agent),
		WithTargetAt(grid.Cell{Row: 3, Col: 2}))
	require.NoError(t, err)

	first := e.Step()
	require.True(t, first.Localized, first.Description)
	require.False(t, first.Failsafe)
	require.True(t, e.SimLog().HasEntry(CatPhase, "localized", agent.String()))

	detect := e.Step()
	require.Equal(t, ActionDetect, detect.Action)

	move := e.Step()
	require.Equal(t, ActionMove, move.Action)
	assert.True(t, move.Stuck)
	assert.False(t, move.Moved)
	assert.ErrorIs(t, move.Warning, ErrStuck)
	assert.Equal(t, agent, e.Snapshot().Agent)

	sl := e.SimLog()
	assert.True(t, sl.HasEntry(CatWarning, "stuck", "agent is stuck"), sl.Format())
	assert.True(t, sl.HasEntry(CatMove, "stuck", ""), sl.Format())
	assert.False(t, sl.HasEntry(CatWarning, "inconsistent", ""), sl.Format())
	last, ok := sl.LastOf(CatWarning, "")
	require.True(t, ok)
	assert.Equal(t, move.Tick, last.Tick)
}

// After an exact localization the dead-reckoned estimate follows every move.
func TestEngine_EstimateFollowsAgent(t *testing.T) {
	topo, err := grid.NewWalled(10)
	require.NoError(t, err)

	for seed := int64(1); seed <= 5; seed++ {
		e, err := New(topo, DefaultConfig(), WithSeed(seed))
		require.NoError(t, err)
		tr := runTraced(e, 3000)

		failsafe := false
		for i, r := range tr.results {
			if r.Localized {
				failsafe = r.Failsafe
			}
			s := tr.snaps[i]
			if failsafe || s.Phase == PhaseLocalizing {
				continue
			}
			est, ok := s.EstimatedAgent()
			require.True(t, ok, "seed %d tick %d: no estimate", seed, r.Tick)
			require.Equal(t, s.Agent, est, "seed %d tick %d", seed, r.Tick)
			require.NotErrorIs(t, r.Warning, belief.ErrEmptyFilter, "seed %d tick %d", seed, r.Tick)
		}
	}
}
