// Package store persists batch runs and their belief traces in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Garsondee/Rat-Sense/internal/game"
	"github.com/Garsondee/Rat-Sense/internal/report"
)

// ErrUnknownBatch is returned when a run references a batch that was never
// started.
var ErrUnknownBatch = errors.New("store: unknown batch")

// schema.sql creates the batches, runs and trace_samples tables.
//
//go:embed schema.sql
var schemaSQL string

// RunStore is a SQLite-backed archive of batch runs.
type RunStore struct {
	*sql.DB
	log *slog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// A nil logger discards.
func Open(path string, log *slog.Logger) (*RunStore, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	log.Debug("run store ready", "path", path)
	return &RunStore{DB: db, log: log}, nil
}

// Batch describes a group of runs sharing one configuration.
type Batch struct {
	ID        string
	Policy    string
	Dimension int
	Alpha     float64
	Notes     string
}

// StartBatch records a new batch and returns its id.
func (s *RunStore) StartBatch(ctx context.Context, cfg game.Config, notes string) (string, error) {
	id := uuid.NewString()
	_, err := s.ExecContext(ctx,
		`INSERT INTO batches (id, policy, dimension, alpha, notes) VALUES (?, ?, ?, ?, ?)`,
		id, cfg.Policy, cfg.Dimension, cfg.Alpha, notes)
	if err != nil {
		return "", fmt.Errorf("insert batch: %w", err)
	}
	return id, nil
}

// Batches lists recorded batches, oldest first.
func (s *RunStore) Batches(ctx context.Context) ([]Batch, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, policy, dimension, alpha, notes FROM batches ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Policy, &b.Dimension, &b.Alpha, &b.Notes); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// RecordRun stores rs and its trace under batchID in one transaction.
func (s *RunStore) RecordRun(ctx context.Context, batchID string, rs report.RunStats) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM batches WHERE id = ?`, batchID).Scan(&n); err != nil {
		return fmt.Errorf("lookup batch: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownBatch, batchID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, batch_id, run_index, seed, policy, outcome, ticks,
			localized_tick, caught_tick, first_ping_tick, failsafe, movements, sensing,
			detections, pings, warnings, last_warning, visited_cells, open_cells)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rs.ID, batchID, rs.Index, rs.Seed, rs.Policy, rs.Outcome.String(), rs.Ticks,
		rs.LocalizedTick, rs.CaughtTick, rs.FirstPingTick, rs.Failsafe,
		rs.Counters.Movements, rs.Counters.Sensing, rs.Counters.Detections, rs.Counters.Pings,
		rs.Warnings, rs.LastWarning, rs.VisitedCells, rs.OpenCells)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trace_samples (run_id, tick, phase, candidates, max_belief, entropy)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare trace insert: %w", err)
	}
	defer stmt.Close()
	for _, smp := range rs.Trace {
		if _, err := stmt.ExecContext(ctx, rs.ID, smp.Tick, smp.Phase.String(), smp.Candidates, smp.MaxBelief, smp.Entropy); err != nil {
			return fmt.Errorf("insert trace tick %d: %w", smp.Tick, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("run recorded", "batch", batchID, "run", rs.ID, "samples", len(rs.Trace))
	return nil
}

// Runs returns the runs of a batch in index order, without traces.
func (s *RunStore) Runs(ctx context.Context, batchID string) ([]report.RunStats, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, run_index, seed, policy, outcome, ticks, localized_tick, caught_tick,
			first_ping_tick, failsafe, movements, sensing, detections, pings, warnings,
			last_warning, visited_cells, open_cells
		FROM runs WHERE batch_id = ? ORDER BY run_index`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []report.RunStats
	for rows.Next() {
		var rs report.RunStats
		var outcome string
		if err := rows.Scan(&rs.ID, &rs.Index, &rs.Seed, &rs.Policy, &outcome, &rs.Ticks,
			&rs.LocalizedTick, &rs.CaughtTick, &rs.FirstPingTick, &rs.Failsafe,
			&rs.Counters.Movements, &rs.Counters.Sensing, &rs.Counters.Detections, &rs.Counters.Pings,
			&rs.Warnings, &rs.LastWarning, &rs.VisitedCells, &rs.OpenCells); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if outcome == report.OutcomeCaught.String() {
			rs.Outcome = report.OutcomeCaught
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Trace loads the stored belief trace of a run in tick order.
func (s *RunStore) Trace(ctx context.Context, runID string) ([]report.Sample, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT tick, phase, candidates, max_belief, entropy
		FROM trace_samples WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	var out []report.Sample
	for rows.Next() {
		var smp report.Sample
		var phase string
		if err := rows.Scan(&smp.Tick, &phase, &smp.Candidates, &smp.MaxBelief, &smp.Entropy); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		smp.Phase = parsePhase(phase)
		out = append(out, smp)
	}
	return out, rows.Err()
}

func parsePhase(s string) game.Phase {
	for _, p := range []game.Phase{game.PhaseLocalizing, game.PhaseTracking, game.PhaseCaught} {
		if p.String() == s {
			return p
		}
	}
	return game.PhaseLocalizing
}
