package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
)

// Run is one recorded stage invocation.
type Run struct {
	ID         int64
	RunID      string
	Stage      string
	Mode       content.Mode
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Skipped    int
	Failed     int
}

// Finished reports whether FinishRun was recorded.
func (r Run) Finished() bool { return !r.FinishedAt.IsZero() }

// Duration returns the elapsed run time, or zero while unfinished.
func (r Run) Duration() time.Duration {
	if !r.Finished() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts are the unit tallies stored by FinishRun.
type Counts struct {
	Processed int
	Skipped   int
	Failed    int
}

// BeginRun records the start of stage and returns the row ID.
func (s *Store) BeginRun(ctx context.Context, runID, stage string, mode content.Mode) (int64, error) {
	if strings.TrimSpace(runID) == "" || strings.TrimSpace(stage) == "" {
		return 0, fmt.Errorf("begin run: run id and stage required")
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO stage_runs (run_id, stage, mode, started_at) VALUES (?, ?, ?, ?)`,
		runID, stage, string(mode), formatTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// FinishRun stores counts for the run row id.
func (s *Store) FinishRun(ctx context.Context, id int64, counts Counts) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE stage_runs SET finished_at = ?, processed = ?, skipped = ?, failed = ? WHERE id = ?`,
		formatTime(time.Now()), counts.Processed, counts.Skipped, counts.Failed, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("finish run: no run with id %d", id)
	}
	return nil
}

// Runs returns the most recent stage runs, newest first. limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, run_id, stage, mode, started_at, finished_at, processed, skipped, failed
              FROM stage_runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			mode              string
			started, finished sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.RunID, &run.Stage, &mode, &started, &finished, &run.Processed, &run.Skipped, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Mode = content.Mode(mode)
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
