package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one scheduling run's history record. Input and Schedule hold
// the raw JSON documents; they are gzip-compressed at rest.
type Run struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Source           string    `json:"source"`
	Observatory      string    `json:"observatory,omitempty"`
	Algorithm        string    `json:"algorithm"`
	Params           string    `json:"params"`
	Status           string    `json:"status"`
	Error            string    `json:"error,omitempty"`
	ScheduledCount   int       `json:"scheduled_count"`
	UnscheduledCount int       `json:"unscheduled_count"`
	TotalBlocks      int       `json:"total_blocks"`
	Fitness          float64   `json:"fitness"`
	Input            []byte    `json:"-"`
	Schedule         []byte    `json:"-"`
}

// Store handles database operations for run history.
type Store struct {
	db *DB
}

// NewStore creates a run store over an open database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Create inserts a run record, assigning an ID and timestamp if unset.
func (s *Store) Create(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	input, err := compress(run.Input)
	if err != nil {
		return fmt.Errorf("compressing input: %w", err)
	}
	schedule, err := compress(run.Schedule)
	if err != nil {
		return fmt.Errorf("compressing schedule: %w", err)
	}

	query := `
		INSERT INTO runs (
			id, created_at, source, observatory, algorithm, params,
			status, error, scheduled_count, unscheduled_count,
			total_blocks, fitness, input, schedule
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339),
		run.Source,
		run.Observatory,
		run.Algorithm,
		run.Params,
		run.Status,
		run.Error,
		run.ScheduledCount,
		run.UnscheduledCount,
		run.TotalBlocks,
		run.Fitness,
		input,
		schedule,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, including its decompressed artifacts.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	query := `
		SELECT id, created_at, source, observatory, algorithm, params,
		       status, error, scheduled_count, unscheduled_count,
		       total_blocks, fitness, input, schedule
		FROM runs
		WHERE id = ?
	`

	var run Run
	var createdAtStr string
	var input, schedule []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&createdAtStr,
		&run.Source,
		&run.Observatory,
		&run.Algorithm,
		&run.Params,
		&run.Status,
		&run.Error,
		&run.ScheduledCount,
		&run.UnscheduledCount,
		&run.TotalBlocks,
		&run.Fitness,
		&input,
		&schedule,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	run.CreatedAt = createdAt

	if run.Input, err = decompress(input); err != nil {
		return nil, fmt.Errorf("decompressing input: %w", err)
	}
	if run.Schedule, err = decompress(schedule); err != nil {
		return nil, fmt.Errorf("decompressing schedule: %w", err)
	}

	return &run, nil
}

// List retrieves run summaries newest first. Artifact blobs are not
// loaded; use Get for those.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, created_at, source, observatory, algorithm, params,
		       status, error, scheduled_count, unscheduled_count,
		       total_blocks, fitness
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var createdAtStr string
		if err := rows.Scan(
			&run.ID,
			&createdAtStr,
			&run.Source,
			&run.Observatory,
			&run.Algorithm,
			&run.Params,
			&run.Status,
			&run.Error,
			&run.ScheduledCount,
			&run.UnscheduledCount,
			&run.TotalBlocks,
			&run.Fitness,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		createdAt, err := time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		run.CreatedAt = createdAt
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// Delete removes a run record.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Prune deletes runs older than the cutoff and reports how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM runs WHERE created_at < ?",
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	return result.RowsAffected()
}

func compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
