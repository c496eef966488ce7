package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/resilience"
)

// ResultsSchema creates the table the Postgres sink copies into.
const ResultsSchema = `CREATE TABLE IF NOT EXISTS evaluation_results (
    run_id          TEXT NOT NULL,
    seq             INTEGER NOT NULL,
    prefix_length   INTEGER NOT NULL,
    full_query      TEXT NOT NULL,
    partial_query   TEXT NOT NULL,
    query_time      TIMESTAMP NOT NULL,
    candidate_count INTEGER NOT NULL,
    hit_rank        INTEGER NOT NULL,
    reciprocal_rank DOUBLE PRECISION NOT NULL,
    candidates      TEXT NOT NULL,
    PRIMARY KEY (run_id, seq)
)`

var resultColumns = []string{
	"run_id", "seq", "prefix_length", "full_query", "partial_query",
	"query_time", "candidate_count", "hit_rank", "reciprocal_rank", "candidates",
}

// Postgres buffers results and bulk-loads them with COPY.
type Postgres struct {
	db        *postgres.Client
	mu        sync.Mutex
	buffer    []evaluation.Result
	batchSize int
	retry     resilience.RetryConfig
	logger    *slog.Logger
}

func NewPostgres(ctx context.Context, db *postgres.Client, batchSize int) (*Postgres, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	if err := db.EnsureSchema(ctx, ResultsSchema); err != nil {
		return nil, err
	}
	return &Postgres{
		db:        db,
		buffer:    make([]evaluation.Result, 0, batchSize),
		batchSize: batchSize,
		logger:    slog.Default().With("component", "postgres-sink"),
	}, nil
}

// HasRun reports whether any result rows exist for runID.
func (s *Postgres) HasRun(ctx context.Context, runID string) (bool, error) {
	var exists bool
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM evaluation_results WHERE run_id = $1)`, runID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("looking up run %s: %w", runID, err)
	}
	return exists, nil
}

func (s *Postgres) Write(ctx context.Context, res evaluation.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = append(s.buffer, res)
	if len(s.buffer) < s.batchSize {
		return nil
	}
	return s.flushLocked(ctx)
}

// Close flushes the buffer. The client stays open for its owner.
func (s *Postgres) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(context.Background())
}

func (s *Postgres) flushLocked(ctx context.Context) error {
	if len(s.buffer) == 0 {
		return nil
	}
	batch := s.buffer
	err := resilience.Retry(ctx, "postgres-copy", s.retry, func() error {
		return s.db.InTx(ctx, func(tx *sql.Tx) error {
			return copyResults(ctx, tx, batch)
		})
	})
	if err != nil {
		return fmt.Errorf("copying %d results: %w", len(batch), err)
	}
	s.logger.Debug("results copied", "rows", len(batch))
	s.buffer = make([]evaluation.Result, 0, s.batchSize)
	return nil
}

func copyResults(ctx context.Context, tx *sql.Tx, batch []evaluation.Result) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("evaluation_results", resultColumns...))
	if err != nil {
		return fmt.Errorf("preparing copy: %w", err)
	}
	for _, res := range batch {
		if _, err := stmt.ExecContext(ctx, resultRow(res)...); err != nil {
			stmt.Close()
			return fmt.Errorf("copying row %d: %w", res.Seq, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("finishing copy: %w", err)
	}
	return stmt.Close()
}

func resultRow(res evaluation.Result) []any {
	return []any{
		res.RunID,
		res.Seq,
		res.PrefixLength,
		res.Full,
		res.Partial,
		res.Time,
		len(res.Candidates),
		res.HitRank,
		res.ReciprocalRank,
		res.Candidates.Join(";"),
	}
}
