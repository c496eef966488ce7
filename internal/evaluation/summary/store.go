// Package summary persists end-of-run aggregates to PostgreSQL so runs can
// be compared after the fact.
package summary

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/postgres"
)

// Schema creates the run summary table.
const Schema = `CREATE TABLE IF NOT EXISTS evaluation_runs (
    id          BIGSERIAL PRIMARY KEY,
    run_id      TEXT NOT NULL,
    mrr         DOUBLE PRECISION NOT NULL,
    records     BIGINT NOT NULL,
    data        JSONB NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Store saves run summaries.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(ctx context.Context, db *postgres.Client) (*Store, error) {
	if err := db.EnsureSchema(ctx, Schema); err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "summary-store"),
	}, nil
}

// Save records a summary snapshot.
func (s *Store) Save(ctx context.Context, sum evaluation.Summary) error {
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO evaluation_runs (run_id, mrr, records, data, captured_at) VALUES ($1, $2, $3, $4, $5)`,
		sum.RunID, sum.MRR, sum.Records, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving run summary: %w", err)
	}
	s.logger.Info("run summary saved", "run_id", sum.RunID, "mrr", sum.MRR, "records", sum.Records)
	return nil
}

// Latest loads the most recent summary for runID. Returns nil, nil if none
// exists yet.
func (s *Store) Latest(ctx context.Context, runID string) (*evaluation.Summary, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM evaluation_runs WHERE run_id = $1 ORDER BY captured_at DESC LIMIT 1`,
		runID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest summary: %w", err)
	}
	var sum evaluation.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("unmarshaling summary: %w", err)
	}
	return &sum, nil
}

// Best returns the highest-MRR summary per run, best first.
func (s *Store) Best(ctx context.Context, limit int) ([]evaluation.Summary, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT DISTINCT ON (run_id) data FROM evaluation_runs
		 ORDER BY run_id, captured_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing summaries: %w", err)
	}
	defer rows.Close()

	var out []evaluation.Summary
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		var sum evaluation.Summary
		if err := json.Unmarshal(data, &sum); err != nil {
			s.logger.Warn("skipping corrupt summary", "error", err)
			continue
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return topByMRR(out, limit), nil
}

// StartPeriodicSave snapshots the aggregate every interval until ctx is
// cancelled, then writes a final snapshot.
func (s *Store) StartPeriodicSave(ctx context.Context, agg *evaluation.Aggregate, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Save(ctx, agg.Summary()); err != nil {
					s.logger.Error("periodic summary failed", "error", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := s.Save(shutdownCtx, agg.Summary()); err != nil {
					s.logger.Error("final summary failed", "error", err)
				}
				return
			}
		}
	}()
	s.logger.Info("periodic summary started", "interval", interval)
	return done
}
