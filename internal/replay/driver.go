package replay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

const (
	submitLogEvery = 1000
	sideLogEvery   = 100000
)

// Handler consumes replayed events. strategy.Runner implements it.
type Handler interface {
	SubmitQuery(ctx context.Context, t time.Time, query string) error
	HandleSideChannel(t time.Time, line string) error
}

type Config struct {
	// Start skips queries and side-channel lines stamped before it.
	Start time.Time
	// MaxQueries stops the replay after that many queries. Zero means all.
	MaxQueries int
	// ProgressEvery logs the running MRR every N queries.
	ProgressEvery int
	// MRR reports the running mean reciprocal rank for progress logs.
	MRR func() float64
	// Heartbeat, when set, is called after every submitted query.
	Heartbeat func()
}

// Driver merges the query log with the side channel and replays both in
// time order on the calling goroutine. A query and a side-channel line with
// the same timestamp are delivered query first.
type Driver struct {
	handler   Handler
	cfg       Config
	logger    *slog.Logger
	queries   int
	sideLines int
}

func NewDriver(h Handler, cfg Config) *Driver {
	return &Driver{
		handler: h,
		cfg:     cfg,
		logger:  slog.Default().With("component", "replay"),
	}
}

// RunFiles opens the query log and, when it exists, the side-channel file.
func (d *Driver) RunFiles(ctx context.Context, queryLog, sideChannel string) error {
	qf, err := os.Open(queryLog)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.Newf(apperrors.ErrMissingInput, apperrors.ExitFailure, "query log %s", queryLog)
		}
		return fmt.Errorf("opening query log: %w", err)
	}
	defer qf.Close()

	var side io.Reader
	if sideChannel != "" {
		sf, err := os.Open(sideChannel)
		switch {
		case err == nil:
			defer sf.Close()
			side = sf
		case os.IsNotExist(err):
			d.logger.Debug("no side channel", "path", sideChannel)
		default:
			return fmt.Errorf("opening side channel: %w", err)
		}
	}
	return d.Run(ctx, qf, side)
}

// Run replays queries from r and side-channel lines from side, which may be
// nil. It returns nil when the input is exhausted, MaxQueries is reached or
// ctx is cancelled.
func (d *Driver) Run(ctx context.Context, r io.Reader, side io.Reader) error {
	queries := NewQueryReader(r)
	q, haveQ, err := d.firstQuery(queries)
	if err != nil {
		return err
	}

	var sides *SideReader
	var s SideInput
	var haveS bool
	if side != nil {
		sides = NewSideReader(side)
		if s, haveS, err = d.firstSide(sides); err != nil {
			return err
		}
	}

	started := time.Now()
	d.logger.Info("replay started", "start", d.cfg.Start, "max_queries", d.cfg.MaxQueries)
	for haveQ || haveS {
		if err := ctx.Err(); err != nil {
			d.logger.Info("replay stopped", "queries", d.queries, "reason", context.Cause(ctx))
			return nil
		}
		if haveQ && (!haveS || !q.Time.After(s.Time)) {
			if err := d.submit(ctx, q); err != nil {
				return err
			}
			if d.cfg.MaxQueries > 0 && d.queries >= d.cfg.MaxQueries {
				d.logger.Info("query limit reached", "queries", d.queries)
				break
			}
			if q, haveQ, err = queries.Next(); err != nil {
				return err
			}
			continue
		}
		if err := d.handler.HandleSideChannel(s.Time, s.Line); err != nil {
			return fmt.Errorf("side channel at %s: %w", s.Time, err)
		}
		d.sideLines++
		if d.sideLines%sideLogEvery == 0 {
			d.logger.Debug("side channel progress", "lines", d.sideLines, "line", s.Line)
		}
		if s, haveS, err = sides.Next(); err != nil {
			return err
		}
	}
	d.logger.Info("replay finished",
		"queries", d.queries,
		"side_lines", d.sideLines,
		"duration", time.Since(started),
	)
	return nil
}

func (d *Driver) submit(ctx context.Context, q Query) error {
	if err := d.handler.SubmitQuery(ctx, q.Time, q.Text); err != nil {
		return fmt.Errorf("query on line %d: %w", q.Line, err)
	}
	d.queries++
	if d.cfg.Heartbeat != nil {
		d.cfg.Heartbeat()
	}
	if d.queries%submitLogEvery == 0 {
		d.logger.Debug("query submitted", "count", d.queries, "query", q.Text, "time", q.Time)
	}
	if d.cfg.ProgressEvery > 0 && d.cfg.MRR != nil && d.queries%d.cfg.ProgressEvery == 0 {
		d.logger.Info("progress", "queries", d.queries, "mrr", fmt.Sprintf("%.4f", d.cfg.MRR()))
	}
	return nil
}

func (d *Driver) firstQuery(r *QueryReader) (Query, bool, error) {
	for {
		q, ok, err := r.Next()
		if !ok || err != nil || !q.Time.Before(d.cfg.Start) {
			return q, ok, err
		}
	}
}

func (d *Driver) firstSide(r *SideReader) (SideInput, bool, error) {
	for {
		s, ok, err := r.Next()
		if !ok || err != nil || !s.Time.Before(d.cfg.Start) {
			return s, ok, err
		}
	}
}

// Queries is the number of queries submitted so far.
func (d *Driver) Queries() int { return d.queries }

// SideLines is the number of side-channel lines delivered so far.
func (d *Driver) SideLines() int { return d.sideLines }
