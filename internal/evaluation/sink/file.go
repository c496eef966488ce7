// Package sink provides the destinations scored results are written to:
// the tab-separated run file, an in-process callback, PostgreSQL and Kafka.
package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation"
	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

// File appends one tab-separated line per result.
type File struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	path string
}

// CreateFile opens a new output file. It refuses to overwrite an existing
// run so reruns are idempotent.
func CreateFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, apperrors.Newf(apperrors.ErrOutputExists, apperrors.ExitConflict, "%s", path)
		}
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	return &File{f: f, w: bufio.NewWriterSize(f, 64*1024), path: path}, nil
}

// CheckFree fails with ErrOutputExists when path is already present.
func CheckFree(path string) error {
	if _, err := os.Stat(path); err == nil {
		return apperrors.Newf(apperrors.ErrOutputExists, apperrors.ExitConflict, "%s", path)
	}
	return nil
}

// RunLookup reports whether a destination already holds results for a run.
type RunLookup interface {
	HasRun(ctx context.Context, runID string) (bool, error)
}

// CheckRunFree fails with ErrOutputExists when lookup already holds results
// for runID. where names the destination in the error.
func CheckRunFree(ctx context.Context, lookup RunLookup, runID, where string) error {
	exists, err := lookup.HasRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("checking %s for run %s: %w", where, runID, err)
	}
	if exists {
		return apperrors.Newf(apperrors.ErrOutputExists, apperrors.ExitConflict, "%s already has results for %s", where, runID)
	}
	return nil
}

func (s *File) Write(_ context.Context, res evaluation.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.WriteString(res.Line()); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return fmt.Errorf("flushing %s: %w", s.path, err)
	}
	return s.f.Close()
}

func (s *File) Path() string { return s.path }
