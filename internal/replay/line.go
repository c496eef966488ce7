// Package replay reads a time-ordered query log and an optional side-channel
// file and feeds both, merged by timestamp, to a query handler.
package replay

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation"
	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

// Header is the optional first line of a query log.
const Header = "Query\tQueryTime"

const maxLineBytes = 1 << 20

// Query is one parsed query log line.
type Query struct {
	Text string
	Time time.Time
	Line int
}

// SideInput is one side-channel line. Line is passed through unparsed.
type SideInput struct {
	Time time.Time
	Line string
}

// ParseQueryLine parses "query<TAB>yyyy-MM-dd HH:mm:ss".
func ParseQueryLine(line string) (Query, error) {
	text, ts, ok := strings.Cut(line, "\t")
	if !ok {
		return Query{}, apperrors.Newf(apperrors.ErrMalformedLine, apperrors.ExitFailure, "no tab in %q", line)
	}
	if i := strings.IndexByte(ts, '\t'); i >= 0 {
		ts = ts[:i]
	}
	t, err := time.Parse(evaluation.TimeLayout, ts)
	if err != nil {
		return Query{}, apperrors.Newf(apperrors.ErrMalformedLine, apperrors.ExitFailure, "bad timestamp in %q: %v", line, err)
	}
	return Query{Text: text, Time: t}, nil
}

// ParseSideLine parses the leading timestamp of "timestamp<TAB>...".
func ParseSideLine(line string) (SideInput, error) {
	ts, _, _ := strings.Cut(line, "\t")
	t, err := time.Parse(evaluation.TimeLayout, ts)
	if err != nil {
		return SideInput{}, apperrors.Newf(apperrors.ErrMalformedLine, apperrors.ExitFailure, "bad side-channel timestamp in %q: %v", line, err)
	}
	return SideInput{Time: t, Line: line}, nil
}

// lineReader yields non-trivial lines with their 1-based line numbers.
type lineReader struct {
	scanner *bufio.Scanner
	line    int
}

func newLineReader(r io.Reader) *lineReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &lineReader{scanner: s}
}

// next skips the header and lines of one character or less.
func (r *lineReader) next() (string, int, bool, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSuffix(r.scanner.Text(), "\r")
		if len(text) <= 1 || text == Header {
			continue
		}
		return text, r.line, true, nil
	}
	return "", r.line, false, r.scanner.Err()
}

// QueryReader reads a query log one query at a time.
type QueryReader struct {
	lines *lineReader
}

func NewQueryReader(r io.Reader) *QueryReader {
	return &QueryReader{lines: newLineReader(r)}
}

// Next returns the next query. ok is false at end of input.
func (r *QueryReader) Next() (q Query, ok bool, err error) {
	text, n, ok, err := r.lines.next()
	if !ok || err != nil {
		return Query{}, false, err
	}
	q, err = ParseQueryLine(text)
	if err != nil {
		return Query{}, false, lineError(err, n)
	}
	q.Line = n
	return q, true, nil
}

// SideReader reads side-channel lines.
type SideReader struct {
	lines *lineReader
}

func NewSideReader(r io.Reader) *SideReader {
	return &SideReader{lines: newLineReader(r)}
}

func (r *SideReader) Next() (SideInput, bool, error) {
	text, n, ok, err := r.lines.next()
	if !ok || err != nil {
		return SideInput{}, false, err
	}
	in, err := ParseSideLine(text)
	if err != nil {
		return SideInput{}, false, lineError(err, n)
	}
	return in, true, nil
}

func lineError(err error, line int) error {
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		return apperrors.Newf(appErr.Err, appErr.ExitCode, "line %d: %s", line, appErr.Message)
	}
	return err
}
