package index

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

// OneOffSet is the allowlist of queries known never to recur. The zero
// value is an empty set.
type OneOffSet map[string]struct{}

// Contains reports whether query is a one-off.
func (s OneOffSet) Contains(query string) bool {
	_, ok := s[query]
	return ok
}

// LoadOneOff reads a newline-delimited one-off list. A missing file is a
// fatal startup error.
func LoadOneOff(path string) (OneOffSet, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Newf(apperrors.ErrMissingInput, apperrors.ExitFailure, "one-off file %s", path)
		}
		return nil, fmt.Errorf("opening one-off file: %w", err)
	}
	defer f.Close()
	return ReadOneOff(f)
}

// ReadOneOff parses one query per line, ignoring blank lines.
func ReadOneOff(r io.Reader) (OneOffSet, error) {
	set := make(OneOffSet)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		q := strings.TrimRight(scanner.Text(), "\r")
		if q == "" {
			continue
		}
		set[q] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading one-off list: %w", err)
	}
	return set, nil
}
