package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"unknown strategy", fmt.Errorf("building: %w", ErrUnknownStrategy), ExitUsage},
		{"invalid config", ErrInvalidConfig, ExitUsage},
		{"output exists", fmt.Errorf("wrap: %w", ErrOutputExists), ExitConflict},
		{"run locked", ErrRunLocked, ExitConflict},
		{"malformed", ErrMalformedLine, ExitFailure},
		{"app error wins", New(ErrMalformedLine, 7, "line 3"), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrMissingInput, ExitFailure, "one-off file %s", "aol-oneoffqueries.txt")
	assert.True(t, Is(err, ErrMissingInput))
	assert.Equal(t, "required input missing: one-off file aol-oneoffqueries.txt", err.Error())
}
