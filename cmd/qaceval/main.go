// Command qaceval replays search query logs through query auto-completion
// ranking strategies and reports mean reciprocal rank.
//
// Usage:
//
//	qaceval run aol 2 bl-w 2006-03-01 7
//	qaceval run --config configs/experiment.yaml
//	qaceval profile --stem ne
//	qaceval model show aol-sgdlrnomntb500,1000-500,1000-t100
package main

import (
	"fmt"
	"os"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/cmd/qaceval/cmd"
	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
}
