package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/checkpoint"
	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect saved online-model checkpoints",
}

var modelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs with a saved model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCheckpoints(func(store *checkpoint.Store) error {
			ids, err := store.List()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		})
	},
}

var modelShowCmd = &cobra.Command{
	Use:   "show <runID>",
	Short: "Print a saved model's weights and training error",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCheckpoints(func(store *checkpoint.Store) error {
			cp, err := store.Load(args[0])
			if err != nil {
				return err
			}
			if cp == nil {
				return apperrors.Newf(apperrors.ErrMissingInput, apperrors.ExitFailure, "no checkpoint for %s", args[0])
			}
			printCheckpoint(cmd.OutOrStdout(), cp)
			return nil
		})
	},
}

var modelDeleteCmd = &cobra.Command{
	Use:   "delete <runID>",
	Short: "Remove a saved model",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withCheckpoints(func(store *checkpoint.Store) error {
			return store.Delete(args[0])
		})
	},
}

func init() {
	modelCmd.AddCommand(modelListCmd, modelShowCmd, modelDeleteCmd)
}

func withCheckpoints(fn func(*checkpoint.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := checkpoint.Open(cfg.Checkpoint.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func printCheckpoint(w io.Writer, cp *checkpoint.Checkpoint) {
	weights := make([]string, len(cp.Model.Weights))
	for i, v := range cp.Model.Weights {
		weights[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	mse := 0.0
	if cp.Model.Instances > 0 {
		mse = cp.Model.SquaredError / float64(cp.Model.Instances)
	}
	fmt.Fprintf(w, "run:              %s\n", cp.RunID)
	fmt.Fprintf(w, "saved:            %s\n", cp.SavedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "queries:          %d\n", cp.QueryCount)
	fmt.Fprintf(w, "packages trained: %d\n", cp.PackagesTrained)
	fmt.Fprintf(w, "instances:        %d\n", cp.Model.Instances)
	fmt.Fprintf(w, "mse:              %.6f\n", mse)
	fmt.Fprintf(w, "weights:          [%s]\n", strings.Join(weights, ", "))
}
