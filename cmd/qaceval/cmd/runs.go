package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation/summary"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/registry"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/redis"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Compare evaluation runs",
}

var runsLiveCmd = &cobra.Command{
	Use:   "live",
	Short: "Show the latest summaries published to the Redis registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return withRegistry(func(reg *registry.Registry) error {
			ids, err := reg.Runs(ctx)
			if err != nil {
				return err
			}
			var sums []evaluation.Summary
			for _, id := range ids {
				sum, err := reg.Summary(ctx, id)
				if err != nil {
					return err
				}
				if sum != nil {
					sums = append(sums, *sum)
				}
			}
			printSummaries(cmd.OutOrStdout(), sums)
			return nil
		})
	},
}

var runsForgetCmd = &cobra.Command{
	Use:   "forget <runID>",
	Short: "Drop a run's registry summary so it can be recorded again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(func(reg *registry.Registry) error {
			if err := reg.Forget(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "forgot %s\n", args[0])
			return nil
		})
	},
}

var runsBestCmd = &cobra.Command{
	Use:   "best",
	Short: "List stored runs by mean reciprocal rank",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSummaries(cmd.Context(), func(store *summary.Store) error {
			sums, err := store.Best(cmd.Context(), runsLimit)
			if err != nil {
				return err
			}
			printSummaries(cmd.OutOrStdout(), sums)
			return nil
		})
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <runID>",
	Short: "Show the latest stored summary of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSummaries(cmd.Context(), func(store *summary.Store) error {
			sum, err := store.Latest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if sum == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "no summary for %s\n", args[0])
				return nil
			}
			printSummaries(cmd.OutOrStdout(), []evaluation.Summary{*sum})
			return nil
		})
	},
}

func init() {
	runsBestCmd.Flags().IntVar(&runsLimit, "limit", 10, "number of runs to list")
	runsCmd.AddCommand(runsLiveCmd, runsBestCmd, runsShowCmd, runsForgetCmd)
}

func withRegistry(fn func(*registry.Registry) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rc, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rc.Close()
	return fn(registry.New(rc, cfg.Redis))
}

func withSummaries(ctx context.Context, fn func(*summary.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	store, err := summary.NewStore(ctx, db)
	if err != nil {
		return err
	}
	return fn(store)
}

func printSummaries(w io.Writer, sums []evaluation.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tRECORDS\tHITS\tEMPTY\tMRR\tP95 (us)")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.4f\t%d\n", s.RunID, s.Records, s.Hits, s.EmptyLists, s.MRR, s.P95ScoreMicros)
	}
	tw.Flush()
}
