package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/checkpoint"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation/summary"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/registry"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/replay"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/strategy"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/tracing"
)

const (
	summaryEvery = 30 * time.Second
	stallAfter   = 5 * time.Minute
)

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run [collection prefixLength type startDate [params...]]",
	Short: "Replay a query log through a completion strategy",
	Long: `Replays <dataDir>/<collection>-queries.txt through the selected strategy
and writes one scored line per query.

Types and their parameters:
  bl-a                                  every query seen so far
  bl-w        windowDays                queries from the last N days
  ntb         qMaxFrequency qMaxSum     one bounded bucket per prefix
  sgdlrnomntb sizes maxFreqs trainAfter [baseBucketSize]
                                        chained buckets ranked by an online model`,
	Example: "  qaceval run aol 2 sgdlrnomntb 2006-03-01 500,1000 500,1000 100",
	RunE:    runExperiment,
}

func init() {
	runOpts.register(runCmd)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyPositional(&cfg.Experiment, args); err != nil {
		return err
	}
	runOpts.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	exp := cfg.Experiment
	runID, err := strategy.RunID(exp)
	if err != nil {
		return err
	}
	if err := checkOutput(cfg, runID); err != nil {
		return err
	}
	start, _ := exp.Start()
	learnBefore, _ := exp.LearnBeforeTime()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx)
	ctx, runSpan := tracing.Start(ctx, "run", runID)
	defer func() {
		runSpan.End()
		runSpan.Log(log)
	}()
	_, setupSpan := tracing.Child(ctx, "setup")
	log.Info("starting run",
		"collection", exp.Collection,
		"type", exp.Type,
		"prefix_length", exp.PrefixLength,
		"start", exp.StartDate,
		"output", cfg.Output.Driver,
	)

	oneOff, err := index.LoadOneOff(cfg.Data.OneOffPath(exp.Collection))
	if err != nil {
		return err
	}
	s, err := strategy.New(exp, oneOff)
	if err != nil {
		return err
	}

	checker := health.NewChecker()
	progress := health.NewProgress()
	checker.Register("replay", progress.StallCheck(stallAfter))

	var reg *registry.Registry
	if cfg.Redis.Enabled {
		rc, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rc.Close()
		checker.Register("redis", health.PingCheck(rc))
		reg = registry.New(rc, cfg.Redis)
		lease, err := reg.Acquire(ctx, runID)
		if err != nil {
			return err
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				log.Error("releasing run failed", "error", err)
			}
		}()
	}

	m := metrics.New()
	chained, _ := s.(*strategy.Chained)
	var ckpt *checkpoint.Store
	if chained != nil {
		chained.Model().OnTrain(m.ModelTrainedTotal.Inc)
		if cfg.Checkpoint.Enabled {
			if ckpt, err = checkpoint.Open(cfg.Checkpoint.Path); err != nil {
				return err
			}
			defer ckpt.Close()
			if cfg.Checkpoint.Restore {
				if _, err := ckpt.RestoreInto(runID, chained.Model()); err != nil {
					return err
				}
			}
		}
	}

	out, err := openOutput(ctx, cfg, runID, cmd.OutOrStdout(), reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.close(); err != nil {
			log.Error("closing output clients failed", "error", err)
		}
	}()
	if out.db != nil {
		checker.Register("postgres", health.PingCheck(out.db))
	}
	if cfg.Metrics.Enabled {
		shutdown := m.StartServer(cfg.Metrics.Port,
			metrics.Route{Pattern: "/health/live", Handler: checker.LiveHandler()},
			metrics.Route{Pattern: "/health/ready", Handler: checker.ReadyHandler()},
		)
		defer shutdown(context.Background())
	}

	// Scoring outlives an interrupt so queued records still reach the sink.
	pipeline := evaluation.NewPipeline(context.WithoutCancel(ctx), evaluation.PipelineConfig{
		Workers:    cfg.Evaluation.Workers,
		QueueDepth: cfg.Evaluation.QueueDepth,
		Concurrent: cfg.Evaluation.Concurrent,
		SinkName:   cfg.Output.Driver,
		Scorer: evaluation.Scorer{
			RunID:        runID,
			PrefixLength: exp.PrefixLength,
			K:            cfg.Evaluation.TopK,
		},
	}, out.sink, m)
	agg := pipeline.Aggregate()

	bgCtx, bgCancel := context.WithCancel(context.WithoutCancel(ctx))
	var background []<-chan struct{}
	if out.db != nil {
		store, err := summary.NewStore(ctx, out.db)
		if err != nil {
			log.Error("summary store unavailable", "error", err)
		} else {
			background = append(background, store.StartPeriodicSave(bgCtx, agg, summaryEvery))
		}
	}
	if reg != nil {
		background = append(background, reg.StartPublishing(bgCtx, agg, summaryEvery))
	}

	runner := strategy.NewRunner(s, pipeline, strategy.RunnerConfig{
		PrefixLength: exp.PrefixLength,
		LearnBefore:  learnBefore,
	}, m)
	driver := replay.NewDriver(runner, replay.Config{
		Start:         start,
		MaxQueries:    exp.MaxQueries,
		ProgressEvery: cfg.Evaluation.ProgressEvery,
		MRR:           agg.MRR,
		Heartbeat:     progress.Touch,
	})
	setupSpan.End()

	_, replaySpan := tracing.Child(ctx, "replay")
	replayErr := driver.RunFiles(ctx, cfg.Data.QueryLogPath(exp.Collection), cfg.Data.SideChannelPath(exp.Collection))
	if errors.Is(replayErr, context.Canceled) {
		log.Warn("replay interrupted", "queries", driver.Queries())
		replayErr = nil
	}
	replaySpan.SetAttr("queries", driver.Queries())
	replaySpan.SetAttr("side_lines", driver.SideLines())
	replaySpan.End()

	_, drainSpan := tracing.Child(ctx, "drain")
	pipeline.WaitForIdle()
	closeErr := pipeline.Close()
	bgCancel()
	for _, done := range background {
		<-done
	}
	drainSpan.End()

	if ckpt != nil {
		_, ckptSpan := tracing.Child(ctx, "checkpoint")
		if err := saveCheckpoint(ckpt, runID, runner, chained); err != nil {
			log.Error("checkpoint failed", "error", err)
		}
		ckptSpan.End()
	}
	if err := errors.Join(replayErr, closeErr); err != nil {
		return err
	}

	sum := agg.Summary()
	log.Info("run finished",
		"records", sum.Records,
		"hits", sum.Hits,
		"empty_lists", sum.EmptyLists,
		"mrr", sum.MRR,
		"p95_score_us", sum.P95ScoreMicros,
		"elapsed", sum.Elapsed,
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Final MRR: %.4f\n", sum.MRR)
	return nil
}

func saveCheckpoint(store *checkpoint.Store, runID string, runner *strategy.Runner, chained *strategy.Chained) error {
	return store.Save(checkpoint.Checkpoint{
		RunID:           runID,
		QueryCount:      runner.QueryCount(),
		PackagesTrained: chained.PackagesTrained(),
		Model:           chained.Model().Snapshot(),
	})
}

