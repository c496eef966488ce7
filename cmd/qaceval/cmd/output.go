package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation/sink"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/registry"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/postgres"
)

// output is the sink selected by output.driver plus the clients it owns.
type output struct {
	sink evaluation.Sink
	db   *postgres.Client
}

// checkOutput fails with ErrOutputExists before any work is done when the
// file driver would overwrite an earlier run. The remote drivers are checked
// by openOutput once their clients are connected.
func checkOutput(cfg *config.Config, runID string) error {
	if cfg.Output.Driver != "file" {
		return nil
	}
	return sink.CheckFree(cfg.Data.OutputPath(cfg.Experiment.PrefixLength, runID))
}

// openOutput connects the configured sink. Postgres and Kafka refuse a run ID
// that already has recorded results; Kafka relies on the run registry for
// that, since a topic cannot be queried by run.
func openOutput(ctx context.Context, cfg *config.Config, runID string, stdout io.Writer, reg *registry.Registry) (*output, error) {
	switch cfg.Output.Driver {
	case "debug":
		return &output{sink: sink.NewDebug(func(res evaluation.Result) {
			fmt.Fprintln(stdout, res.Line())
		})}, nil
	case "postgres":
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		s, err := sink.NewPostgres(ctx, db, cfg.Output.BatchSize)
		if err == nil {
			err = sink.CheckRunFree(ctx, s, runID, "postgres")
		}
		if err != nil {
			db.Close()
			return nil, err
		}
		return &output{sink: s, db: db}, nil
	case "kafka":
		if reg != nil {
			if err := sink.CheckRunFree(ctx, reg, runID, "run registry"); err != nil {
				return nil, err
			}
		} else {
			logger.FromContext(ctx).Warn("run registry disabled, reruns cannot be detected on kafka", "topic", cfg.Kafka.ResultsTopic)
		}
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.ResultsTopic, cfg.Output.BatchSize)
		return &output{sink: sink.NewKafka(producer, cfg.Output.BatchSize, cfg.Output.FlushInterval)}, nil
	default:
		f, err := sink.CreateFile(cfg.Data.OutputPath(cfg.Experiment.PrefixLength, runID))
		if err != nil {
			return nil, err
		}
		return &output{sink: f}, nil
	}
}

// close releases clients once the sink itself has been closed.
func (o *output) close() error {
	var errs []error
	if o.db != nil {
		errs = append(errs, o.db.Close())
	}
	return errors.Join(errs...)
}
