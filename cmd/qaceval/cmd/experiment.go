package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/strategy"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

// applyPositional fills exp from the classic argument order
//
//	collection prefixLength type startDate [params...]
//
// where params are windowDays for bl-w, qMaxFrequency qMaxSum for ntb, and
// sizes maxFreqs trainAfter [baseBucketSize] for sgdlrnomntb, lists being
// comma separated. Missing trailing arguments keep their configured values.
func applyPositional(exp *config.ExperimentConfig, args []string) error {
	usage := func(format string, a ...any) error {
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage, format, a...)
	}
	at := func(i int) (string, bool) {
		if i < len(args) {
			return args[i], true
		}
		return "", false
	}
	atoi := func(i int, name string, dst *int) error {
		v, ok := at(i)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return usage("%s: %q is not a number", name, v)
		}
		*dst = n
		return nil
	}

	if v, ok := at(0); ok {
		exp.Collection = v
	}
	if err := atoi(1, "prefixLength", &exp.PrefixLength); err != nil {
		return err
	}
	if v, ok := at(2); ok {
		exp.Type = v
	}
	if v, ok := at(3); ok {
		exp.StartDate = v
	}

	params := 4
	switch exp.Type {
	case strategy.TypeBaselineWindow:
		params = 5
		if err := atoi(4, "windowDays", &exp.WindowDays); err != nil {
			return err
		}
	case strategy.TypeBucket:
		params = 6
		if err := atoi(4, "qMaxFrequency", &exp.QMaxFrequency); err != nil {
			return err
		}
		if err := atoi(5, "qMaxSum", &exp.QMaxSum); err != nil {
			return err
		}
	case strategy.TypeChained:
		params = 8
		for i, dst := range []*[]int{&exp.BucketSizes, &exp.BucketMaxFreqs} {
			v, ok := at(4 + i)
			if !ok {
				break
			}
			list, err := parseInts(v)
			if err != nil {
				return usage("argument %d: %v", 5+i, err)
			}
			*dst = list
		}
		if err := atoi(6, "trainAfter", &exp.TrainAfter); err != nil {
			return err
		}
		if err := atoi(7, "baseBucketSize", &exp.BaseBucketSize); err != nil {
			return err
		}
	}
	if len(args) > params {
		return usage("too many arguments for %s: %s", exp.Type, strings.Join(args[params:], " "))
	}
	return nil
}

func parseInts(csv string) ([]int, error) {
	parts := strings.Split(csv, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// runFlags override config values when set on the command line.
type runFlags struct {
	dataDir     string
	learnBefore string
	maxQueries  int
	driver      string
	workers     int
	sequential  bool
	metrics     bool
	registry    bool
	checkpoint  bool
	restore     bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.dataDir, "data-dir", "", "directory holding query logs and output files")
	fs.StringVar(&f.learnBefore, "learn-before", "", "learn without suggesting before this date (yyyy-mm-dd)")
	fs.IntVar(&f.maxQueries, "max-queries", 0, "stop after this many queries")
	fs.StringVar(&f.driver, "output", "", "output driver: file, debug, postgres or kafka")
	fs.IntVar(&f.workers, "workers", 0, "scoring workers")
	fs.BoolVar(&f.sequential, "sequential", false, "score on the replay goroutine")
	fs.BoolVar(&f.metrics, "metrics", false, "serve Prometheus metrics")
	fs.BoolVar(&f.registry, "registry", false, "claim the run in the Redis registry")
	fs.BoolVar(&f.checkpoint, "checkpoint", false, "save the trained model at the end of the run")
	fs.BoolVar(&f.restore, "restore", false, "warm-start the model from the run's checkpoint")
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("data-dir") {
		cfg.Data.Dir = f.dataDir
	}
	if changed("learn-before") {
		cfg.Experiment.LearnBefore = f.learnBefore
	}
	if changed("max-queries") {
		cfg.Experiment.MaxQueries = f.maxQueries
	}
	if changed("output") {
		cfg.Output.Driver = f.driver
	}
	if changed("workers") {
		cfg.Evaluation.Workers = f.workers
	}
	if changed("sequential") {
		cfg.Evaluation.Concurrent = !f.sequential
	}
	if changed("metrics") {
		cfg.Metrics.Enabled = f.metrics
	}
	if changed("registry") {
		cfg.Redis.Enabled = f.registry
	}
	if changed("checkpoint") {
		cfg.Checkpoint.Enabled = f.checkpoint
	}
	if changed("restore") {
		cfg.Checkpoint.Restore = f.restore
		if f.restore {
			cfg.Checkpoint.Enabled = true
		}
	}
}
