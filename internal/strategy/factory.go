package strategy

import (
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

// Experiment types.
const (
	TypeBaselineAll    = "bl-a"
	TypeBaselineWindow = "bl-w"
	TypeBucket         = "ntb"
	TypeChained        = "sgdlrnomntb"
)

// Types lists every supported experiment type.
var Types = []string{TypeBaselineAll, TypeBaselineWindow, TypeBucket, TypeChained}

// RunID names a run: collection-type followed by the type's positional
// parameters.
func RunID(cfg config.ExperimentConfig) (string, error) {
	if err := validate(cfg); err != nil {
		return "", err
	}
	id := cfg.Collection + "-" + cfg.Type
	switch cfg.Type {
	case TypeBaselineWindow:
		id += strconv.Itoa(cfg.WindowDays)
	case TypeBucket:
		id += strconv.Itoa(cfg.QMaxFrequency) + "-" + strconv.Itoa(cfg.QMaxSum)
	case TypeChained:
		id += joinInts(cfg.BucketSizes) + "-" + joinInts(cfg.BucketMaxFreqs) + "-t" + strconv.Itoa(cfg.TrainAfter)
	}
	return id, nil
}

// New builds the strategy selected by cfg.Type.
func New(cfg config.ExperimentConfig, oneOff index.OneOffSet) (Strategy, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case TypeBaselineAll:
		return NewBaselineAll(cfg.PrefixLength, oneOff, index.NewEntry), nil
	case TypeBaselineWindow:
		return NewWindow(NewBaselineAll(cfg.PrefixLength, oneOff, index.NewEntry), cfg.WindowDays, oneOff), nil
	case TypeBucket:
		return NewBucketBased(cfg.QMaxSum, cfg.QMaxFrequency, index.NewEntry), nil
	default:
		return NewChained(ChainedParams{
			Sizes:          cfg.BucketSizes,
			MaxFreqs:       cfg.BucketMaxFreqs,
			TrainAfter:     cfg.TrainAfter,
			BaseBucketSize: cfg.BaseBucketSize,
			LearningRate:   cfg.LearningRate,
		}, index.NewEntry), nil
	}
}

func validate(cfg config.ExperimentConfig) error {
	invalid := func(format string, args ...any) error {
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage, format, args...)
	}
	switch cfg.Type {
	case TypeBaselineAll:
	case TypeBaselineWindow:
		if cfg.WindowDays <= 0 {
			return invalid("bl-w needs a positive windowDays, got %d", cfg.WindowDays)
		}
	case TypeBucket:
		if cfg.QMaxSum <= 0 || cfg.QMaxFrequency <= 0 {
			return invalid("ntb needs positive qMaxSum and qMaxFrequency, got %d and %d", cfg.QMaxSum, cfg.QMaxFrequency)
		}
	case TypeChained:
		if len(cfg.BucketSizes) == 0 || len(cfg.BucketSizes) != len(cfg.BucketMaxFreqs) {
			return invalid("sgdlrnomntb needs bucketSizes and bucketMaxFreqs of equal, non-zero length")
		}
		for i, n := range cfg.BucketSizes {
			if n <= 0 || cfg.BucketMaxFreqs[i] <= 0 {
				return invalid("bucket %d must have positive size and max frequency", i)
			}
			if i > 0 && n < cfg.BucketSizes[i-1] {
				return invalid("bucketSizes must be ascending, got %v", cfg.BucketSizes)
			}
		}
		if cfg.TrainAfter <= 0 {
			return invalid("sgdlrnomntb needs a positive trainAfter, got %d", cfg.TrainAfter)
		}
	default:
		return apperrors.Newf(apperrors.ErrUnknownStrategy, apperrors.ExitUsage,
			"%q, must be one of %s", cfg.Type, strings.Join(Types, ", "))
	}
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
