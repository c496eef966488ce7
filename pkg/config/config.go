// Package config loads and validates experiment configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Experiment, Data, Evaluation, Output, Postgres, Kafka, Redis,
// Checkpoint, etc.).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

// DateLayout is the layout used for start and learn-before dates.
const DateLayout = "2006-01-02"

// Config is the top-level application configuration.
type Config struct {
	Experiment ExperimentConfig `yaml:"experiment"`
	Data       DataConfig       `yaml:"data"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Output     OutputConfig     `yaml:"output"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ExperimentConfig selects the strategy and its positional parameters.
type ExperimentConfig struct {
	Collection     string  `yaml:"collection"`
	PrefixLength   int     `yaml:"prefixLength"`
	Type           string  `yaml:"type"`
	StartDate      string  `yaml:"startDate"`
	LearnBefore    string  `yaml:"learnBefore"`
	WindowDays     int     `yaml:"windowDays"`
	QMaxSum        int     `yaml:"qMaxSum"`
	QMaxFrequency  int     `yaml:"qMaxFrequency"`
	BucketSizes    []int   `yaml:"bucketSizes"`
	BucketMaxFreqs []int   `yaml:"bucketMaxFreqs"`
	TrainAfter     int     `yaml:"trainAfter"`
	BaseBucketSize int     `yaml:"baseBucketSize"`
	LearningRate   float64 `yaml:"learningRate"`
	MaxQueries     int     `yaml:"maxQueries"`
}

// Start parses StartDate. A zero time is returned when it is unset.
func (e ExperimentConfig) Start() (time.Time, error) {
	return parseDate(e.StartDate)
}

// LearnBeforeTime parses LearnBefore. A zero time disables the learning period.
func (e ExperimentConfig) LearnBeforeTime() (time.Time, error) {
	return parseDate(e.LearnBefore)
}

// DataConfig locates input and output files. Empty file paths are derived
// from Dir and the experiment collection.
type DataConfig struct {
	Dir           string `yaml:"dir"`
	QueryLog      string `yaml:"queryLog"`
	SideChannel   string `yaml:"sideChannel"`
	OneOffQueries string `yaml:"oneOffQueries"`
}

// QueryLogPath returns the canonical query log for the collection.
func (d DataConfig) QueryLogPath(collection string) string {
	if d.QueryLog != "" {
		return d.QueryLog
	}
	return filepath.Join(d.Dir, collection+"-queries.txt")
}

// SideChannelPath returns the interleaved input file for the collection.
func (d DataConfig) SideChannelPath(collection string) string {
	if d.SideChannel != "" {
		return d.SideChannel
	}
	return filepath.Join(d.Dir, collection+"-interleavedinput.txt")
}

// OneOffPath returns the one-off query list for the collection.
func (d DataConfig) OneOffPath(collection string) string {
	if d.OneOffQueries != "" {
		return d.OneOffQueries
	}
	return filepath.Join(d.Dir, collection+"-oneoffqueries.txt")
}

// OutputPath returns the evaluation output file for a run.
func (d DataConfig) OutputPath(prefixLength int, runID string) string {
	return filepath.Join(d.Dir, fmt.Sprintf("%dchars-%s.txt", prefixLength, runID))
}

// EvaluationConfig controls the scoring worker pool.
type EvaluationConfig struct {
	Workers       int  `yaml:"workers"`
	QueueDepth    int  `yaml:"queueDepth"`
	Concurrent    bool `yaml:"concurrent"`
	TopK          int  `yaml:"topK"`
	ProgressEvery int  `yaml:"progressEvery"`
}

// OutputConfig selects where scored records are written.
type OutputConfig struct {
	Driver        string        `yaml:"driver"`
	BatchSize     int           `yaml:"batchSize"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	ResultsTopic string   `yaml:"resultsTopic"`
}

// RedisConfig holds Redis connection parameters for the run registry.
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	PoolSize  int           `yaml:"poolSize"`
	KeyPrefix string        `yaml:"keyPrefix"`
	LockTTL   time.Duration `yaml:"lockTTL"`
}

// CheckpointConfig controls persistence of the online model.
type CheckpointConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Restore bool   `yaml:"restore"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config with defaults for a local experiment run.
func Default() *Config {
	return &Config{
		Experiment: ExperimentConfig{
			Collection:     "aol",
			PrefixLength:   2,
			Type:           "bl-a",
			BaseBucketSize: 200,
			LearningRate:   0.01,
		},
		Data: DataConfig{
			Dir: "data",
		},
		Evaluation: EvaluationConfig{
			Workers:       6,
			QueueDepth:    1000,
			Concurrent:    true,
			TopK:          4,
			ProgressEvery: 10000,
		},
		Output: OutputConfig{
			Driver:        "file",
			BatchSize:     500,
			FlushInterval: 5 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "qaceval",
			User:            "qaceval",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:      []string{"localhost:9092"},
			ResultsTopic: "qac-evaluation-results",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  4,
			KeyPrefix: "qaceval:",
			LockTTL:   24 * time.Hour,
		},
		Checkpoint: CheckpointConfig{
			Path: "data/model.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// Validate checks the settings shared by every experiment type. Strategy
// specific parameters are validated when the strategy is built.
func (c *Config) Validate() error {
	if c.Experiment.Collection == "" {
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "experiment.collection is required")
	}
	if c.Experiment.PrefixLength <= 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
			"experiment.prefixLength must be positive, got %d", c.Experiment.PrefixLength)
	}
	if _, err := c.Experiment.Start(); err != nil {
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "experiment.startDate: %v", err)
	}
	if _, err := c.Experiment.LearnBeforeTime(); err != nil {
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "experiment.learnBefore: %v", err)
	}
	if c.Evaluation.Concurrent && c.Evaluation.Workers <= 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
			"evaluation.workers must be positive, got %d", c.Evaluation.Workers)
	}
	if c.Evaluation.TopK <= 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
			"evaluation.topK must be positive, got %d", c.Evaluation.TopK)
	}
	switch c.Output.Driver {
	case "file", "debug", "postgres", "kafka":
	default:
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
			"output.driver must be one of file, debug, postgres, kafka; got %q", c.Output.Driver)
	}
	return nil
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, v)
}

// applyEnvOverrides reads QE_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QE_COLLECTION"); v != "" {
		cfg.Experiment.Collection = v
	}
	if v := os.Getenv("QE_PREFIX_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Experiment.PrefixLength = n
		}
	}
	if v := os.Getenv("QE_EXPERIMENT_TYPE"); v != "" {
		cfg.Experiment.Type = v
	}
	if v := os.Getenv("QE_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("QE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Evaluation.Workers = n
		}
	}
	if v := os.Getenv("QE_CONCURRENT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Evaluation.Concurrent = b
		}
	}
	if v := os.Getenv("QE_OUTPUT_DRIVER"); v != "" {
		cfg.Output.Driver = v
	}
	if v := os.Getenv("QE_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("QE_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("QE_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("QE_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("QE_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("QE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("QE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("QE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("QE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("QE_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
