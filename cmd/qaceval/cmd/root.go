package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/logger"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:           "qaceval",
	Short:         "Evaluate query auto-completion ranking strategies",
	Long:          "Replays a time-ordered query log through a completion strategy and scores every suggestion list by reciprocal rank.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(runsCmd)
}

// loadConfig reads the config file and sets up logging from it and the
// persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if _, err := logger.ParseLevel(cfg.Logging.Level); err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, err.Error())
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}
