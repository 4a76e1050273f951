// Package cli implements the opengtap command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	opengtap "github.com/devchoca/OpenGTAP"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose    bool
	ConfigPath string

	config *Config
	logger *zap.Logger
}

// Config holds conversion defaults loadable from a YAML file.
type Config struct {
	SparseThreshold float64 `yaml:"sparse_threshold"`
	Verbose         bool    `yaml:"verbose"`
}

// defaultConfig returns the built-in defaults.
func defaultConfig() *Config {
	return &Config{SparseThreshold: opengtap.DefaultSparseThreshold}
}

// loadConfig reads the YAML config file, falling back to defaults when no
// path is given.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// NewRootCommand creates the root command for the opengtap CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "opengtap",
		Short:         "Read and convert GEMPACK header array files",
		Long:          "Read, validate and convert header array (.har), solution (.sl4) and HARX (.harx) files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.config = config
			if config.Verbose {
				opts.Verbose = true
			}
			opts.logger = newLogger(opts.Verbose)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output with validation messages")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(NewReadCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))

	return cmd
}

// newLogger creates the CLI logger: a development logger when verbose,
// otherwise a no-op.
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
