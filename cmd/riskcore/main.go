// Package main implements the riskcore CLI for contract risk scoring and
// clause similarity operations.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clauselens/riskcore/internal/config"
	"github.com/clauselens/riskcore/internal/contract"
	"github.com/clauselens/riskcore/internal/logging"
	"github.com/clauselens/riskcore/internal/services"
)

var (
	// configPath is the optional YAML config file.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "riskcore",
	Short: "Contract risk scoring and clause similarity engine",
	Long: `riskcore scores contracts for legal risk with a gradient boosting
classifier and finds similar clauses with an embedding index.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(addClauseCmd)
	rootCmd.AddCommand(infoCmd)
}

// setup loads configuration and wires the service registry. The returned
// close function flushes logs and releases the embedding provider.
func setup() (services.Registry, *zap.Logger, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, flushLogs, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	reg, closeServices, err := services.Bootstrap(cfg, logger)
	if err != nil {
		flushLogs()
		return nil, nil, nil, err
	}

	cleanup := func() {
		closeServices()
		flushLogs()
	}
	return reg, logger, cleanup, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readTextArg resolves a positional argument to text content: "-" reads
// stdin, an existing file path reads the file, anything else is taken as
// literal text.
func readTextArg(arg string) (string, error) {
	if arg == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(content), nil
	}
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		content, err := os.ReadFile(arg)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", arg, err)
		}
		return string(content), nil
	}
	return arg, nil
}

// readRecordArg parses a contract record from a JSON file or stdin ("-").
func readRecordArg(arg string) (contract.Record, error) {
	var rec contract.Record

	var content []byte
	var err error
	if arg == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(arg)
	}
	if err != nil {
		return rec, fmt.Errorf("reading contract record: %w", err)
	}

	if err := json.Unmarshal(content, &rec); err != nil {
		return rec, fmt.Errorf("parsing contract record: %w", err)
	}
	return rec, nil
}
