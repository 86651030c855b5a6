package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain the risk classifier from historical contracts",
	Long: `Assemble labeled contracts from the database, retrain the risk
classifier, and atomically swap the new model into place.

Training is skipped (not failed) when fewer than 10 labeled contracts
exist or when all of them share a single risk level.

Examples:
  riskcore train
  riskcore train --config ./riskcore.yaml`,
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, _ []string) error {
	reg, logger, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	assembler := reg.Assembler()
	if assembler == nil {
		return fmt.Errorf("training requires a configured database (storage.dsn)")
	}

	ctx := cmd.Context()
	records, err := assembler.Assemble(ctx)
	if err != nil {
		return err
	}

	result, err := reg.Classifier().Train(ctx, records)
	if err != nil {
		return err
	}

	logger.Info("training finished",
		zap.String("status", string(result.Status)),
		zap.Float64("test_accuracy", result.TestAccuracy))
	return printJSON(result)
}
