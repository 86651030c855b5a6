package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var predictSave bool

var predictCmd = &cobra.Command{
	Use:   "predict <record.json>",
	Short: "Score a contract's risk",
	Long: `Score a contract record for legal risk. The record is a JSON file
with the extracted contract content: raw text, clauses by type, entities
and optional start/end dates. Pass - to read the record from stdin.

The trained model is used when available; otherwise a rule-based keyword
fallback produces the score.

Examples:
  riskcore predict contract.json
  cat contract.json | riskcore predict -
  riskcore predict contract.json --save`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().BoolVar(&predictSave, "save", false, "store the scored contract in the database")
}

func runPredict(cmd *cobra.Command, args []string) error {
	rec, err := readRecordArg(args[0])
	if err != nil {
		return err
	}

	reg, logger, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	pred := reg.Classifier().Predict(ctx, rec)

	if predictSave {
		repo := reg.Contracts()
		if repo == nil {
			return fmt.Errorf("--save requires a configured database (storage.dsn)")
		}
		rec.RiskLevel = pred.RiskLevel
		score := float64(pred.RiskScore)
		rec.RiskScore = &score
		id, err := repo.Save(ctx, rec)
		if err != nil {
			return err
		}
		logger.Info("stored scored contract",
			zap.String("id", id.String()),
			zap.String("contract", rec.ContractName))
	}

	return printJSON(pred)
}
