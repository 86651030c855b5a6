package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clauselens/riskcore/internal/risk"
	"github.com/clauselens/riskcore/internal/storage"
	"github.com/clauselens/riskcore/internal/vectorstore"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show model, index and database status",
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, _ []string) error {
	reg, logger, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	out := struct {
		Model    risk.ModelInfo         `json:"model"`
		Index    vectorstore.Stats      `json:"clause_index"`
		Database *storage.DatabaseStats `json:"database,omitempty"`
	}{
		Model: reg.Classifier().GetModelInfo(),
		Index: reg.ClauseStore().GetStats(),
	}

	if repo := reg.Contracts(); repo != nil {
		stats, err := repo.Stats(cmd.Context())
		if err != nil {
			logger.Warn("could not read database stats", zap.Error(err))
		} else {
			out.Database = &stats
		}
	}

	return printJSON(out)
}
