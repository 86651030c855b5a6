package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	clauseType   string
	clauseSource string
	clauseRisk   string
	clauseTags   []string
)

var addClauseCmd = &cobra.Command{
	Use:   "add-clause <text>",
	Short: "Add a clause to the similarity index",
	Long: `Embed a clause and append it to the similarity index, then persist
the index snapshot to disk. The text argument may be a file path, literal
text, or - for stdin.

Examples:
  riskcore add-clause "Either party may terminate with 30 days notice." \
    --type termination --source msa_2024.pdf --risk LOW
  riskcore add-clause clause.txt --type indemnification --risk HIGH --tag reviewed`,
	Args: cobra.ExactArgs(1),
	RunE: runAddClause,
}

func init() {
	addClauseCmd.Flags().StringVar(&clauseType, "type", "", "clause type (termination, indemnification, ...)")
	addClauseCmd.Flags().StringVar(&clauseSource, "source", "", "source contract name")
	addClauseCmd.Flags().StringVar(&clauseRisk, "risk", "", "risk level (LOW, MEDIUM, HIGH)")
	addClauseCmd.Flags().StringArrayVar(&clauseTags, "tag", nil, "tag (repeatable)")
}

func runAddClause(cmd *cobra.Command, args []string) error {
	text, err := readTextArg(args[0])
	if err != nil {
		return err
	}

	reg, logger, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	store := reg.ClauseStore()

	id, err := store.Add(ctx, text, clauseType, clauseSource, clauseRisk, clauseTags)
	if err != nil {
		return err
	}
	if err := store.Save(ctx); err != nil {
		return err
	}

	logger.Info("clause added",
		zap.Int("id", id),
		zap.String("clause_type", clauseType))
	return printJSON(struct {
		ID           int `json:"clause_id"`
		TotalClauses int `json:"total_clauses"`
	}{ID: id, TotalClauses: store.GetStats().TotalClauses})
}
