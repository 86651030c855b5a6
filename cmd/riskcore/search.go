package main

import (
	"github.com/spf13/cobra"

	"github.com/clauselens/riskcore/internal/vectorstore"
)

var (
	searchClauseType string
	searchRiskLevel  string
	searchTopK       int
	searchThreshold  float64
)

var searchCmd = &cobra.Command{
	Use:   "search <query text>",
	Short: "Find clauses similar to a query",
	Long: `Search the clause index for text semantically similar to the query.
Results are ranked by similarity and can be filtered by clause type and
risk level.

Examples:
  riskcore search "either party may terminate with 30 days notice"
  riskcore search "limitation of liability" --type liability --risk HIGH
  riskcore search "payment terms" --top-k 5 --threshold 0.6`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchClauseType, "type", "", "filter by clause type")
	searchCmd.Flags().StringVar(&searchRiskLevel, "risk", "", "filter by risk level (LOW, MEDIUM, HIGH)")
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "maximum results (default 10, max 50)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum similarity (default 0.7)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	reg, _, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := reg.ClauseStore().Search(cmd.Context(), vectorstore.SearchQuery{
		Text:       args[0],
		ClauseType: searchClauseType,
		RiskLevel:  searchRiskLevel,
		TopK:       searchTopK,
		Threshold:  searchThreshold,
	})
	if err != nil {
		return err
	}

	return printJSON(struct {
		Query   string                     `json:"query"`
		Count   int                        `json:"count"`
		Results []vectorstore.SearchResult `json:"results"`
	}{Query: args[0], Count: len(results), Results: results})
}
