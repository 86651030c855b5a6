package main

import (
	"github.com/spf13/cobra"
)

var compareMode string

var compareCmd = &cobra.Command{
	Use:   "compare <textA> <textB>",
	Short: "Compare two contract texts for similarity",
	Long: `Compare two contract texts. Arguments may be file paths, literal
text, or - for stdin (at most one).

Modes:
  overall  one similarity score for the whole documents (default)
  clauses  split both texts into provisions and align each provision in
           the first text with its best match in the second

Examples:
  riskcore compare old_msa.txt new_msa.txt
  riskcore compare old_msa.txt new_msa.txt --mode clauses`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareMode, "mode", "overall", "comparison mode: overall or clauses")
}

func runCompare(cmd *cobra.Command, args []string) error {
	textA, err := readTextArg(args[0])
	if err != nil {
		return err
	}
	textB, err := readTextArg(args[1])
	if err != nil {
		return err
	}

	reg, _, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := reg.ClauseStore().Compare(cmd.Context(), textA, textB, compareMode)
	if err != nil {
		return err
	}
	return printJSON(result)
}
