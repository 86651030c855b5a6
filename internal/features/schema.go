package features

import "sort"

// SchemaVersion identifies the feature vocabulary. Bump it whenever a
// feature is added, removed or renamed: a model trained on one schema must
// never be served rows from another.
const SchemaVersion = 1

// Fixed vocabularies behind the schema. These are constants of the
// extractor, never inferred from input data.
var (
	riskIndicators = []string{
		"unlimited", "irrevocable", "perpetual", "without cause",
		"penalty", "liquidated damages", "indemnify", "hold harmless",
	}

	keyClauseTypes = []string{"termination", "payment", "sla", "penalty", "renewal"}

	entityTypes = []string{"dates", "money", "organizations", "locations"}

	definitionPhrases = []string{"means", "shall mean", "defined as"}
)

// schema is the closed set of feature names, sorted alphabetically. Built
// once at init; Extract fills exactly these keys and nothing else, which
// keeps the tabular column order identical between training and inference.
var schema []string

func init() {
	names := []string{
		"text_length",
		"word_count",
		"sentence_count",
		"avg_word_length",
		"avg_sentence_length",
		"total_clauses",
		"max_money_value",
		"avg_money_value",
		"section_count",
		"has_tables",
		"definition_count",
		"contract_duration_days",
		"contract_duration_years",
	}
	for _, ind := range riskIndicators {
		names = append(names, indicatorFeature(ind))
	}
	for _, ct := range keyClauseTypes {
		names = append(names, "has_"+ct+"_clause", ct+"_count")
	}
	for _, et := range entityTypes {
		names = append(names, et+"_count")
	}
	sort.Strings(names)
	schema = names
}

// Names returns the feature vocabulary in its fixed alphabetical order.
func Names() []string {
	out := make([]string, len(schema))
	copy(out, schema)
	return out
}
