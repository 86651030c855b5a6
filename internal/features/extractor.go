// Package features converts contract records into fixed-schema numeric
// feature vectors for the risk classifier.
//
// Extraction is a pure function of the input record: same record, same
// extractor version, bit-identical vector. The classifier is trained on a
// fixed column ordering, so any nondeterminism here would silently
// misalign training and inference.
package features

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/clauselens/riskcore/internal/contract"
)

// Defaults applied when start/end dates are missing or unparseable.
const (
	defaultDurationDays  = 365.0
	defaultDurationYears = 1.0
)

// Extractor extracts feature vectors from contract records. It holds only
// precompiled patterns; it is stateless and safe for concurrent use.
type Extractor struct {
	sentenceSplit *regexp.Regexp
	numberExtract *regexp.Regexp
	sectionHeader *regexp.Regexp
}

// NewExtractor creates an Extractor with precompiled patterns.
func NewExtractor() *Extractor {
	return &Extractor{
		sentenceSplit: regexp.MustCompile(`[.!?]+`),
		numberExtract: regexp.MustCompile(`\d+\.?\d*`),
		sectionHeader: regexp.MustCompile(`\n\d+\.`),
	}
}

// Extract computes the feature vector for a record. It never fails:
// missing optional fields get documented defaults.
func (e *Extractor) Extract(rec contract.Record) Vector {
	values := make(map[string]float64, len(schema))

	e.textFeatures(rec.RawText, values)
	e.clauseFeatures(rec.ExtractedClauses, values)
	e.entityFeatures(rec.Entities, values)
	e.structuralFeatures(rec.RawText, values)
	e.temporalFeatures(rec.StartDate, rec.EndDate, values)

	return Vector{values: values}
}

func indicatorFeature(indicator string) string {
	return "contains_" + strings.ReplaceAll(indicator, " ", "_")
}

func (e *Extractor) textFeatures(text string, values map[string]float64) {
	words := strings.Fields(text)
	wordCount := len(words)
	sentenceCount := len(e.sentenceSplit.Split(text, -1))

	values["text_length"] = float64(len(text))
	values["word_count"] = float64(wordCount)
	values["sentence_count"] = float64(sentenceCount)

	if wordCount > 0 {
		lengths := make([]float64, wordCount)
		for i, w := range words {
			lengths[i] = float64(len(w))
		}
		values["avg_word_length"] = stat.Mean(lengths, nil)
		values["avg_sentence_length"] = float64(wordCount) / float64(max(1, sentenceCount))
	} else {
		values["avg_word_length"] = 0
		values["avg_sentence_length"] = 0
	}

	lower := strings.ToLower(text)
	for _, indicator := range riskIndicators {
		flag := 0.0
		if strings.Contains(lower, indicator) {
			flag = 1.0
		}
		values[indicatorFeature(indicator)] = flag
	}
}

func (e *Extractor) clauseFeatures(clauses map[string][]string, values map[string]float64) {
	total := 0
	for _, clauseType := range keyClauseTypes {
		count := len(clauses[clauseType])
		flag := 0.0
		if count > 0 {
			flag = 1.0
		}
		values["has_"+clauseType+"_clause"] = flag
		values[clauseType+"_count"] = float64(count)
		total += count
	}
	values["total_clauses"] = float64(total)
}

func (e *Extractor) entityFeatures(entities map[string][]string, values map[string]float64) {
	for _, entityType := range entityTypes {
		values[entityType+"_count"] = float64(len(entities[entityType]))
	}

	var moneyValues []float64
	for _, moneyStr := range entities["money"] {
		for _, num := range e.numberExtract.FindAllString(moneyStr, -1) {
			if v, err := strconv.ParseFloat(num, 64); err == nil {
				moneyValues = append(moneyValues, v)
			}
		}
	}

	if len(moneyValues) > 0 {
		maxVal := moneyValues[0]
		for _, v := range moneyValues[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		values["max_money_value"] = maxVal
		values["avg_money_value"] = stat.Mean(moneyValues, nil)
	} else {
		values["max_money_value"] = 0
		values["avg_money_value"] = 0
	}
}

func (e *Extractor) structuralFeatures(text string, values map[string]float64) {
	values["section_count"] = float64(len(e.sectionHeader.FindAllString(text, -1)))

	hasTables := 0.0
	if strings.Contains(text, "|") && strings.Contains(text, "---") {
		hasTables = 1.0
	}
	values["has_tables"] = hasTables

	lower := strings.ToLower(text)
	definitions := 0
	for _, phrase := range definitionPhrases {
		definitions += strings.Count(lower, phrase)
	}
	values["definition_count"] = float64(definitions)
}

func (e *Extractor) temporalFeatures(startDate, endDate string, values map[string]float64) {
	values["contract_duration_days"] = defaultDurationDays
	values["contract_duration_years"] = defaultDurationYears

	if startDate == "" || endDate == "" {
		return
	}
	start, err := parseDate(startDate)
	if err != nil {
		return
	}
	end, err := parseDate(endDate)
	if err != nil {
		return
	}

	days := int(end.Sub(start).Hours() / 24)
	// Negative or zero durations are data errors; clamp to one day.
	days = max(1, days)

	values["contract_duration_days"] = float64(days)
	values["contract_duration_years"] = float64(days) / 365.25
}

// parseDate accepts plain dates and ISO strings with a time component,
// with or without a timezone offset.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "T") {
		return time.Parse("2006-01-02", s)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
