// Package contract defines the shared data model for the risk engine:
// contract records, clause metadata, risk levels and the score calibration
// constants used by both training and inference.
package contract

import "time"

// RiskLevel is the ordinal label summarizing a contract's legal risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"

	// RiskUnknown marks records that have not been analyzed yet. Such
	// records are never eligible as training data.
	RiskUnknown RiskLevel = "UNKNOWN"
)

// Levels returns the fixed class vocabulary in encoder order. Training and
// inference both reference this constant so the class index space stays
// stable across retrains, even when a class is absent from a batch.
func Levels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh}
}

// Score thresholds mapping a continuous risk score to a level. Hand-tuned
// in the original calibration; not verified against real-world outcomes.
const (
	HighScoreThreshold   = 75.0
	MediumScoreThreshold = 40.0
)

// Danger weights used to collapse per-class probabilities into a single
// 0-100 score. Same caveat as the thresholds above.
const (
	DangerWeightLow    = 15.0
	DangerWeightMedium = 50.0
	DangerWeightHigh   = 90.0
)

// DangerWeight returns the danger weight for a level.
func DangerWeight(level RiskLevel) float64 {
	switch level {
	case RiskHigh:
		return DangerWeightHigh
	case RiskMedium:
		return DangerWeightMedium
	default:
		return DangerWeightLow
	}
}

// LevelFromScore derives the risk level from a 0-100 score. Predictions
// always derive their label through this function so label and score can
// never contradict each other.
func LevelFromScore(score float64) RiskLevel {
	switch {
	case score >= HighScoreThreshold:
		return RiskHigh
	case score >= MediumScoreThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Record is the immutable input shape consumed by feature extraction and
// prediction. Upstream collaborators (PDF extraction, NER, clause
// classification) populate it; the core never mutates it.
type Record struct {
	// ContractName identifies the source document.
	ContractName string `json:"contract_name"`

	// RawText is the full extracted contract text.
	RawText string `json:"raw_text"`

	// ExtractedClauses maps clause type (e.g. "termination") to the
	// clause texts found for that type, in document order.
	ExtractedClauses map[string][]string `json:"extracted_clauses"`

	// Entities maps entity type (dates, money, organizations, locations)
	// to the recognized spans, in document order.
	Entities map[string][]string `json:"entities"`

	// StartDate and EndDate are optional. They may arrive as plain dates
	// ("2024-01-01") or ISO strings with a time component; empty means
	// unknown.
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`

	// RiskLevel and RiskScore are present on historical records used for
	// training. RiskLevel takes precedence when both are set.
	RiskLevel RiskLevel `json:"risk_level,omitempty"`
	RiskScore *float64  `json:"risk_score,omitempty"`
}

// Label returns the training label for the record: the explicit level when
// present, otherwise the level derived from the score. The second return
// is false when the record carries neither.
func (r Record) Label() (RiskLevel, bool) {
	switch r.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh:
		return r.RiskLevel, true
	}
	if r.RiskScore != nil {
		return LevelFromScore(*r.RiskScore), true
	}
	return "", false
}

// Clause is the unit stored in the similarity index. IDs are assigned
// monotonically from insertion order and double as array indexes, so the
// store is append-only.
type Clause struct {
	ID             int       `json:"id"`
	ClauseType     string    `json:"clause_type"`
	SourceContract string    `json:"source_contract"`
	RiskLevel      string    `json:"risk_level"`
	Tags           []string  `json:"tags"`
	AddedDate      time.Time `json:"added_date"`
	LengthChars    int       `json:"length_chars"`
}
