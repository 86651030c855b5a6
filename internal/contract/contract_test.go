package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskLow},
		{39.9, RiskLow},
		{40, RiskMedium},
		{74.9, RiskMedium},
		{75, RiskHigh},
		{100, RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFromScore(tt.score), "score %v", tt.score)
	}
}

func TestRecordLabel(t *testing.T) {
	score := 80.0

	rec := Record{RiskLevel: RiskMedium, RiskScore: &score}
	level, ok := rec.Label()
	assert.True(t, ok)
	assert.Equal(t, RiskMedium, level, "explicit level wins over score")

	rec = Record{RiskScore: &score}
	level, ok = rec.Label()
	assert.True(t, ok)
	assert.Equal(t, RiskHigh, level)

	rec = Record{RiskLevel: RiskUnknown}
	_, ok = rec.Label()
	assert.False(t, ok)

	_, ok = Record{}.Label()
	assert.False(t, ok)
}

func TestLevelsVocabularyIsStable(t *testing.T) {
	assert.Equal(t, []RiskLevel{RiskLow, RiskMedium, RiskHigh}, Levels())
}

func TestDangerWeight(t *testing.T) {
	assert.Equal(t, 15.0, DangerWeight(RiskLow))
	assert.Equal(t, 50.0, DangerWeight(RiskMedium))
	assert.Equal(t, 90.0, DangerWeight(RiskHigh))
	assert.Equal(t, 15.0, DangerWeight(RiskUnknown))
}
