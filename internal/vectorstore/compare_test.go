package vectorstore

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareOverall(t *testing.T) {
	s := newTestStore(t, hashEmbedder{})
	ctx := context.Background()

	text := "This master services agreement governs all statements of work between the parties."

	same, err := s.Compare(ctx, text, text, CompareOverall)
	require.NoError(t, err)
	assert.Equal(t, CompareOverall, same.ComparisonType)
	assert.InDelta(t, 1.0, same.SimilarityScore, 1e-3)
	assert.Equal(t, "nearly identical templates", same.Interpretation)

	different, err := s.Compare(ctx, text, "Bananas are yellow fruit grown in tropical climates worldwide.", CompareOverall)
	require.NoError(t, err)
	assert.Less(t, different.SimilarityScore, same.SimilarityScore)
}

func TestCompareDefaultsToOverall(t *testing.T) {
	s := newTestStore(t, hashEmbedder{})
	result, err := s.Compare(context.Background(), "some text here", "some text here", "")
	require.NoError(t, err)
	assert.Equal(t, CompareOverall, result.ComparisonType)
}

func TestCompareUnknownMode(t *testing.T) {
	s := newTestStore(t, hashEmbedder{})
	_, err := s.Compare(context.Background(), "a", "b", "paragraphs")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCompareClauses(t *testing.T) {
	s := newTestStore(t, hashEmbedder{})
	ctx := context.Background()

	contractA := "Either party may terminate this agreement with thirty days written notice. " +
		"Payment is due within thirty days of receipt of a valid invoice. " +
		"The vendor shall maintain insurance coverage throughout the term."
	contractB := "Either party may terminate this agreement with thirty days written notice. " +
		"Payment is due within sixty days of receipt of a valid invoice."

	result, err := s.Compare(ctx, contractA, contractB, CompareClauses)
	require.NoError(t, err)
	assert.Equal(t, CompareClauses, result.ComparisonType)
	assert.NotEmpty(t, result.ClausePairs)
	assert.Equal(t, len(result.ClausePairs), result.NumClausesCompared)
	assert.Greater(t, result.SimilarityScore, compareRelevanceFloor)

	// The identical termination clause must match itself.
	first := result.ClausePairs[0]
	assert.Contains(t, first.Clause, "terminate")
	assert.InDelta(t, 1.0, first.Similarity, 1e-3)

	// Every kept pair clears the relevance floor.
	for _, pair := range result.ClausePairs {
		assert.Greater(t, pair.Similarity, compareRelevanceFloor)
	}
}

func TestCompareClausesNoSubstantialChunks(t *testing.T) {
	s := newTestStore(t, hashEmbedder{})

	result, err := s.Compare(context.Background(), "Too short.", "Also short.", CompareClauses)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.SimilarityScore)
	assert.Equal(t, 0, result.NumClausesCompared)
	assert.Empty(t, result.ClausePairs)
}

func TestSplitClauses(t *testing.T) {
	text := "Short. This sentence is comfortably longer than thirty characters! " +
		"Another substantial sentence follows the exclamation mark? tiny."
	chunks := splitClauses(text)

	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0], "This sentence"))
	assert.True(t, strings.HasPrefix(chunks[1], "Another substantial"))
}

func TestSplitClausesBoundsDecimalNumbers(t *testing.T) {
	text := "The fee increases by 2.5 percent annually as described in this clause."
	chunks := splitClauses(text)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "2.5 percent")
}

func TestInterpretSimilarityBands(t *testing.T) {
	assert.Equal(t, "nearly identical templates", interpretSimilarity(0.95))
	assert.Equal(t, "high similarity", interpretSimilarity(0.8))
	assert.Equal(t, "structural similarity", interpretSimilarity(0.6))
	assert.Equal(t, "low similarity", interpretSimilarity(0.4))
	assert.Equal(t, "substantially different", interpretSimilarity(0.1))
}
