package vectorstore

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// hashEmbedder is a deterministic bag-of-words embedder for tests: no
// model download, identical text always embeds identically, and token
// overlap produces positive cosine similarity.
type hashEmbedder struct{}

func (hashEmbedder) embed(text string) []float32 {
	vec := make([]float32, 64)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?()\"'")
		if tok == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%64]++
	}
	return vec
}

func (e hashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

// stubEmbedder returns canned vectors for known texts and falls back to
// hashing, letting tests pin exact similarity scores.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (e stubEmbedder) embed(text string) []float32 {
	if v, ok := e.vectors[text]; ok {
		return v
	}
	return hashEmbedder{}.embed(text)
}

func (e stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func newTestStore(t *testing.T, embedder Embedder) *ClauseStore {
	t.Helper()
	s, err := NewClauseStore(Config{DataDir: t.TempDir()}, embedder, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	s := newTestStore(t, hashEmbedder{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		text := fmt.Sprintf("Clause number %d with enough text to matter.", i)
		id, err := s.Add(ctx, text, "payment", "msa.pdf", "LOW", nil)
		require.NoError(t, err)
		assert.Equal(t, i, id)
	}

	require.Len(t, s.texts, 5)
	require.Len(t, s.metadata, 5)
	require.Len(t, s.vectors, 5)
	for i, meta := range s.metadata {
		assert.Equal(t, i, meta.ID)
		assert.Equal(t, len(s.texts[i]), meta.LengthChars, "metadata[i] must describe texts[i]")
		assert.NotNil(t, meta.Tags)
	}
}

func TestAddBlankTextIsANoOp(t *testing.T) {
	s := newTestStore(t, hashEmbedder{})

	for _, text := range []string{"", "   ", "\n\t"} {
		id, err := s.Add(context.Background(), text, "sla", "x", "LOW", nil)
		require.NoError(t, err)
		assert.Equal(t, BlankClauseID, id)
	}
	assert.Equal(t, 0, s.GetStats().TotalClauses)
}

func TestUnavailableStore(t *testing.T) {
	s, err := NewClauseStore(Config{DataDir: t.TempDir()}, nil, zap.NewNop())
	require.NoError(t, err, "a missing embedder must not fail construction")
	assert.False(t, s.Available())

	_, err = s.Add(context.Background(), "some clause text", "sla", "x", "LOW", nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = s.Search(context.Background(), SearchQuery{Text: "query"})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = s.Compare(context.Background(), "a", "b", CompareOverall)
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.False(t, s.GetStats().Available)
}

func TestSearchTerminationClauseScenario(t *testing.T) {
	stored := "Either party may terminate this agreement with thirty (30) days written notice."
	query := "terminate with 30 days notice"

	emb := stubEmbedder{vectors: map[string][]float32{
		stored: {1, 0.25, 0},
		query:  {1, 0, 0},
	}}
	s := newTestStore(t, emb)
	ctx := context.Background()

	_, err := s.Add(ctx, stored, "termination", "msa.pdf", "LOW", []string{"notice"})
	require.NoError(t, err)
	_, err = s.Add(ctx, "Payment is due within forty five days of invoice receipt.", "payment", "msa.pdf", "MEDIUM", nil)
	require.NoError(t, err)

	results, err := s.Search(ctx, SearchQuery{Text: query, Threshold: 0.5})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, stored, top.Text)
	assert.Equal(t, "termination", top.ClauseType)
	assert.GreaterOrEqual(t, top.Similarity, 0.75, "must rank at least STRONG")
	assert.Contains(t, []MatchType{MatchStrong, MatchVeryStrong, MatchExact}, top.MatchType)
}

func TestSearchFiltersAndDedup(t *testing.T) {
	s := newTestStore(t, hashEmbedder{})
	ctx := context.Background()

	text := "Service credits accrue for every hour of downtime beyond the monthly allowance."
	_, err := s.Add(ctx, text, "sla", "a.pdf", "HIGH", nil)
	require.NoError(t, err)
	_, err = s.Add(ctx, text, "sla", "b.pdf", "LOW", nil)
	require.NoError(t, err)

	// Unfiltered: identical text deduplicates to one hit.
	results, err := s.Search(ctx, SearchQuery{Text: text, Threshold: 0.5})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// Risk filter selects the matching copy.
	results, err = s.Search(ctx, SearchQuery{Text: text, Threshold: 0.5, RiskLevel: "LOW"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b.pdf", results[0].SourceContract)

	// Clause type filter excludes everything.
	results, err = s.Search(ctx, SearchQuery{Text: text, Threshold: 0.5, ClauseType: "payment"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchThresholdMonotonicity(t *testing.T) {
	s := newTestStore(t, hashEmbedder{})
	ctx := context.Background()

	clauses := []string{
		"Either party may terminate this agreement with thirty days notice.",
		"The supplier may terminate this agreement with sixty days notice.",
		"Termination requires written notice from either party in advance.",
		"Payment is due net thirty days from the date of a valid invoice.",
		"All invoices are payable in euros within forty five days.",
	}
	for _, c := range clauses {
		_, err := s.Add(ctx, c, "misc", "x.pdf", "MEDIUM", nil)
		require.NoError(t, err)
	}

	query := "terminate the agreement with thirty days notice"
	prev := len(clauses) + 1
	for _, threshold := range []float64{0.05, 0.2, 0.4, 0.6, 0.8, 0.95} {
		results, err := s.Search(ctx, SearchQuery{Text: query, Threshold: threshold, TopK: 10})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(results), prev, "threshold %v", threshold)
		prev = len(results)

		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
		}
	}
}

func TestSearchTieBreaksByInsertionOrder(t *testing.T) {
	vec := []float32{0, 1, 0}
	emb := stubEmbedder{vectors: map[string][]float32{
		"first clause with identical embedding":  vec,
		"second clause with identical embedding": vec,
		"tie query": vec,
	}}
	s := newTestStore(t, emb)
	ctx := context.Background()

	_, err := s.Add(ctx, "first clause with identical embedding", "misc", "x", "LOW", nil)
	require.NoError(t, err)
	_, err = s.Add(ctx, "second clause with identical embedding", "misc", "x", "LOW", nil)
	require.NoError(t, err)

	results, err := s.Search(ctx, SearchQuery{Text: "tie query", Threshold: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].ID)
	assert.Equal(t, 1, results[1].ID)
}

func TestSearchEmptyIndex(t *testing.T) {
	s := newTestStore(t, hashEmbedder{})
	results, err := s.Search(context.Background(), SearchQuery{Text: "anything"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchTopKClamped(t *testing.T) {
	s := newTestStore(t, hashEmbedder{})
	ctx := context.Background()
	text := "A clause about termination rights and notice periods for both parties."
	_, err := s.Add(ctx, text, "termination", "x", "LOW", nil)
	require.NoError(t, err)

	// Absurd TopK values must not fail.
	for _, k := range []int{-5, 0, 1, 1000} {
		_, err := s.Search(ctx, SearchQuery{Text: text, TopK: k, Threshold: 0.1})
		require.NoError(t, err)
	}
}

func TestMatchTypeBandsAreMonotonic(t *testing.T) {
	assert.Equal(t, MatchExact, matchTypeFor(0.96))
	assert.Equal(t, MatchVeryStrong, matchTypeFor(0.90))
	assert.Equal(t, MatchStrong, matchTypeFor(0.80))
	assert.Equal(t, MatchModerate, matchTypeFor(0.70))
	assert.Equal(t, MatchModerate, matchTypeFor(0.0))
}

func TestNormalize(t *testing.T) {
	vec := normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(vec[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(vec[1]), 1e-6)
	assert.InDelta(t, 1.0, dot(vec, vec), 1e-6)

	zero := normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
