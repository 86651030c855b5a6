package vectorstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedStore(t *testing.T, dir string) {
	t.Helper()
	s, err := NewClauseStore(Config{DataDir: dir}, hashEmbedder{}, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	clauses := []struct {
		text, clauseType, risk string
	}{
		{"Either party may terminate this agreement with thirty days written notice.", "termination", "LOW"},
		{"The customer shall pay liquidated damages for each week of delay.", "penalty", "HIGH"},
		{"Payment is due net thirty days from the invoice date.", "payment", "MEDIUM"},
	}
	for _, c := range clauses {
		_, err := s.Add(ctx, c.text, c.clauseType, "seed.pdf", c.risk, nil)
		require.NoError(t, err)
	}
	require.NoError(t, s.Save(ctx))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir)

	restored, err := NewClauseStore(Config{DataDir: dir}, hashEmbedder{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, restored.GetStats().TotalClauses)

	// The restored index must reproduce identical search results.
	fresh, err := NewClauseStore(Config{DataDir: t.TempDir()}, hashEmbedder{}, zap.NewNop())
	require.NoError(t, err)
	seedStoreInto(t, fresh)

	query := SearchQuery{Text: "terminate the agreement with thirty days notice", Threshold: 0.2, TopK: 5}
	got, err := restored.Search(context.Background(), query)
	require.NoError(t, err)
	want, err := fresh.Search(context.Background(), query)
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Text, got[i].Text)
		assert.Equal(t, want[i].Similarity, got[i].Similarity)
		assert.Equal(t, want[i].ClauseType, got[i].ClauseType)
		assert.Equal(t, want[i].ID, got[i].ID)
	}
}

func seedStoreInto(t *testing.T, s *ClauseStore) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []struct {
		text, clauseType, risk string
	}{
		{"Either party may terminate this agreement with thirty days written notice.", "termination", "LOW"},
		{"The customer shall pay liquidated damages for each week of delay.", "penalty", "HIGH"},
		{"Payment is due net thirty days from the invoice date.", "payment", "MEDIUM"},
	} {
		_, err := s.Add(ctx, c.text, c.clauseType, "seed.pdf", c.risk, nil)
		require.NoError(t, err)
	}
}

func TestSaveEmptyIndexIsANoOp(t *testing.T) {
	dir := t.TempDir()
	s, err := NewClauseStore(Config{DataDir: dir}, hashEmbedder{}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadRejectsPartialSnapshot(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir)

	require.NoError(t, os.Remove(filepath.Join(dir, textsFile)))

	_, err := NewClauseStore(Config{DataDir: dir}, hashEmbedder{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestLoadRejectsMismatchedLengths(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir)

	// Truncate the texts artifact to one entry while embeddings and
	// metadata keep three.
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, textsFile),
		[]byte(`["only one clause text remains here"]`), 0o644))

	_, err := NewClauseStore(Config{DataDir: dir}, hashEmbedder{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestLoadRejectsCorruptMetadata(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFile), []byte("{not json"), 0o644))

	_, err := NewClauseStore(Config{DataDir: dir}, hashEmbedder{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
	assert.Len(t, entries, 3)
}
