package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTextArgLiteral(t *testing.T) {
	got, err := readTextArg("unlimited liability for all damages")
	require.NoError(t, err)
	assert.Equal(t, "unlimited liability for all damages", got)
}

func TestReadTextArgFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clause.txt")
	require.NoError(t, os.WriteFile(path, []byte("payment due net 30"), 0o600))

	got, err := readTextArg(path)
	require.NoError(t, err)
	assert.Equal(t, "payment due net 30", got)
}

func TestReadRecordArg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	content := `{
  "contract_name": "MSA-2024-001",
  "raw_text": "This agreement may be terminated by either party.",
  "extracted_clauses": {"termination": ["terminated by either party"]},
  "entities": {"money": ["$10,000"]},
  "start_date": "2024-01-01"
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rec, err := readRecordArg(path)
	require.NoError(t, err)
	assert.Equal(t, "MSA-2024-001", rec.ContractName)
	assert.Equal(t, []string{"terminated by either party"}, rec.ExtractedClauses["termination"])
	assert.Equal(t, "2024-01-01", rec.StartDate)
}

func TestReadRecordArgRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	_, err := readRecordArg(path)
	assert.Error(t, err)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"train", "predict", "search", "compare", "add-clause", "info"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
