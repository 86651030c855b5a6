package vectorstore

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/clauselens/riskcore/internal/contract"
)

// Snapshot artifact filenames under DataDir. The three files form one
// logical snapshot and must be loaded together.
const (
	embeddingsFile = "clause_embeddings.gob"
	metadataFile   = "clause_metadata.json"
	textsFile      = "clause_texts.json"
)

func (s *ClauseStore) artifactPaths() (embeddings, metadata, texts string) {
	return filepath.Join(s.dataDir, embeddingsFile),
		filepath.Join(s.dataDir, metadataFile),
		filepath.Join(s.dataDir, textsFile)
}

// Save persists the index as three parallel artifacts. Each artifact is
// written to a temporary path first and then swapped over the live file,
// so a crash mid-save never leaves a half-written artifact in place. A
// live file held open by another process is skipped with a warning rather
// than failing the whole save.
func (s *ClauseStore) Save(ctx context.Context) error {
	s.mu.RLock()
	vectors, metadata, texts := s.vectors, s.metadata, s.texts
	s.mu.RUnlock()

	if len(texts) == 0 {
		return nil
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrPersistence, s.dataDir, err)
	}

	embPath, metaPath, textsPath := s.artifactPaths()

	if err := writeGob(embPath+".tmp", vectors); err != nil {
		return err
	}
	if err := writeJSON(metaPath+".tmp", metadata); err != nil {
		return err
	}
	if err := writeJSON(textsPath+".tmp", texts); err != nil {
		return err
	}

	for _, path := range []string{embPath, metaPath, textsPath} {
		s.safeReplace(path+".tmp", path)
	}

	s.logger.Info("saved clause snapshot",
		zap.Int("clauses", len(texts)),
		zap.String("dir", s.dataDir))
	return nil
}

// safeReplace renames src over dst, tolerating a dst still locked by
// another process: it retries after removing dst and downgrades a final
// failure to a warning so one stuck artifact does not abort the save.
func (s *ClauseStore) safeReplace(src, dst string) {
	if err := os.Rename(src, dst); err == nil {
		return
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("live artifact is locked, skipping replace", zap.String("path", dst))
		os.Remove(src)
		return
	}
	if err := os.Rename(src, dst); err != nil {
		s.logger.Warn("replacing artifact failed", zap.String("path", dst), zap.Error(err))
		os.Remove(src)
	}
}

// load restores the snapshot written by Save, rebuilding the in-memory
// index with the exact same id-to-metadata correspondence. Missing
// snapshot (fresh install) is fine; a partial or inconsistent one is not.
func (s *ClauseStore) load() error {
	embPath, metaPath, textsPath := s.artifactPaths()

	present := 0
	for _, path := range []string{embPath, metaPath, textsPath} {
		if _, err := os.Stat(path); err == nil {
			present++
		}
	}
	if present == 0 {
		return nil
	}
	if present < 3 {
		return fmt.Errorf("%w: snapshot in %s is missing artifacts", ErrIntegrity, s.dataDir)
	}

	var vectors [][]float32
	if err := readGob(embPath, &vectors); err != nil {
		return err
	}
	var metadata []contract.Clause
	if err := readJSON(metaPath, &metadata); err != nil {
		return err
	}
	var texts []string
	if err := readJSON(textsPath, &texts); err != nil {
		return err
	}

	if len(vectors) != len(texts) || len(metadata) != len(texts) {
		return fmt.Errorf("%w: %d embeddings, %d metadata, %d texts",
			ErrIntegrity, len(vectors), len(metadata), len(texts))
	}

	// Renormalize on load: snapshots from older revisions may hold
	// unnormalized vectors.
	for i := range vectors {
		vectors[i] = normalize(vectors[i])
	}

	s.vectors = vectors
	s.metadata = metadata
	s.texts = texts

	s.logger.Info("loaded clause snapshot",
		zap.Int("clauses", len(texts)),
		zap.String("dir", s.dataDir))
	return nil
}

func writeGob(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("%w: encoding %s: %v", ErrPersistence, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrPersistence, path, err)
	}
	return nil
}

func readGob(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrPersistence, path, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshaling %s: %v", ErrPersistence, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", ErrPersistence, path, err)
	}
	return nil
}
