package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clauselens/riskcore/internal/contract"
)

const (
	// BlankClauseID is the sentinel returned when Add is given blank text.
	BlankClauseID = -1

	// overFetchFactor controls how many candidates beyond top-k the index
	// scan keeps before post-filtering by clause type, risk level and
	// duplicate text.
	overFetchFactor = 5

	defaultTopK = 10
	maxTopK     = 50

	defaultThreshold = 0.7
)

// MatchType bands a similarity score for presentation. Monotonic in the
// score.
type MatchType string

const (
	MatchExact      MatchType = "EXACT"
	MatchVeryStrong MatchType = "VERY_STRONG"
	MatchStrong     MatchType = "STRONG"
	MatchModerate   MatchType = "MODERATE"
)

func matchTypeFor(score float64) MatchType {
	switch {
	case score > 0.95:
		return MatchExact
	case score > 0.85:
		return MatchVeryStrong
	case score > 0.75:
		return MatchStrong
	default:
		return MatchModerate
	}
}

// timeNow is a variable for testing purposes.
var timeNow = time.Now

// Config holds configuration for the clause store.
type Config struct {
	// DataDir is the directory for snapshot artifacts.
	DataDir string
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data/embeddings"
	}
}

// ClauseStore is the in-memory clause similarity index.
//
// vectors, metadata and texts are parallel arrays: entry i of each
// describes the same logical clause and i is its id. Mutations are
// append-only and serialized by the write lock; searches racing with an
// Add may or may not see the new clause but never observe the arrays out
// of lockstep.
type ClauseStore struct {
	embedder Embedder
	logger   *zap.Logger
	metrics  *Metrics
	dataDir  string
	initErr  error

	mu       sync.RWMutex
	vectors  [][]float32
	metadata []contract.Clause
	texts    []string
}

// NewClauseStore creates the store and restores any existing snapshot.
// A nil embedder (the embedding model failed to initialize) does not fail
// construction: the store reports itself unavailable and every operation
// returns ErrUnavailable. A corrupt snapshot, by contrast, is fatal.
func NewClauseStore(cfg Config, embedder Embedder, logger *zap.Logger) (*ClauseStore, error) {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &ClauseStore{
		embedder: embedder,
		logger:   logger,
		metrics:  NewMetrics(logger),
		dataDir:  cfg.DataDir,
	}
	if embedder == nil {
		s.initErr = fmt.Errorf("%w: no embedding provider", ErrUnavailable)
		logger.Warn("clause store constructed without embedder, similarity disabled")
		return s, nil
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Available reports whether the store can serve similarity operations.
func (s *ClauseStore) Available() bool {
	return s.initErr == nil
}

// Add embeds a clause and appends it to the index. Returns BlankClauseID
// for blank or whitespace-only text. The returned id is the clause's
// permanent array index.
func (s *ClauseStore) Add(ctx context.Context, text, clauseType, sourceContract, riskLevel string, tags []string) (int, error) {
	if !s.Available() {
		return BlankClauseID, s.initErr
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return BlankClauseID, nil
	}

	embs, err := s.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return BlankClauseID, fmt.Errorf("embedding clause: %w", err)
	}
	vec := normalize(embs[0])

	if tags == nil {
		tags = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := len(s.texts)
	s.vectors = append(s.vectors, vec)
	s.metadata = append(s.metadata, contract.Clause{
		ID:             id,
		ClauseType:     clauseType,
		SourceContract: sourceContract,
		RiskLevel:      riskLevel,
		Tags:           tags,
		AddedDate:      timeNow(),
		LengthChars:    len(text),
	})
	s.texts = append(s.texts, text)

	s.metrics.RecordAdd(ctx, clauseType)
	return id, nil
}

// SearchQuery parameterizes a similarity search.
type SearchQuery struct {
	Text string

	// ClauseType and RiskLevel are optional post-filters.
	ClauseType string
	RiskLevel  string

	// TopK is clamped to [1, 50]; 0 means 10.
	TopK int

	// Threshold discards results scoring below it; 0 means 0.7.
	Threshold float64
}

// SearchResult is one ranked similarity hit.
type SearchResult struct {
	contract.Clause

	Text       string    `json:"text"`
	Similarity float64   `json:"similarity_score"`
	MatchType  MatchType `json:"match_type"`
}

// Search returns clauses similar to the query text, ranked by descending
// similarity with insertion order breaking ties. The index scan over-
// fetches a candidate pool so post-filtering and text deduplication do not
// starve the result list.
func (s *ClauseStore) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	if !s.Available() {
		return nil, s.initErr
	}

	start := timeNow()
	topK := q.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	topK = min(topK, maxTopK)
	threshold := q.Threshold
	if threshold == 0 {
		threshold = defaultThreshold
	}

	s.mu.RLock()
	// Entries are immutable once appended; slice headers are enough.
	vectors, metadata, texts := s.vectors, s.metadata, s.texts
	s.mu.RUnlock()

	if len(texts) == 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryVec = normalize(queryVec)

	ranked := make([]int, len(vectors))
	scores := make([]float64, len(vectors))
	for i, vec := range vectors {
		ranked[i] = i
		scores[i] = dot(queryVec, vec)
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return scores[ranked[a]] > scores[ranked[b]]
	})

	pool := min(len(ranked), topK*overFetchFactor)

	var results []SearchResult
	seen := make(map[string]struct{}, pool)
	for _, idx := range ranked[:pool] {
		score := scores[idx]
		if score < threshold {
			break
		}
		meta := metadata[idx]
		text := texts[idx]

		if q.ClauseType != "" && meta.ClauseType != q.ClauseType {
			continue
		}
		if q.RiskLevel != "" && meta.RiskLevel != q.RiskLevel {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		results = append(results, SearchResult{
			Clause:     meta,
			Text:       text,
			Similarity: round3(score),
			MatchType:  matchTypeFor(score),
		})
		if len(results) >= topK {
			break
		}
	}

	s.metrics.RecordSearch(ctx, time.Since(start), len(results))
	return results, nil
}

// Stats describes the store for operational visibility.
type Stats struct {
	TotalClauses int    `json:"total_clauses"`
	Available    bool   `json:"available"`
	Backend      string `json:"backend"`
}

// GetStats reports the current index state; no side effects.
func (s *ClauseStore) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		TotalClauses: len(s.texts),
		Available:    s.Available(),
		Backend:      "flat inner-product index",
	}
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
