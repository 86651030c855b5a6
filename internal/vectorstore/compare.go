package vectorstore

import (
	"context"
	"fmt"
	"strings"
)

// Comparison modes.
const (
	CompareOverall = "overall"
	CompareClauses = "clauses"
)

const (
	// minClauseLength discards sentence fragments too short to carry
	// meaning on their own.
	minClauseLength = 30

	// maxCompareClauses bounds the cost of clause-by-clause comparison.
	maxCompareClauses = 20

	// compareRelevanceFloor drops clause pairs too dissimilar to be the
	// same provision.
	compareRelevanceFloor = 0.6
)

// ClausePair is one matched clause pair from a clause-by-clause comparison.
type ClausePair struct {
	Clause     string  `json:"clause"`
	BestMatch  string  `json:"best_match"`
	Similarity float64 `json:"similarity"`
}

// Comparison is the result of comparing two contract texts.
type Comparison struct {
	SimilarityScore    float64      `json:"similarity_score"`
	ComparisonType     string       `json:"comparison_type"`
	Interpretation     string       `json:"interpretation,omitempty"`
	NumClausesCompared int          `json:"num_clauses_compared,omitempty"`
	ClausePairs        []ClausePair `json:"clause_comparisons,omitempty"`
}

// Compare measures how similar two contract texts are, either as whole
// documents ("overall") or provision by provision ("clauses").
func (s *ClauseStore) Compare(ctx context.Context, textA, textB, mode string) (*Comparison, error) {
	if !s.Available() {
		return nil, s.initErr
	}

	switch mode {
	case CompareOverall, "":
		return s.compareOverall(ctx, textA, textB)
	case CompareClauses:
		return s.compareClauses(ctx, textA, textB)
	default:
		return nil, fmt.Errorf("%w: unknown comparison mode %q", ErrInvalidConfig, mode)
	}
}

func (s *ClauseStore) compareOverall(ctx context.Context, textA, textB string) (*Comparison, error) {
	embs, err := s.embedder.EmbedDocuments(ctx, []string{textA, textB})
	if err != nil {
		return nil, fmt.Errorf("embedding texts: %w", err)
	}
	score := dot(normalize(embs[0]), normalize(embs[1]))

	return &Comparison{
		SimilarityScore: round3(score),
		ComparisonType:  CompareOverall,
		Interpretation:  interpretSimilarity(score),
	}, nil
}

func (s *ClauseStore) compareClauses(ctx context.Context, textA, textB string) (*Comparison, error) {
	chunksA := splitClauses(textA)
	chunksB := splitClauses(textB)

	if len(chunksA) == 0 || len(chunksB) == 0 {
		return &Comparison{ComparisonType: CompareClauses, ClausePairs: []ClausePair{}}, nil
	}

	if len(chunksA) > maxCompareClauses {
		chunksA = chunksA[:maxCompareClauses]
	}

	// Temporary index over B's chunks; one batch embed per side.
	embsB, err := s.embedder.EmbedDocuments(ctx, chunksB)
	if err != nil {
		return nil, fmt.Errorf("embedding comparison target: %w", err)
	}
	for i := range embsB {
		embsB[i] = normalize(embsB[i])
	}

	embsA, err := s.embedder.EmbedDocuments(ctx, chunksA)
	if err != nil {
		return nil, fmt.Errorf("embedding comparison source: %w", err)
	}

	pairs := []ClausePair{}
	total := 0.0
	for i, embA := range embsA {
		embA = normalize(embA)
		bestScore, bestIdx := -1.0, -1
		for j, embB := range embsB {
			if score := dot(embA, embB); score > bestScore {
				bestScore, bestIdx = score, j
			}
		}
		if bestScore > compareRelevanceFloor {
			pairs = append(pairs, ClausePair{
				Clause:     chunksA[i],
				BestMatch:  chunksB[bestIdx],
				Similarity: round3(bestScore),
			})
			total += bestScore
		}
	}

	avg := 0.0
	if len(pairs) > 0 {
		avg = total / float64(len(pairs))
	}

	return &Comparison{
		SimilarityScore:    round3(avg),
		ComparisonType:     CompareClauses,
		NumClausesCompared: len(pairs),
		ClausePairs:        pairs,
	}, nil
}

// splitClauses splits text into clause-like chunks on sentence boundaries,
// keeping only substantial chunks.
func splitClauses(text string) []string {
	var chunks []string
	var b strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(b.String())
		b.Reset()
		if len(chunk) > minClauseLength {
			chunks = append(chunks, chunk)
		}
	}

	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// Boundary only when followed by whitespace or end of text,
			// so "30.5" and "Sec. 2" numbering stay intact more often.
			if i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				flush()
			}
		}
	}
	flush()
	return chunks
}

func interpretSimilarity(score float64) string {
	switch {
	case score > 0.9:
		return "nearly identical templates"
	case score > 0.7:
		return "high similarity"
	case score > 0.5:
		return "structural similarity"
	case score >= 0.3:
		return "low similarity"
	default:
		return "substantially different"
	}
}
