// Package training assembles labeled historical contracts into the shape
// consumed by classifier training.
package training

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/clauselens/riskcore/internal/contract"
)

// DefaultBatchSize bounds how many historical rows are held in flight per
// retrieval batch, so large corpora never load wholesale.
const DefaultBatchSize = 500

// Store streams historical contract records in batches. The relational
// store behind it is an external collaborator; the assembler only owns
// the eligibility policy.
type Store interface {
	// ForEachBatch invokes fn with successive batches of records until
	// the store is exhausted or fn returns an error.
	ForEachBatch(ctx context.Context, batchSize int, fn func(records []contract.Record) error) error
}

// Assembler selects and shapes training data.
type Assembler struct {
	store     Store
	logger    *zap.Logger
	batchSize int
}

// NewAssembler creates an Assembler over a historical store.
func NewAssembler(store Store, batchSize int, logger *zap.Logger) *Assembler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{store: store, logger: logger, batchSize: batchSize}
}

// Eligible reports whether a historical record can serve as training
// data: it must carry extracted text and an analyzed (non-UNKNOWN) risk
// level.
func Eligible(rec contract.Record) bool {
	if rec.RawText == "" {
		return false
	}
	switch rec.RiskLevel {
	case contract.RiskLow, contract.RiskMedium, contract.RiskHigh:
		return true
	}
	return false
}

// Assemble streams the historical store and returns every eligible record.
func (a *Assembler) Assemble(ctx context.Context) ([]contract.Record, error) {
	var (
		eligible []contract.Record
		scanned  int
	)

	err := a.store.ForEachBatch(ctx, a.batchSize, func(records []contract.Record) error {
		scanned += len(records)
		for _, rec := range records {
			if Eligible(rec) {
				eligible = append(eligible, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assembling training data: %w", err)
	}

	a.logger.Info("assembled training data",
		zap.Int("scanned", scanned),
		zap.Int("eligible", len(eligible)))
	return eligible, nil
}
