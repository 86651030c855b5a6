package services

import (
	"github.com/clauselens/riskcore/internal/features"
	"github.com/clauselens/riskcore/internal/risk"
	"github.com/clauselens/riskcore/internal/storage"
	"github.com/clauselens/riskcore/internal/training"
	"github.com/clauselens/riskcore/internal/vectorstore"
)

// Registry provides access to all riskcore services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Extractor() *features.Extractor
	Classifier() *risk.Classifier
	ClauseStore() *vectorstore.ClauseStore
	Assembler() *training.Assembler
	Contracts() *storage.ContractRepository
}

// Options configures the registry with service instances.
type Options struct {
	Extractor   *features.Extractor
	Classifier  *risk.Classifier
	ClauseStore *vectorstore.ClauseStore
	Assembler   *training.Assembler
	Contracts   *storage.ContractRepository
}

// registry is the concrete implementation of Registry.
type registry struct {
	extractor   *features.Extractor
	classifier  *risk.Classifier
	clauseStore *vectorstore.ClauseStore
	assembler   *training.Assembler
	contracts   *storage.ContractRepository
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &registry{
		extractor:   opts.Extractor,
		classifier:  opts.Classifier,
		clauseStore: opts.ClauseStore,
		assembler:   opts.Assembler,
		contracts:   opts.Contracts,
	}
}

func (r *registry) Extractor() *features.Extractor        { return r.extractor }
func (r *registry) Classifier() *risk.Classifier          { return r.classifier }
func (r *registry) ClauseStore() *vectorstore.ClauseStore { return r.clauseStore }
func (r *registry) Assembler() *training.Assembler        { return r.assembler }
func (r *registry) Contracts() *storage.ContractRepository {
	return r.contracts
}
