package usecase

import (
	"github.com/secmon-lab/pythia/pkg/domain/interfaces"
	"github.com/secmon-lab/pythia/pkg/domain/model"
	"github.com/secmon-lab/pythia/pkg/service/memory"
	slackSvc "github.com/secmon-lab/pythia/pkg/service/slack"
)

// UseCases wires the retrieval, generation, memory and Slack services into
// the application operations
type UseCases struct {
	retriever interfaces.Retriever
	generator interfaces.Generator
	memory    *memory.Store
	slack     slackSvc.Service
}

// Option is a functional option for UseCases
type Option func(*UseCases)

// WithSlack enables the Slack event operations
func WithSlack(svc slackSvc.Service) Option {
	return func(uc *UseCases) {
		uc.slack = svc
	}
}

// WithMemory overrides the conversation memory store
func WithMemory(store *memory.Store) Option {
	return func(uc *UseCases) {
		uc.memory = store
	}
}

// New creates the use case layer. A memory store is always present; pass
// WithMemory to configure or disable it.
func New(retriever interfaces.Retriever, generator interfaces.Generator, opts ...Option) *UseCases {
	uc := &UseCases{
		retriever: retriever,
		generator: generator,
		memory:    memory.New(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ClearMemory discards one user's conversation. Idempotent.
func (uc *UseCases) ClearMemory(userID string) {
	uc.memory.Clear(userID)
}

// MemoryStats reports the memory store's state for the stats endpoint
func (uc *UseCases) MemoryStats() model.MemoryStats {
	return uc.memory.Stats()
}

// IndexStats reports the retrieval index state for the stats endpoint
func (uc *UseCases) IndexStats() model.IndexStats {
	return uc.retriever.Stats()
}

// Ready reports whether the retrieval index is loaded
func (uc *UseCases) Ready() bool {
	return uc.retriever.Ready()
}
