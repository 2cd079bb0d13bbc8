package interfaces

import (
	"context"

	"github.com/secmon-lab/pythia/pkg/domain/model"
)

// Generator is the answer generation capability. The backend is fixed at
// construction time; swapping backends must not change orchestrator behavior.
// Transport or quota failures propagate as errors and are never retried here.
type Generator interface {
	Generate(ctx context.Context, query, docContext string, history []model.HistoryEntry) (string, error)
}
