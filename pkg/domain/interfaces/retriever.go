package interfaces

import (
	"context"

	"github.com/secmon-lab/pythia/pkg/domain/model"
)

// Retriever is the retrieval capability: given a cleaned query, return the
// combined context and ranked passages. An unloaded index is not an error;
// implementations return empty context and no passages instead.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (string, []model.Passage, error)

	// Ready reports whether an index is loaded
	Ready() bool

	// Stats describes the loaded index for health/stats endpoints
	Stats() model.IndexStats
}
