package answer

import (
	"context"
	"fmt"

	"github.com/secmon-lab/pythia/pkg/domain/model"
)

const localNotFoundMessage = "I couldn't find relevant information in the documentation for your query."

const localAnswerFormat = `Based on the documentation, here's what I found:

%s

---
*Note: This response is from retrieved documentation. For AI-generated answers, configure the openai or gemini provider.*`

// Local is the passthrough backend: it never calls an external service and
// answers with the retrieved context itself. Fully deterministic.
type Local struct{}

// NewLocal creates the passthrough backend
func NewLocal() *Local {
	return &Local{}
}

// Generate formats the retrieved context with a fixed preamble, or returns
// the fixed not-found message when retrieval produced nothing
func (g *Local) Generate(ctx context.Context, query, docContext string, history []model.HistoryEntry) (string, error) {
	if docContext == "" || docContext == NoContextSentinel {
		return localNotFoundMessage, nil
	}
	return fmt.Sprintf(localAnswerFormat, docContext), nil
}
