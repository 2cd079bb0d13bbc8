package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pythia/pkg/domain/model"
	"github.com/secmon-lab/pythia/pkg/domain/types"
	"github.com/secmon-lab/pythia/pkg/service/answer"
	"github.com/secmon-lab/pythia/pkg/utils/logging"
	"github.com/secmon-lab/pythia/pkg/utils/textproc"
)

// ProcessQuery runs the full pipeline: clean the text, load conversation
// history, retrieve documentation context, generate an answer, and record the
// exchange. The conversation is only updated after generation succeeds, so a
// failed request never pollutes history.
func (uc *UseCases) ProcessQuery(ctx context.Context, input model.QueryInput) (*model.QueryResult, error) {
	started := time.Now()
	logger := logging.From(ctx)

	cleaned := textproc.Clean(input.Query)
	if cleaned == "" {
		return nil, goerr.New("query is empty after cleaning",
			goerr.T(types.TagValidation),
			goerr.V("raw_query", input.Query),
		)
	}

	history := uc.memory.FormattedHistory(input.UserID)

	docContext, passages, err := uc.retriever.Retrieve(ctx, cleaned)
	if err != nil {
		return nil, goerr.Wrap(err, "retrieval failed",
			goerr.T(types.TagDownstream),
			goerr.V("query", cleaned),
		)
	}
	if docContext == "" {
		docContext = answer.NoContextSentinel
	}

	generated, err := uc.generator.Generate(ctx, cleaned, docContext, history)
	if err != nil {
		return nil, goerr.Wrap(err, "answer generation failed",
			goerr.T(types.TagDownstream),
			goerr.V("query", cleaned),
		)
	}

	if input.UserID != "" {
		uc.memory.AddMessage(input.UserID, types.RoleUser, cleaned)
		uc.memory.AddMessage(input.UserID, types.RoleAssistant, generated)
	}

	result := &model.QueryResult{
		Answer:    generated,
		Query:     cleaned,
		Timestamp: time.Now().UTC(),
		Elapsed:   time.Since(started),
	}
	if input.IncludeSources {
		result.Sources = passages
	}

	logger.Info("processed query",
		"user_id", input.UserID,
		"query", cleaned,
		"passages", len(passages),
		"elapsed", result.Elapsed,
	)

	return result, nil
}

// CleanText exposes the normalizer for callers that need the cleaned form
// without running the pipeline
func (uc *UseCases) CleanText(raw string) string {
	return textproc.Clean(raw)
}
