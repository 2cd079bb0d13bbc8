package answer

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/pythia/pkg/domain/model"
)

// OpenAI generates answers through the OpenAI API. Failures propagate to the
// caller unretried.
type OpenAI struct {
	client   gollem.LLMClient
	maxTurns int
}

// NewOpenAI creates the OpenAI-backed generator. maxTurns bounds how many
// prior exchanges are carried into the prompt.
func NewOpenAI(client gollem.LLMClient, maxTurns int) (*OpenAI, error) {
	if client == nil {
		return nil, goerr.New("OpenAI LLM client is required")
	}
	return &OpenAI{
		client:   client,
		maxTurns: maxTurns,
	}, nil
}

// Generate builds a system instruction plus a user prompt embedding context
// and question, with up to maxTurns prior turns prepended
func (g *OpenAI) Generate(ctx context.Context, query, docContext string, history []model.HistoryEntry) (string, error) {
	session, err := g.client.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create OpenAI session")
	}

	prompt := buildUserPrompt(query, docContext)
	if transcript := renderHistory(truncateTurns(history, g.maxTurns)); transcript != "" {
		prompt = transcript + "\n" + prompt
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "OpenAI generation failed")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("OpenAI returned no content")
	}

	return strings.Join(resp.Texts, "\n"), nil
}
