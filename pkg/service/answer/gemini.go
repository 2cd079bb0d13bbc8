package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/pythia/pkg/domain/model"
)

const geminiPromptFormat = `You are a helpful developer documentation assistant.
Answer questions based on the provided documentation context.
Be concise, accurate, and developer-friendly.
If the answer is not in the context, say so clearly.

%sDocumentation Context:
%s

Question: %s

Answer:`

// Gemini generates answers through the Gemini API. Failures propagate to the
// caller unretried.
type Gemini struct {
	client   gollem.LLMClient
	maxTurns int
}

// NewGemini creates the Gemini-backed generator. maxTurns bounds how many
// prior exchanges are carried into the prompt.
func NewGemini(client gollem.LLMClient, maxTurns int) (*Gemini, error) {
	if client == nil {
		return nil, goerr.New("Gemini LLM client is required")
	}
	return &Gemini{
		client:   client,
		maxTurns: maxTurns,
	}, nil
}

// Generate sends one combined prompt carrying instruction, context, history
// and question
func (g *Gemini) Generate(ctx context.Context, query, docContext string, history []model.HistoryEntry) (string, error) {
	session, err := g.client.NewSession(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create Gemini session")
	}

	transcript := renderHistory(truncateTurns(history, g.maxTurns))
	if transcript != "" {
		transcript += "\n"
	}
	prompt := fmt.Sprintf(geminiPromptFormat, transcript, docContext, query)

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "Gemini generation failed")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("Gemini returned no content")
	}

	return strings.Join(resp.Texts, "\n"), nil
}
