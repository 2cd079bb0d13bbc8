package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/pythia/pkg/domain/interfaces"
	"github.com/secmon-lab/pythia/pkg/domain/types"
	"github.com/secmon-lab/pythia/pkg/service/answer"
	"github.com/urfave/cli/v3"
)

// LLM holds the answer provider selection and the credentials for the
// provider-backed clients
type LLM struct {
	provider       string
	openAIAPIKey   string `masq:"secret"`
	openAIModel    string
	geminiProject  string
	geminiLocation string
}

func (x *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "Answer provider [local, openai, gemini]",
			Category:    "LLM",
			Value:       types.ProviderLocal.String(),
			Sources:     cli.EnvVars("PYTHIA_LLM_PROVIDER"),
			Destination: &x.provider,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("PYTHIA_OPENAI_API_KEY"),
			Destination: &x.openAIAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI model name",
			Category:    "LLM",
			Value:       "gpt-4o-mini",
			Sources:     cli.EnvVars("PYTHIA_OPENAI_MODEL"),
			Destination: &x.openAIModel,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "LLM",
			Sources:     cli.EnvVars("PYTHIA_GEMINI_PROJECT"),
			Destination: &x.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Category:    "LLM",
			Value:       "us-central1",
			Sources:     cli.EnvVars("PYTHIA_GEMINI_LOCATION"),
			Destination: &x.geminiLocation,
		},
	}
}

func (x LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", x.provider),
		slog.Int("openai-api-key.len", len(x.openAIAPIKey)),
		slog.String("openai-model", x.openAIModel),
		slog.String("gemini-project", x.geminiProject),
		slog.String("gemini-location", x.geminiLocation),
	)
}

// Provider returns the validated provider selection
func (x *LLM) Provider() (types.Provider, error) {
	p := types.Provider(x.provider)
	if !p.IsValid() {
		return "", goerr.New("unknown LLM provider",
			goerr.T(types.TagConfig),
			goerr.V("provider", x.provider),
			goerr.V("supported", types.AllProviders()),
		)
	}
	return p, nil
}

// ConfigureClient creates the gollem client for the selected provider. The
// local provider needs no client and returns nil; retrieval then falls back
// to lexical ranking.
func (x *LLM) ConfigureClient(ctx context.Context) (gollem.LLMClient, error) {
	provider, err := x.Provider()
	if err != nil {
		return nil, err
	}

	switch provider {
	case types.ProviderLocal:
		return nil, nil

	case types.ProviderOpenAI:
		if x.openAIAPIKey == "" {
			return nil, goerr.New("openai provider requires --openai-api-key", goerr.T(types.TagConfig))
		}
		client, err := openai.New(ctx, x.openAIAPIKey, openai.WithModel(x.openAIModel))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client", goerr.T(types.TagConfig))
		}
		return client, nil

	case types.ProviderGemini:
		if x.geminiProject == "" {
			return nil, goerr.New("gemini provider requires --gemini-project", goerr.T(types.TagConfig))
		}
		client, err := gemini.New(ctx, x.geminiProject, x.geminiLocation)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client", goerr.T(types.TagConfig))
		}
		return client, nil

	default:
		return nil, goerr.New("unknown LLM provider", goerr.T(types.TagConfig), goerr.V("provider", provider))
	}
}

// ConfigureGenerator creates the answer generator for the selected provider.
// The backend is fixed here; request handling never switches on the provider.
func (x *LLM) ConfigureGenerator(client gollem.LLMClient, maxTurns int) (interfaces.Generator, error) {
	provider, err := x.Provider()
	if err != nil {
		return nil, err
	}

	switch provider {
	case types.ProviderLocal:
		return answer.NewLocal(), nil
	case types.ProviderOpenAI:
		return answer.NewOpenAI(client, maxTurns)
	case types.ProviderGemini:
		return answer.NewGemini(client, maxTurns)
	default:
		return nil, goerr.New("unknown LLM provider", goerr.T(types.TagConfig), goerr.V("provider", provider))
	}
}
