package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/pythia/pkg/domain/types"
	"github.com/secmon-lab/pythia/pkg/service/index"
	"github.com/urfave/cli/v3"
)

// Index holds retrieval index configuration
type Index struct {
	path         string
	topK         int
	snippetLimit int
}

func (x *Index) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "index-path",
			Usage:       "Path to the documentation index file",
			Category:    "Index",
			Value:       "pythia-index.json",
			Sources:     cli.EnvVars("PYTHIA_INDEX_PATH"),
			Destination: &x.path,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of passages to retrieve per query",
			Category:    "Index",
			Value:       index.DefaultTopK,
			Sources:     cli.EnvVars("PYTHIA_TOP_K"),
			Destination: &x.topK,
		},
		&cli.IntFlag{
			Name:        "snippet-limit",
			Usage:       "Maximum characters per passage snippet in responses",
			Category:    "Index",
			Value:       index.DefaultSnippetLimit,
			Sources:     cli.EnvVars("PYTHIA_SNIPPET_LIMIT"),
			Destination: &x.snippetLimit,
		},
	}
}

func (x Index) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", x.path),
		slog.Int("top_k", x.topK),
		slog.Int("snippet_limit", x.snippetLimit),
	)
}

// Path returns the configured index file location
func (x *Index) Path() string {
	return x.path
}

// Configure creates the retrieval service and loads the index file when it
// exists. A missing index is not fatal; the service starts empty and reports
// not ready.
func (x *Index) Configure(llm gollem.LLMClient) (*index.Service, error) {
	svc := index.New(llm,
		index.WithTopK(x.topK),
		index.WithSnippetLimit(x.snippetLimit),
	)

	if _, err := os.Stat(x.path); os.IsNotExist(err) {
		return svc, nil
	}

	if err := svc.LoadFile(x.path); err != nil {
		return nil, goerr.Wrap(err, "failed to load index file",
			goerr.T(types.TagConfig),
			goerr.V("path", x.path),
		)
	}
	return svc, nil
}
