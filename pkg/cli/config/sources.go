package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/pythia/pkg/domain/types"
	"github.com/secmon-lab/pythia/pkg/service/index"
	"github.com/urfave/cli/v3"
)

// SourcesConfig is the TOML file describing documentation collections
type SourcesConfig struct {
	Sources []SourceEntry `toml:"source"`
}

// SourceEntry is one documentation collection in the sources file
type SourceEntry struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
	Glob string `toml:"glob"`
}

// Validate checks if the SourceEntry is valid
func (s *SourceEntry) Validate() error {
	if s.Name == "" {
		return goerr.New("source name is required", goerr.V("path", s.Path))
	}
	if s.Path == "" {
		return goerr.New("source path is required", goerr.V("name", s.Name))
	}
	return nil
}

// Sources holds the ingest source configuration: either a TOML sources file
// or a single docs directory
type Sources struct {
	configPath string
	docsDir    string
}

func (x *Sources) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sources-config",
			Usage:       "TOML file listing documentation sources",
			Category:    "Ingest",
			Sources:     cli.EnvVars("PYTHIA_SOURCES_CONFIG"),
			Destination: &x.configPath,
		},
		&cli.StringFlag{
			Name:        "docs-dir",
			Usage:       "Documentation directory (shortcut for a single source)",
			Category:    "Ingest",
			Sources:     cli.EnvVars("PYTHIA_DOCS_DIR"),
			Destination: &x.docsDir,
		},
	}
}

// Configure resolves the ingest sources. A TOML config takes precedence over
// the single-directory shortcut.
func (x *Sources) Configure() ([]index.Source, error) {
	if x.configPath != "" {
		return loadSourcesConfig(x.configPath)
	}

	if x.docsDir != "" {
		return []index.Source{{
			Name: "docs",
			Path: x.docsDir,
		}}, nil
	}

	return nil, goerr.New("either --sources-config or --docs-dir is required",
		goerr.T(types.TagConfig),
	)
}

func loadSourcesConfig(path string) ([]index.Source, error) {
	// #nosec G304 - path is provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read sources config",
			goerr.T(types.TagConfig),
			goerr.V("path", path),
		)
	}

	var cfg SourcesConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse sources config",
			goerr.T(types.TagConfig),
			goerr.V("path", path),
		)
	}
	if len(cfg.Sources) == 0 {
		return nil, goerr.New("sources config has no sources",
			goerr.T(types.TagConfig),
			goerr.V("path", path),
		)
	}

	out := make([]index.Source, 0, len(cfg.Sources))
	for i := range cfg.Sources {
		entry := &cfg.Sources[i]
		if err := entry.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid source entry", goerr.T(types.TagConfig))
		}
		out = append(out, index.Source{
			Name: entry.Name,
			Path: entry.Path,
			Glob: entry.Glob,
		})
	}
	return out, nil
}
