package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/pythia/pkg/cli/config"
	"github.com/secmon-lab/pythia/pkg/service/index"
	"github.com/secmon-lab/pythia/pkg/utils/logging"
)

func cmdIngest() *cli.Command {
	var chunkSize int
	var chunkOverlap int
	var llmCfg config.LLM
	var indexCfg config.Index
	var sourcesCfg config.Sources

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Chunk window size in words",
			Category:    "Ingest",
			Value:       index.DefaultChunkSize,
			Sources:     cli.EnvVars("PYTHIA_CHUNK_SIZE"),
			Destination: &chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Chunk window overlap in words",
			Category:    "Ingest",
			Value:       index.DefaultChunkOverlap,
			Sources:     cli.EnvVars("PYTHIA_CHUNK_OVERLAP"),
			Destination: &chunkOverlap,
		},
	}
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, sourcesCfg.Flags()...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Build the documentation index from configured sources",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			sources, err := sourcesCfg.Configure()
			if err != nil {
				return err
			}

			llmClient, err := llmCfg.ConfigureClient(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}

			file, err := index.Build(ctx, llmClient, index.BuildInput{
				Sources:      sources,
				ChunkSize:    chunkSize,
				ChunkOverlap: chunkOverlap,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to build index")
			}

			if err := file.Save(indexCfg.Path()); err != nil {
				return goerr.Wrap(err, "failed to save index")
			}

			logging.Default().Info("index built",
				"path", indexCfg.Path(),
				"documents", file.Documents,
				"chunks", len(file.Chunks),
			)
			return nil
		},
	}
}
