package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/pythia/pkg/cli/config"
	"github.com/secmon-lab/pythia/pkg/domain/model"
	"github.com/secmon-lab/pythia/pkg/usecase"
)

func cmdAsk() *cli.Command {
	var withSources bool
	var llmCfg config.LLM
	var indexCfg config.Index

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "sources",
			Usage:       "Show the source passages behind the answer",
			Destination: &withSources,
		},
	}
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a one-shot question against the documentation index",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			question := c.Args().First()
			if question == "" {
				return goerr.New("question is required: pythia ask \"how do I ...\"")
			}

			llmClient, err := llmCfg.ConfigureClient(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}

			retriever, err := indexCfg.Configure(llmClient)
			if err != nil {
				return goerr.Wrap(err, "failed to configure index")
			}

			generator, err := llmCfg.ConfigureGenerator(llmClient, 0)
			if err != nil {
				return goerr.Wrap(err, "failed to configure answer generator")
			}

			uc := usecase.New(retriever, generator)
			result, err := uc.ProcessQuery(ctx, model.QueryInput{
				Query:          question,
				IncludeSources: withSources,
			})
			if err != nil {
				return err
			}

			fmt.Println(result.Answer)

			if withSources && len(result.Sources) > 0 {
				heading := color.New(color.FgCyan, color.Bold)
				faint := color.New(color.Faint)

				fmt.Println()
				_, _ = heading.Fprintln(os.Stdout, "Sources:")
				for _, src := range result.Sources {
					if src.Score != nil {
						_, _ = faint.Fprintf(os.Stdout, "  %s (score: %.3f)\n", src.Source, *src.Score)
					} else {
						_, _ = faint.Fprintf(os.Stdout, "  %s\n", src.Source)
					}
				}
			}

			return nil
		},
	}
}
