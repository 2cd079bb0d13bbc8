package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/pythia/pkg/cli/config"
	httpctrl "github.com/secmon-lab/pythia/pkg/controller/http"
	"github.com/secmon-lab/pythia/pkg/usecase"
	"github.com/secmon-lab/pythia/pkg/utils/logging"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var llmCfg config.LLM
	var indexCfg config.Index
	var memoryCfg config.Memory
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("PYTHIA_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, memoryCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			llmClient, err := llmCfg.ConfigureClient(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}

			retriever, err := indexCfg.Configure(llmClient)
			if err != nil {
				return goerr.Wrap(err, "failed to configure index")
			}
			if !retriever.Ready() {
				logging.Default().Warn("no index loaded, queries will find no documentation",
					"path", indexCfg.Path(),
				)
			}

			generator, err := llmCfg.ConfigureGenerator(llmClient, memoryCfg.MaxTurns())
			if err != nil {
				return goerr.Wrap(err, "failed to configure answer generator")
			}

			ucOpts := []usecase.Option{
				usecase.WithMemory(memoryCfg.Configure()),
			}

			slackSvc, err := slackCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Slack")
			}
			if slackSvc != nil {
				ucOpts = append(ucOpts, usecase.WithSlack(slackSvc))
				logging.Default().Info("Slack surface enabled", "bot_user_id", slackSvc.BotUserID())
			}

			uc := usecase.New(retriever, generator, ucOpts...)

			provider, err := llmCfg.Provider()
			if err != nil {
				return err
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithVersion(version),
				httpctrl.WithProvider(provider),
			}
			if slackSvc != nil {
				httpOpts = append(httpOpts, httpctrl.WithSlackWebhook(slackCfg.SigningSecret()))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"provider", llmCfg,
					"index", indexCfg,
					"memory", memoryCfg,
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
