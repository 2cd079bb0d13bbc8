package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pythia/pkg/domain/types"
	slackSvc "github.com/secmon-lab/pythia/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds the bot credentials for the Slack surface
type Slack struct {
	botToken      string `masq:"secret"`
	signingSecret string `masq:"secret"`
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token",
			Category:    "Slack",
			Sources:     cli.EnvVars("PYTHIA_SLACK_BOT_TOKEN"),
			Destination: &x.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for webhook verification)",
			Category:    "Slack",
			Sources:     cli.EnvVars("PYTHIA_SLACK_SIGNING_SECRET"),
			Destination: &x.signingSecret,
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Int("signing-secret.len", len(x.signingSecret)),
	)
}

// Enabled reports whether the Slack surface should be mounted
func (x *Slack) Enabled() bool {
	return x.botToken != "" || x.signingSecret != ""
}

// SigningSecret returns the webhook signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}

// Configure authenticates the Slack client. Both credentials are required
// once either is set; a half-configured Slack surface is a config error, not
// a silent no-op.
func (x *Slack) Configure(ctx context.Context) (slackSvc.Service, error) {
	if !x.Enabled() {
		return nil, nil
	}
	if x.botToken == "" || x.signingSecret == "" {
		return nil, goerr.New("slack requires both --slack-bot-token and --slack-signing-secret",
			goerr.T(types.TagConfig),
		)
	}
	return slackSvc.New(ctx, x.botToken)
}
