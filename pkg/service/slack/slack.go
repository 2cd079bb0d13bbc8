package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Service is the surface the event handlers need from the Slack Web API
type Service interface {
	// PostThreadReply posts text into the thread rooted at threadTS. When
	// threadTS is empty the reply starts a new thread on the triggering
	// message.
	PostThreadReply(ctx context.Context, channelID, threadTS, text string) error

	// BotUserID returns the bot's own user ID, used to skip self-messages
	BotUserID() string
}

type client struct {
	api       *slack.Client
	botUserID string
}

// New authenticates against the Slack Web API and resolves the bot's own
// user ID
func New(ctx context.Context, botToken string) (Service, error) {
	if botToken == "" {
		return nil, goerr.New("slack bot token is required")
	}

	api := slack.New(botToken)
	resp, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to authenticate with Slack")
	}

	return &client{
		api:       api,
		botUserID: resp.UserID,
	}, nil
}

func (c *client) PostThreadReply(ctx context.Context, channelID, threadTS, text string) error {
	opts := []slack.MsgOption{
		slack.MsgOptionText(text, false),
	}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	if _, _, err := c.api.PostMessageContext(ctx, channelID, opts...); err != nil {
		return goerr.Wrap(err, "failed to post Slack message",
			goerr.V("channel_id", channelID),
			goerr.V("thread_ts", threadTS),
		)
	}
	return nil
}

func (c *client) BotUserID() string {
	return c.botUserID
}
