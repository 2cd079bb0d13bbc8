package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pythia/pkg/domain/model"
	"github.com/secmon-lab/pythia/pkg/utils/errutil"
	"github.com/secmon-lab/pythia/pkg/utils/logging"
	"github.com/secmon-lab/pythia/pkg/utils/textproc"
	"github.com/slack-go/slack/slackevents"
)

// slackMessageLimit keeps replies under Slack's message size cap
const slackMessageLimit = 3000

// HandleSlackEvent routes one Slack callback event. Mentions always get an
// answer; direct messages too. Plain channel messages are answered only when
// they read like a question, so the bot does not reply to every remark in a
// channel it was invited to.
func (uc *UseCases) HandleSlackEvent(ctx context.Context, event *slackevents.EventsAPIEvent) error {
	if uc.slack == nil {
		return goerr.New("slack service is not configured")
	}

	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		return uc.answerSlackMessage(ctx, ev.Channel, ev.TimeStamp, ev.ThreadTimeStamp, ev.User, ev.Text)

	case *slackevents.MessageEvent:
		// Ignore our own messages and other bots, else we loop
		if ev.User == "" || ev.User == uc.slack.BotUserID() || ev.BotID != "" {
			return nil
		}
		if ev.SubType != "" {
			return nil
		}
		if ev.ChannelType != "im" && !textproc.IsQuestion(ev.Text) {
			return nil
		}
		return uc.answerSlackMessage(ctx, ev.Channel, ev.TimeStamp, ev.ThreadTimeStamp, ev.User, ev.Text)

	default:
		logging.From(ctx).Debug("ignoring Slack event", "type", event.InnerEvent.Type)
		return nil
	}
}

// answerSlackMessage runs the query pipeline and posts the answer into the
// triggering thread. Pipeline failures are reported to the user as a short
// apology rather than silence.
func (uc *UseCases) answerSlackMessage(ctx context.Context, channelID, ts, threadTS, userID, text string) error {
	if threadTS == "" {
		threadTS = ts
	}

	result, err := uc.ProcessQuery(ctx, model.QueryInput{
		Query:  text,
		UserID: userID,
	})
	if err != nil {
		errutil.Handle(ctx, err, "failed to answer Slack message")
		reply := "Sorry, I ran into a problem answering that. Please try again."
		if postErr := uc.slack.PostThreadReply(ctx, channelID, threadTS, reply); postErr != nil {
			return goerr.Wrap(postErr, "failed to post Slack error reply")
		}
		return err
	}

	reply := textproc.Truncate(result.Answer, slackMessageLimit)
	if err := uc.slack.PostThreadReply(ctx, channelID, threadTS, reply); err != nil {
		return err
	}
	return nil
}
