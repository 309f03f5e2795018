package slack

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// Sender posts messages back to Slack, either into a channel/thread with a
// bot token or through a one-shot response URL.
type Sender struct {
	log zerolog.Logger
}

func NewSender(log zerolog.Logger) *Sender {
	return &Sender{log: log.With().Str("component", "slack").Logger()}
}

// PostMessage sends text to a channel using the organisation's bot token.
// When threadTS is non-empty the message is posted as a thread reply.
func (s *Sender) PostMessage(ctx context.Context, botToken, channelID, threadTS, text string) error {
	if botToken == "" {
		return fmt.Errorf("post to channel %s: missing bot token", channelID)
	}

	client := slack.New(botToken)
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	_, _, err := client.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack channel %s: %w", channelID, err)
	}
	s.log.Debug().Str("channel", channelID).Str("thread_ts", threadTS).Msg("message posted")
	return nil
}

// PostResponseURL delivers text to a slash-command response URL. Response
// URLs are short-lived and single-purpose; there is nothing to retry against
// once one has been consumed or expired.
func (s *Sender) PostResponseURL(ctx context.Context, responseURL, text string) error {
	msg := &slack.WebhookMessage{Text: text}
	if err := slack.PostWebhookContext(ctx, responseURL, msg); err != nil {
		return fmt.Errorf("failed to post to response URL: %w", err)
	}
	return nil
}
