package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// SlackNotifier posts notable interaction events to a Slack channel.
// Only high-signal events (conflicts and large relationship swings)
// are forwarded; the stream backends carry the full feed.
type SlackNotifier struct {
	client    *slack.Client
	channelID string
	logger    *zap.Logger
}

// NewSlackNotifier creates a notifier posting to the given channel.
// token is the Bot User OAuth Token (xoxb-...).
func NewSlackNotifier(token, channelID string, logger *zap.Logger) *SlackNotifier {
	return &SlackNotifier{
		client:    slack.New(token),
		channelID: channelID,
		logger:    logger,
	}
}

// Notify posts a summary line for notable events.
func (n *SlackNotifier) Notify(ctx context.Context, ecosystemID string, ev *Event) error {
	if !notable(ev) {
		return nil
	}
	_, _, err := n.client.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(formatEvent(ecosystemID, ev), false),
	)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}

// notable filters for events worth pushing into a chat channel.
func notable(ev *Event) bool {
	if ev.Kind == "conflict" {
		return true
	}
	if ev.StrengthDelta > 0.1 || ev.StrengthDelta < -0.05 {
		return true
	}
	return false
}

func formatEvent(ecosystemID string, ev *Event) string {
	return fmt.Sprintf("[%s] %s → %s (%s): strength %+.3f → %.2f, trust %+.3f → %.2f\n> %s",
		ecosystemID, ev.InitiatorName, ev.TargetName, ev.Kind,
		ev.StrengthDelta, ev.NewStrength, ev.TrustDelta, ev.NewTrust,
		ev.Response)
}
