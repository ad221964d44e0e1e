package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordNotifier posts notable interaction events to a Discord
// channel using the bot REST API. No gateway websocket is needed for
// outbound-only messages.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
	logger    *zap.Logger
}

// NewDiscordNotifier creates a notifier posting to the given channel.
func NewDiscordNotifier(token, channelID string, logger *zap.Logger) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
		logger:    logger,
	}, nil
}

// Notify posts a summary line for notable events.
func (n *DiscordNotifier) Notify(ctx context.Context, ecosystemID string, ev *Event) error {
	if !notable(ev) {
		return nil
	}
	_, err := n.session.ChannelMessageSend(n.channelID,
		formatEvent(ecosystemID, ev),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("discord post: %w", err)
	}
	return nil
}

// Close releases the session.
func (n *DiscordNotifier) Close() error {
	return n.session.Close()
}
