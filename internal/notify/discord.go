package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ChannelSender is the part of *discordgo.Session the notifier needs.
type ChannelSender interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ ChannelSender = (*discordgo.Session)(nil)

// DiscordNotifier posts completion messages to a guild text channel.
type DiscordNotifier struct {
	sender ChannelSender
	state  *discordgo.State
}

func NewDiscordNotifier(s *discordgo.Session) *DiscordNotifier {
	return &DiscordNotifier{sender: s, state: s.State}
}

// NewDiscordNotifierWithSender builds a notifier without a state cache,
// so every channel lookup goes to the API.
func NewDiscordNotifierWithSender(sender ChannelSender) *DiscordNotifier {
	return &DiscordNotifier{sender: sender}
}

func (d *DiscordNotifier) channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if d.state != nil {
		if channel, err := d.state.Channel(channelID); err == nil {
			return channel, nil
		}
	}

	channel, err := d.sender.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
	}
	return channel, nil
}

func (d *DiscordNotifier) Notify(ctx context.Context, n Notification) error {
	channel, err := d.channel(ctx, n.ChannelID)
	if err != nil {
		return err
	}

	msg := &discordgo.MessageSend{
		Content: CompletionMessage(n),
		// Only the owner is pinged; free text in the target or note cannot mention anyone else.
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Users: []string{n.UserID},
		},
	}
	if _, err := d.sender.ChannelMessageSendComplex(channel.ID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send completion message to channel %s: %w", channel.ID, err)
	}
	return nil
}

var _ Notifier = (*DiscordNotifier)(nil)
