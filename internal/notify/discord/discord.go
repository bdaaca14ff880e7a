// Package discord implements the notify Adapter for Discord.
package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/benchline/internal/notify"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Close() error
}

// Adapter posts events to one Discord channel as embeds.
type Adapter struct {
	session session
	channel string
}

// New creates a Discord adapter from a bot token and target channel ID.
func New(botToken, channel string) (*Adapter, error) {
	s, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return &Adapter{session: s, channel: channel}, nil
}

// Send posts the event as a colored embed.
func (a *Adapter) Send(ctx context.Context, ev notify.Event) error {
	fields := make([]*discordgo.MessageEmbedField, 0, len(ev.Fields))
	for _, f := range ev.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: true})
	}
	embed := &discordgo.MessageEmbed{
		Title:       ev.Title,
		Description: ev.Body,
		Color:       colorInt(notify.SeverityColor(ev.Severity)),
		Fields:      fields,
	}
	if _, err := a.session.ChannelMessageSendEmbed(a.channel, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

// Close shuts down the Discord session.
func (a *Adapter) Close() error {
	return a.session.Close()
}

// colorInt converts a "#RRGGBB" hint to the integer Discord expects.
func colorInt(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}
