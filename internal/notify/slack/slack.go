// Package slack implements the notify Adapter for Slack using the Web API.
package slack

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/benchline/internal/notify"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter posts events to one Slack channel.
type Adapter struct {
	client  slackClient
	channel string
}

// New creates a Slack adapter from a bot token and target channel.
func New(botToken, channel string) *Adapter {
	return &Adapter{
		client:  slackapi.New(botToken),
		channel: channel,
	}
}

// Send posts the event as a colored attachment.
func (a *Adapter) Send(ctx context.Context, ev notify.Event) error {
	fields := make([]slackapi.AttachmentField, 0, len(ev.Fields))
	for _, f := range ev.Fields {
		fields = append(fields, slackapi.AttachmentField{Title: f.Name, Value: f.Value, Short: true})
	}
	attachment := slackapi.Attachment{
		Color:  notify.SeverityColor(ev.Severity),
		Title:  ev.Title,
		Text:   ev.Body,
		Fields: fields,
	}
	_, _, err := a.client.PostMessageContext(ctx, a.channel, slackapi.MsgOptionAttachments(attachment))
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// Close is a no-op: the Web API client holds no connection.
func (a *Adapter) Close() error { return nil }
