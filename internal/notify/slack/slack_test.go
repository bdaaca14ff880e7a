package slack

import (
	"context"
	"errors"
	"testing"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/benchline/internal/notify"
)

type mockClient struct {
	channel string
	options []slackapi.MsgOption
	err     error
	calls   int
}

func (m *mockClient) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.calls++
	m.channel = channelID
	m.options = options
	if m.err != nil {
		return "", "", m.err
	}
	return channelID, "123.456", nil
}

func TestSend(t *testing.T) {
	mock := &mockClient{}
	a := &Adapter{client: mock, channel: "C123"}

	ev := notify.Event{
		Title:    "Order wo-1a2b3 scheduled",
		Body:     "2024-06-01 to 2024-06-05",
		Severity: "success",
		Fields:   []notify.Field{{Name: "Workers", Value: "w-1, w-2"}},
	}
	if err := a.Send(context.Background(), ev); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 post, got %d", mock.calls)
	}
	if mock.channel != "C123" {
		t.Errorf("posted to channel %q, want C123", mock.channel)
	}
	if len(mock.options) != 1 {
		t.Errorf("expected 1 message option (attachments), got %d", len(mock.options))
	}
}

func TestSendError(t *testing.T) {
	mock := &mockClient{err: errors.New("channel_not_found")}
	a := &Adapter{client: mock, channel: "C123"}

	err := a.Send(context.Background(), notify.Event{Title: "x"})
	if err == nil {
		t.Fatal("expected error when the API call fails")
	}
}

func TestClose(t *testing.T) {
	a := &Adapter{client: &mockClient{}, channel: "C123"}
	if err := a.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
}
