package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/benchline/internal/config"
	"github.com/zulandar/benchline/internal/notify"
	"github.com/zulandar/benchline/internal/notify/discord"
	"github.com/zulandar/benchline/internal/notify/slack"
)

// buildNotifier assembles the notification fan-out from config. Returns
// nil when no channel is configured.
func buildNotifier(cfg *config.Config) *notify.Notifier {
	var adapters []notify.Adapter

	if cfg.Notify.Command != "" {
		adapters = append(adapters, &notify.CommandAdapter{Command: cfg.Notify.Command})
	}
	if cfg.Notify.Slack.BotToken != "" && cfg.Notify.Slack.Channel != "" {
		adapters = append(adapters, slack.New(cfg.Notify.Slack.BotToken, cfg.Notify.Slack.Channel))
	}
	if cfg.Notify.Discord.BotToken != "" && cfg.Notify.Discord.Channel != "" {
		d, err := discord.New(cfg.Notify.Discord.BotToken, cfg.Notify.Discord.Channel)
		if err == nil {
			adapters = append(adapters, d)
		}
	}

	if len(adapters) == 0 {
		return nil
	}
	return notify.New(adapters...)
}

// sendNotification pushes one event to the configured channels.
// Best-effort: delivery failures never fail the command.
func sendNotification(cmd *cobra.Command, cfg *config.Config, severity, title, body string, fields ...notify.Field) {
	n := buildNotifier(cfg)
	if n == nil {
		return
	}
	defer n.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	n.Send(ctx, notify.Event{
		Title:    title,
		Body:     body,
		Severity: severity,
		Fields:   fields,
	})
	fmt.Fprintf(cmd.OutOrStdout(), "Notified: %s\n", title)
}
