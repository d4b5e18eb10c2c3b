// Package bot wires gateway events to the event domain: slash commands,
// reaction signups, and the reminder loop.
package bot

import (
	"context"
	"sync"
	"time"

	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/DeadScore/slotbot/internal/discord"
	"github.com/DeadScore/slotbot/internal/domain/events"
)

// Options configures the bot.
type Options struct {
	Logger           *slog.Logger
	REST             *discord.Client
	Events           events.Service
	Location         *time.Location
	EventDuration    time.Duration
	ReminderLead     time.Duration
	ReminderInterval time.Duration
}

// Bot handles Discord-facing behavior on top of the event service.
type Bot struct {
	logger           *slog.Logger
	rest             *discord.Client
	svc              events.Service
	loc              *time.Location
	eventDuration    time.Duration
	reminderLead     time.Duration
	reminderInterval time.Duration

	mu        sync.Mutex
	appID     discord.Snowflake
	botUserID discord.Snowflake
}

// New constructs the bot.
func New(opts Options) *Bot {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Bot{
		logger:           logger,
		rest:             opts.REST,
		svc:              opts.Events,
		loc:              loc,
		eventDuration:    opts.EventDuration,
		reminderLead:     opts.ReminderLead,
		reminderInterval: opts.ReminderInterval,
	}
}

// Intents returns the gateway intents the bot needs.
func Intents() int {
	return discord.IntentGuilds |
		discord.IntentGuildMembers |
		discord.IntentGuildMessages |
		discord.IntentGuildMessageReactions |
		discord.IntentDirectMessages |
		discord.IntentMessageContent
}

// HandleGatewayEvent dispatches gateway events. It is the discord.Gateway
// event handler.
func (b *Bot) HandleGatewayEvent(ctx context.Context, eventType string, data json.RawMessage) {
	switch eventType {
	case "READY":
		b.onReady(ctx, data)
	case "INTERACTION_CREATE":
		b.onInteraction(ctx, data)
	case "MESSAGE_REACTION_ADD":
		b.onReactionAdd(ctx, data)
	case "MESSAGE_REACTION_REMOVE":
		b.onReactionRemove(ctx, data)
	}
}

func (b *Bot) onReady(ctx context.Context, data json.RawMessage) {
	var ready discord.Ready
	if err := json.Unmarshal(data, &ready); err != nil {
		b.logger.Error("decode ready", "err", err)
		return
	}

	b.mu.Lock()
	b.appID = ready.Application.ID
	b.botUserID = ready.User.ID
	b.mu.Unlock()

	b.logger.Info("slotbot online", "user", ready.User.Username)

	if err := b.rest.SetGlobalCommands(ctx, ready.Application.ID, commandDefinitions()); err != nil {
		b.logger.Error("slash command sync failed", "err", err)
		return
	}
	b.logger.Info("slash commands synchronized")
}

// updateEventMessage re-renders the anchor message. The anchor is fetched
// first because gateway events occasionally race message availability; the
// fetch retries briefly.
func (b *Bot) updateEventMessage(ctx context.Context, ev events.Event) {
	channelID := discord.Snowflake(ev.ChannelID)
	messageID := discord.Snowflake(ev.MessageID)
	if _, err := b.rest.MessageRetry(ctx, channelID, messageID); err != nil {
		b.logger.Warn("anchor message unavailable", "message_id", ev.MessageID, "err", err)
		return
	}
	if _, err := b.rest.EditMessage(ctx, channelID, messageID, discord.MessageSend{Content: ev.Content()}); err != nil {
		b.logger.Warn("event message update failed", "message_id", ev.MessageID, "err", err)
	}
}
