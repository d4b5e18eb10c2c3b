package bot

import (
	"context"
	"errors"

	json "github.com/goccy/go-json"

	"github.com/DeadScore/slotbot/internal/discord"
	"github.com/DeadScore/slotbot/internal/domain/events"
)

func (b *Bot) onReactionAdd(ctx context.Context, data json.RawMessage) {
	var e discord.ReactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		b.logger.Error("decode reaction add", "err", err)
		return
	}

	b.mu.Lock()
	self := b.botUserID
	b.mu.Unlock()
	if e.UserID == self {
		return
	}

	emoji := e.Emoji.Display()
	ev, err := b.svc.Get(ctx, int64(e.MessageID))
	if err != nil {
		// reactions on unrelated messages are routine
		if !errors.Is(err, events.ErrNotFound) {
			b.logger.Warn("event lookup failed", "message_id", e.MessageID, "err", err)
		}
		return
	}
	if ev.Slot(emoji) == nil {
		return
	}

	// One reaction per user: strip their reactions on the other slots.
	for _, slot := range ev.Slots {
		if slot.Emoji == emoji {
			continue
		}
		if err := b.rest.DeleteUserReaction(ctx, e.ChannelID, e.MessageID, discord.ParseEmoji(slot.Emoji), e.UserID); err != nil {
			b.logger.Debug("reaction cleanup failed", "emoji", slot.Emoji, "err", err)
		}
	}

	ev, err = b.svc.SignUp(ctx, int64(e.MessageID), int64(e.UserID), emoji)
	if err != nil {
		if errors.Is(err, events.ErrAlreadyJoined) || errors.Is(err, events.ErrSlotUnknown) {
			return
		}
		b.logger.Error("signup failed", "message_id", e.MessageID, "user_id", e.UserID, "err", err)
		return
	}

	b.updateEventMessage(ctx, ev)
}

func (b *Bot) onReactionRemove(ctx context.Context, data json.RawMessage) {
	var e discord.ReactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		b.logger.Error("decode reaction remove", "err", err)
		return
	}

	emoji := e.Emoji.Display()
	ev, promoted, err := b.svc.Withdraw(ctx, int64(e.MessageID), int64(e.UserID), emoji)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) || errors.Is(err, events.ErrSlotUnknown) {
			return
		}
		b.logger.Error("withdraw failed", "message_id", e.MessageID, "user_id", e.UserID, "err", err)
		return
	}

	b.updateEventMessage(ctx, ev)

	if promoted != 0 {
		msg := "🎟️ Du bist jetzt im **Hauptslot** für **" + ev.Title + "**! Viel Spaß 🎉"
		if err := b.rest.SendDM(ctx, discord.Snowflake(promoted), msg); err != nil {
			b.logger.Warn("promotion dm failed", "user_id", promoted, "err", err)
		}
	}
}
