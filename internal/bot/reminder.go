package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/DeadScore/slotbot/internal/discord"
)

// RunReminders ticks until the context ends, sending start-time DMs to
// signed-up users. Reminded users are marked by the domain service, so a DM
// goes out at most once per user per event.
func (b *Bot) RunReminders(ctx context.Context) {
	ticker := time.NewTicker(b.reminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		due, err := b.svc.DueReminders(ctx, time.Now().UTC(), b.reminderLead)
		if err != nil {
			b.logger.Error("reminder sweep failed", "err", err)
			continue
		}
		for _, r := range due {
			msg := fmt.Sprintf("⏰ Dein Event **%s** startet in %d Minuten!", r.Title, int(b.reminderLead.Minutes()))
			if err := b.rest.SendDM(ctx, discord.Snowflake(r.UserID), msg); err != nil {
				b.logger.Warn("reminder dm failed", "user_id", r.UserID, "err", err)
			}
		}
	}
}
