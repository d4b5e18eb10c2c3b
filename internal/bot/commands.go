package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/DeadScore/slotbot/internal/calendar"
	"github.com/DeadScore/slotbot/internal/discord"
	"github.com/DeadScore/slotbot/internal/domain/events"
	"github.com/DeadScore/slotbot/internal/schedule"
)

const threadAutoArchiveMinutes = 1440

func choiceList(values ...string) []discord.CommandChoice {
	choices := make([]discord.CommandChoice, len(values))
	for i, v := range values {
		choices[i] = discord.CommandChoice{Name: v, Value: v}
	}
	return choices
}

func commandDefinitions() []discord.ApplicationCommand {
	return []discord.ApplicationCommand{
		{
			Type:        discord.CommandTypeSlash,
			Name:        "event",
			Description: "Erstellt ein Event mit Slots & Thread",
			Options: []discord.CommandOption{
				{Type: discord.CommandOptionString, Name: "art", Description: "Art des Events (PvE/PvP/PVX)", Required: true, Choices: choiceList("PvE", "PvP", "PVX")},
				{Type: discord.CommandOptionString, Name: "zweck", Description: "Zweck (z. B. EP Farmen)", Required: true},
				{Type: discord.CommandOptionString, Name: "ort", Description: "Ort (z. B. Carphin)", Required: true},
				{Type: discord.CommandOptionString, Name: "datum", Description: "Datum im Format DD.MM.YYYY", Required: true},
				{Type: discord.CommandOptionString, Name: "zeit", Description: "Zeit im Format HH:MM", Required: true},
				{Type: discord.CommandOptionString, Name: "level", Description: "Levelbereich", Required: true},
				{Type: discord.CommandOptionString, Name: "stil", Description: "Gemütlich oder Organisiert", Required: true, Choices: choiceList("Gemütlich", "Organisiert")},
				{Type: discord.CommandOptionString, Name: "slots", Description: "Slots (z. B. ⚔️:2 🛡️:1)", Required: true},
				{Type: discord.CommandOptionString, Name: "typ", Description: "Optional: Gruppe oder Raid", Choices: choiceList("Gruppe", "Raid")},
				{Type: discord.CommandOptionString, Name: "gruppenlead", Description: "Optional: Gruppenleiter"},
				{Type: discord.CommandOptionString, Name: "anmerkung", Description: "Optional: Freitext"},
			},
		},
		{
			Type:        discord.CommandTypeSlash,
			Name:        "event_edit",
			Description: "Bearbeite dein Event (Datum, Zeit, Ort, Level, Slots, Anmerkung)",
			Options: []discord.CommandOption{
				{Type: discord.CommandOptionString, Name: "datum", Description: "Neues Datum (DD.MM.YYYY)"},
				{Type: discord.CommandOptionString, Name: "zeit", Description: "Neue Zeit (HH:MM)"},
				{Type: discord.CommandOptionString, Name: "ort", Description: "Neuer Ort"},
				{Type: discord.CommandOptionString, Name: "level", Description: "Neuer Levelbereich"},
				{Type: discord.CommandOptionString, Name: "anmerkung", Description: "Neue Anmerkung"},
				{Type: discord.CommandOptionString, Name: "slots", Description: "Neue Slots (z. B. ⚔️:3 🛡️:2)"},
			},
		},
		{
			Type:        discord.CommandTypeSlash,
			Name:        "event_delete",
			Description: "Löscht nur dein eigenes Event",
		},
		{
			Type:        discord.CommandTypeSlash,
			Name:        "event_list",
			Description: "Listet alle aktiven Events auf dem Server auf",
		},
		{
			Type:        discord.CommandTypeSlash,
			Name:        "help",
			Description: "Zeigt eine ausführliche Erklärung aller Befehle an",
		},
	}
}

func (b *Bot) onInteraction(ctx context.Context, data json.RawMessage) {
	var inter discord.Interaction
	if err := json.Unmarshal(data, &inter); err != nil {
		b.logger.Error("decode interaction", "err", err)
		return
	}
	if inter.Type != discord.InteractionTypeCommand || inter.Data == nil {
		return
	}

	switch inter.Data.Name {
	case "event":
		b.handleEventCreate(ctx, &inter)
	case "event_edit":
		b.handleEventEdit(ctx, &inter)
	case "event_delete":
		b.handleEventDelete(ctx, &inter)
	case "event_list":
		b.handleEventList(ctx, &inter)
	case "help":
		b.handleHelp(ctx, &inter)
	}
}

// respond sends an ephemeral text answer to the invoking user.
func (b *Bot) respond(ctx context.Context, inter *discord.Interaction, content string) {
	err := b.rest.RespondToInteraction(ctx, inter.ID, inter.Token, discord.InteractionResponse{
		Type: discord.ResponseChannelMessage,
		Data: &discord.InteractionCallbackData{
			Content: content,
			Flags:   discord.MessageFlagEphemeral,
		},
	})
	if err != nil {
		b.logger.Error("interaction response failed", "command", inter.Data.Name, "err", err)
	}
}

func (b *Bot) respondEmbed(ctx context.Context, inter *discord.Interaction, embed discord.Embed) {
	err := b.rest.RespondToInteraction(ctx, inter.ID, inter.Token, discord.InteractionResponse{
		Type: discord.ResponseChannelMessage,
		Data: &discord.InteractionCallbackData{
			Embeds: []discord.Embed{embed},
			Flags:  discord.MessageFlagEphemeral,
		},
	})
	if err != nil {
		b.logger.Error("interaction response failed", "command", inter.Data.Name, "err", err)
	}
}

func (b *Bot) handleEventCreate(ctx context.Context, inter *discord.Interaction) {
	opts := inter.Data.OptionMap()

	startUTC, err := schedule.Parse(opts["datum"], opts["zeit"], b.loc)
	if err != nil {
		b.respond(ctx, inter, "❌ Ungültiges Format! Nutze DD.MM.YYYY HH:MM")
		return
	}
	if startUTC.Before(time.Now().UTC()) {
		b.respond(ctx, inter, "❌ Datum/Zeit liegt in der Vergangenheit!")
		return
	}

	slots, err := events.ParseSlots(opts["slots"])
	if err != nil {
		b.respond(ctx, inter, "❌ Keine gültigen Slots gefunden.")
		return
	}
	if bad, ok := events.ValidateSlots(slots, b.guildEmojiNames(ctx, inter.GuildID)); !ok {
		b.respond(ctx, inter, "❌ Ungültiges Emoji: "+bad)
		return
	}

	timeStr := schedule.FormatGerman(startUTC, b.loc)
	header := events.BuildHeader(events.HeaderInput{
		Type:     opts["art"],
		Purpose:  opts["zweck"],
		Place:    opts["ort"],
		Schedule: timeStr,
		Level:    opts["level"],
		Style:    opts["stil"],
		Kind:     opts["typ"],
		Lead:     opts["gruppenlead"],
		Note:     opts["anmerkung"],
	})

	details := calendarDetails(opts, timeStr)
	gcalURL := calendar.EventURL(
		fmt.Sprintf("%s (%s)", opts["zweck"], opts["art"]),
		startUTC, b.eventDuration, opts["ort"], details,
	)

	b.respond(ctx, inter, "✅ Event erstellt!")

	preview := events.Event{Header: header, Slots: slots}
	msg, err := b.rest.CreateMessage(ctx, inter.ChannelID, discord.MessageSend{
		Content:    preview.Content(),
		Components: []discord.Component{discord.LinkButtonRow("📆 Zum Google Kalender hinzufügen", gcalURL)},
	})
	if err != nil {
		b.logger.Error("event announcement failed", "err", err)
		return
	}

	failed := b.addSlotReactions(ctx, inter.ChannelID, msg.ID, slots)

	var threadID int64
	thread, err := b.rest.StartThread(ctx, inter.ChannelID, msg.ID,
		fmt.Sprintf("Event-Log: %s %s %s", opts["zweck"], opts["datum"], opts["zeit"]),
		threadAutoArchiveMinutes,
	)
	if err != nil {
		b.logger.Warn("event log thread failed", "err", err)
	} else {
		threadID = int64(thread.ID)
		jump := jumpURL(inter.GuildID, inter.ChannelID, msg.ID)
		if _, err := b.rest.CreateMessage(ctx, thread.ID, discord.MessageSend{
			Content: "🧵 Event-Log für: " + opts["zweck"] + " — " + jump,
		}); err != nil {
			b.logger.Warn("event log post failed", "err", err)
		}
		if len(failed) > 0 {
			_, _ = b.rest.CreateMessage(ctx, thread.ID, discord.MessageSend{
				Content: "⚠️ Einige Emojis konnten nicht hinzugefügt werden: " + strings.Join(failed, ", "),
			})
		}
	}

	ev := events.Event{
		MessageID: int64(msg.ID),
		GuildID:   int64(inter.GuildID),
		ChannelID: int64(inter.ChannelID),
		CreatorID: int64(inter.Sender().ID),
		ThreadID:  threadID,
		Title:     opts["zweck"],
		Header:    header,
		StartsAt:  startUTC,
		Slots:     slots,
	}
	if err := b.svc.Create(ctx, ev); err != nil {
		b.logger.Error("event save failed", "message_id", ev.MessageID, "err", err)
	}
}

func (b *Bot) handleEventEdit(ctx context.Context, inter *discord.Interaction) {
	user := inter.Sender()
	ev, err := b.svc.LatestOwned(ctx, int64(inter.ChannelID), int64(user.ID))
	if err != nil {
		b.respond(ctx, inter, "❌ Du hast hier kein eigenes Event.")
		return
	}

	opts := inter.Data.OptionMap()
	var edit events.Edit

	if opts["datum"] != "" || opts["zeit"] != "" {
		date, clock := opts["datum"], opts["zeit"]
		if date == "" || clock == "" {
			if ev.StartsAt.IsZero() {
				b.respond(ctx, inter, "❌ Fehler im Datumsformat (DD.MM.YYYY / HH:MM).")
				return
			}
			// missing half falls back to the event's current schedule
			oldLocal := ev.StartsAt.In(b.loc)
			if date == "" {
				date = oldLocal.Format(schedule.DateLayout)
			}
			if clock == "" {
				clock = oldLocal.Format(schedule.ClockLayout)
			}
		}
		newUTC, err := schedule.Parse(date, clock, b.loc)
		if err != nil {
			b.respond(ctx, inter, "❌ Fehler im Datumsformat (DD.MM.YYYY / HH:MM).")
			return
		}
		edit.StartsAt = newUTC
		edit.ScheduleText = schedule.FormatGerman(newUTC, b.loc)
		edit.ScheduleOld = schedule.FormatGerman(ev.StartsAt, b.loc)
	}

	edit.Place = opts["ort"]
	edit.Level = opts["level"]
	edit.Note = opts["anmerkung"]

	slotsChanged := false
	if opts["slots"] != "" {
		slots, err := events.ParseSlots(opts["slots"])
		if err != nil {
			b.respond(ctx, inter, "❌ Ungültige Slots. Beispiel: ⚔️:2 🛡️:1")
			return
		}
		if bad, ok := events.ValidateSlots(slots, b.guildEmojiNames(ctx, inter.GuildID)); !ok {
			b.respond(ctx, inter, "❌ Ungültiges Emoji: "+bad)
			return
		}
		edit.Slots = slots
		slotsChanged = true
	}

	updated, changes, err := b.svc.Apply(ctx, ev.MessageID, int64(user.ID), edit)
	if err != nil {
		if errors.Is(err, events.ErrNotCreator) {
			b.respond(ctx, inter, "❌ Du hast hier kein eigenes Event.")
			return
		}
		b.logger.Error("event edit failed", "message_id", ev.MessageID, "err", err)
		b.respond(ctx, inter, "⚠️ Das Event konnte nicht aktualisiert werden.")
		return
	}

	if slotsChanged {
		channelID := discord.Snowflake(updated.ChannelID)
		messageID := discord.Snowflake(updated.MessageID)
		if err := b.rest.DeleteAllReactions(ctx, channelID, messageID); err != nil {
			b.logger.Warn("clearing reactions failed", "err", err)
		}
		b.addSlotReactions(ctx, channelID, messageID, updated.Slots)
	}

	b.updateEventMessage(ctx, updated)
	b.respond(ctx, inter, "✅ Event aktualisiert.")

	if len(changes) > 0 {
		b.postEventLog(ctx, &updated, fmt.Sprintf("✏️ **%s** hat das Event bearbeitet (%s).",
			events.Mention(int64(user.ID)), strings.Join(changes, ", ")))
	}
}

func (b *Bot) handleEventDelete(ctx context.Context, inter *discord.Interaction) {
	user := inter.Sender()
	ev, err := b.svc.LatestOwned(ctx, int64(inter.ChannelID), int64(user.ID))
	if err != nil {
		b.respond(ctx, inter, "❌ Du hast hier kein eigenes Event.")
		return
	}

	if err := b.rest.DeleteMessage(ctx, discord.Snowflake(ev.ChannelID), discord.Snowflake(ev.MessageID)); err != nil {
		b.respond(ctx, inter, "❌ Fehler beim Löschen: "+err.Error())
		return
	}
	if ev.ThreadID != 0 {
		if err := b.rest.DeleteChannel(ctx, discord.Snowflake(ev.ThreadID)); err != nil {
			b.logger.Warn("thread delete failed", "thread_id", ev.ThreadID, "err", err)
		}
	}
	if _, err := b.svc.Remove(ctx, ev.MessageID, int64(user.ID)); err != nil {
		b.logger.Error("event remove failed", "message_id", ev.MessageID, "err", err)
	}
	b.respond(ctx, inter, "✅ Dein Event wurde gelöscht.")
}

func (b *Bot) handleEventList(ctx context.Context, inter *discord.Interaction) {
	evs, err := b.svc.List(ctx)
	if err != nil {
		b.logger.Error("event list failed", "err", err)
		b.respond(ctx, inter, "⚠️ Events konnten nicht geladen werden.")
		return
	}
	if len(evs) == 0 {
		b.respond(ctx, inter, "ℹ️ Es sind keine aktiven Events vorhanden.")
		return
	}

	lines := make([]string, 0, len(evs))
	for _, ev := range evs {
		when := "unbekannt"
		if !ev.StartsAt.IsZero() {
			when = schedule.FormatGerman(ev.StartsAt, b.loc)
		}
		jump := jumpURL(discord.Snowflake(ev.GuildID), discord.Snowflake(ev.ChannelID), discord.Snowflake(ev.MessageID))
		lines = append(lines, fmt.Sprintf("• **%s** — %s — von %s — <#%d> — [zum Event](%s)",
			ev.Title, when, events.Mention(ev.CreatorID), ev.ChannelID, jump))
	}

	b.respondEmbed(ctx, inter, discord.Embed{
		Title:       "📅 Aktive Events (Serverweit)",
		Description: strings.Join(lines, "\n"),
		Color:       0x2ECC71,
	})
}

func (b *Bot) handleHelp(ctx context.Context, inter *discord.Interaction) {
	b.respondEmbed(ctx, inter, discord.Embed{
		Title: "📖 SlotBot – Ausführliche Hilfe",
		Description: "Der SlotBot hilft dir, Events zu erstellen, zu verwalten und übersichtlich zu halten.\n" +
			"Unten findest du alle Befehle mit Beispielen und Hinweisen.",
		Color: 0x5865F2,
		Fields: []discord.EmbedField{
			{
				Name: "🆕 /event",
				Value: "**Beschreibung:** Erstellt ein neues Event mit Slots und Thread.\n" +
					"**Pflichtfelder:** `art`, `zweck`, `ort`, `datum`, `zeit`, `level`, `stil`, `slots`\n" +
					"**Optional:** `typ`, `gruppenlead`, `anmerkung`\n" +
					"**Beispiel:**\n" +
					"`/event art:PvE zweck:\"XP Farmen\" ort:\"Calpheon\" datum:27.10.2025 zeit:20:00 level:61+ stil:\"Organisiert\" slots:\"⚔️:3 🛡️:1\"`",
			},
			{
				Name: "✏️ /event_edit",
				Value: "**Beschreibung:** Bearbeitet **dein** Event (nur Ersteller).\n" +
					"**Unterstützt:** `datum`, `zeit`, `ort`, `level`, `anmerkung`, `slots`\n" +
					"**Anzeige:** Alte Werte werden `~~durchgestrichen~~ → neu` angezeigt (nur letzte Änderung).",
			},
			{
				Name:  "🗑️ /event_delete",
				Value: "**Beschreibung:** Löscht **dein** aktuelles Event im Channel (nur Ersteller).",
			},
			{
				Name:  "🗓️ /event_list",
				Value: "**Beschreibung:** Zeigt alle **aktiven Events des gesamten Servers** mit Zeit, Ersteller & Channel-Link.",
			},
		},
	})
}

// postEventLog writes to the event's thread, unarchiving or recreating it
// when necessary.
func (b *Bot) postEventLog(ctx context.Context, ev *events.Event, content string) {
	threadID := b.ensureThread(ctx, ev)
	if threadID == 0 {
		b.logger.Warn("no thread available for event log", "message_id", ev.MessageID)
		return
	}
	if _, err := b.rest.CreateMessage(ctx, threadID, discord.MessageSend{Content: content}); err != nil {
		b.logger.Warn("event log post failed", "thread_id", threadID, "err", err)
	}
}

func (b *Bot) ensureThread(ctx context.Context, ev *events.Event) discord.Snowflake {
	if ev.ThreadID != 0 {
		ch, err := b.rest.Channel(ctx, discord.Snowflake(ev.ThreadID))
		if err == nil {
			if ch.ThreadMetadata != nil && ch.ThreadMetadata.Archived {
				if err := b.rest.UnarchiveThread(ctx, ch.ID); err != nil {
					b.logger.Warn("thread unarchive failed", "thread_id", ev.ThreadID, "err", err)
				}
			}
			return ch.ID
		}
	}

	thread, err := b.rest.StartThread(ctx,
		discord.Snowflake(ev.ChannelID), discord.Snowflake(ev.MessageID),
		"Event-Log (neu): "+ev.Title, threadAutoArchiveMinutes)
	if err != nil {
		b.logger.Warn("thread recreate failed", "message_id", ev.MessageID, "err", err)
		return 0
	}
	ev.ThreadID = int64(thread.ID)
	if err := b.svc.SetThread(ctx, ev.MessageID, ev.ThreadID); err != nil {
		b.logger.Warn("thread id save failed", "message_id", ev.MessageID, "err", err)
	}
	return thread.ID
}

func (b *Bot) addSlotReactions(ctx context.Context, channelID, messageID discord.Snowflake, slots []*events.Slot) []string {
	var failed []string
	for _, slot := range slots {
		if err := b.rest.CreateReaction(ctx, channelID, messageID, discord.ParseEmoji(slot.Emoji)); err != nil {
			failed = append(failed, slot.Emoji)
		}
	}
	return failed
}

func (b *Bot) guildEmojiNames(ctx context.Context, guildID discord.Snowflake) []string {
	emoji, err := b.rest.GuildEmojis(ctx, guildID)
	if err != nil {
		b.logger.Warn("guild emoji lookup failed", "guild_id", guildID, "err", err)
		return nil
	}
	names := make([]string, len(emoji))
	for i, e := range emoji {
		names[i] = e.Display()
	}
	return names
}

func calendarDetails(opts map[string]string, timeStr string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Art: %s\n", opts["art"])
	fmt.Fprintf(&b, "Zweck: %s\n", opts["zweck"])
	fmt.Fprintf(&b, "Ort: %s\n", opts["ort"])
	fmt.Fprintf(&b, "Datum/Zeit: %s\n", timeStr)
	fmt.Fprintf(&b, "Level: %s\n", opts["level"])
	fmt.Fprintf(&b, "Stil: %s", opts["stil"])
	if v := opts["typ"]; v != "" {
		fmt.Fprintf(&b, "\nTyp: %s", v)
	}
	if v := opts["gruppenlead"]; v != "" {
		fmt.Fprintf(&b, "\nGruppenlead: %s", v)
	}
	if v := opts["anmerkung"]; v != "" {
		fmt.Fprintf(&b, "\nAnmerkung: %s", v)
	}
	return b.String()
}

func jumpURL(guildID, channelID, messageID discord.Snowflake) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}
