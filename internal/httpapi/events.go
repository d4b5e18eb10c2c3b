package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/DeadScore/slotbot/internal/domain/events"
)

// EventSummary is the wire form of an event for the read API.
type EventSummary struct {
	MessageID string        `json:"message_id"`
	GuildID   string        `json:"guild_id"`
	ChannelID string        `json:"channel_id"`
	CreatorID string        `json:"creator_id"`
	Title     string        `json:"title"`
	StartsAt  string        `json:"starts_at,omitempty"`
	Slots     []SlotSummary `json:"slots"`
}

// SlotSummary reports per-slot occupancy.
type SlotSummary struct {
	Emoji    string `json:"emoji"`
	Limit    int    `json:"limit"`
	Taken    int    `json:"taken"`
	Waitlist int    `json:"waitlist"`
}

func registerEventRoutes(mux *http.ServeMux, logger *slog.Logger, svc events.Service) {
	mux.HandleFunc("/v1/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			logger.Error("failed to list events", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}

		summaries := make([]EventSummary, 0, len(list))
		for _, ev := range list {
			summaries = append(summaries, summarize(ev))
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"events": summaries,
			"count":  len(summaries),
		})
	})
}

func summarize(ev events.Event) EventSummary {
	s := EventSummary{
		MessageID: strconv.FormatInt(ev.MessageID, 10),
		GuildID:   strconv.FormatInt(ev.GuildID, 10),
		ChannelID: strconv.FormatInt(ev.ChannelID, 10),
		CreatorID: strconv.FormatInt(ev.CreatorID, 10),
		Title:     ev.Title,
		Slots:     make([]SlotSummary, 0, len(ev.Slots)),
	}
	if !ev.StartsAt.IsZero() {
		s.StartsAt = ev.StartsAt.UTC().Format(time.RFC3339)
	}
	for _, slot := range ev.Slots {
		s.Slots = append(s.Slots, SlotSummary{
			Emoji:    slot.Emoji,
			Limit:    slot.Limit,
			Taken:    len(slot.Main),
			Waitlist: len(slot.Waitlist),
		})
	}
	return s
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// If encoding fails there's not much we can do; log to stderr.
		slog.Default().Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
