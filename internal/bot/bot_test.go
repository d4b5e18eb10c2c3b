package bot_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/DeadScore/slotbot/internal/bot"
	"github.com/DeadScore/slotbot/internal/discord"
	"github.com/DeadScore/slotbot/internal/domain/events"
	"github.com/DeadScore/slotbot/internal/storage/memory"
)

// fakeAPI answers every Discord REST call with an empty success and records
// the requests it saw.
type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	dms      chan string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{dms: make(chan string, 16)}
}

func (f *fakeAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()

		switch {
		case r.URL.Path == "/users/@me/channels":
			_ = json.NewEncoder(w).Encode(discord.Channel{ID: 777, Type: discord.ChannelTypeDM})
		case r.Method == http.MethodPost && r.URL.Path == "/channels/777/messages":
			var m discord.MessageSend
			_ = json.NewDecoder(r.Body).Decode(&m)
			f.dms <- m.Content
			_ = json.NewEncoder(w).Encode(discord.Message{ID: 1})
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}
}

func (f *fakeAPI) saw(fragment string) bool {
	for _, req := range f.snapshot() {
		if strings.Contains(req, fragment) {
			return true
		}
	}
	return false
}

func (f *fakeAPI) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newTestBot(t *testing.T, api *fakeAPI) (*bot.Bot, events.Service) {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	rest := discord.NewClient(discord.ClientOptions{
		Token:      "test-token",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	svc := events.NewService(memory.NewEventRepository())
	b := bot.New(bot.Options{
		REST:             rest,
		Events:           svc,
		EventDuration:    2 * time.Hour,
		ReminderLead:     10 * time.Minute,
		ReminderInterval: 5 * time.Millisecond,
	})

	// Deliver READY so the bot knows its own IDs.
	b.HandleGatewayEvent(context.Background(), "READY", json.RawMessage(
		`{"user":{"id":"500","username":"slotbot"},"session_id":"s","application":{"id":"5"}}`,
	))
	if !api.saw("PUT /applications/5/commands") {
		t.Fatalf("expected command sync after READY, saw %v", api.snapshot())
	}
	return b, svc
}

func seedEvent(t *testing.T, svc events.Service) {
	t.Helper()
	err := svc.Create(context.Background(), events.Event{
		MessageID: 1,
		GuildID:   100,
		ChannelID: 200,
		CreatorID: 1,
		Title:     "Raid Abend",
		Header:    "header",
		StartsAt:  time.Now().UTC().Add(24 * time.Hour),
		Slots: []*events.Slot{
			{Emoji: "⚔️", Limit: 1},
			{Emoji: "🛡️", Limit: 1},
		},
	})
	if err != nil {
		t.Fatalf("seed event failed: %v", err)
	}
}

func reactionPayload(userID int64, emoji string) json.RawMessage {
	raw, _ := json.Marshal(discord.ReactionEvent{
		UserID:    discord.Snowflake(userID),
		ChannelID: 200,
		MessageID: 1,
		GuildID:   100,
		Emoji:     discord.ParseEmoji(emoji),
	})
	return raw
}

func TestReactionAddSignsUp(t *testing.T) {
	api := newFakeAPI()
	b, svc := newTestBot(t, api)
	seedEvent(t, svc)

	b.HandleGatewayEvent(context.Background(), "MESSAGE_REACTION_ADD", reactionPayload(10, "⚔️"))

	ev, err := svc.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	slot := ev.Slot("⚔️")
	if len(slot.Main) != 1 || slot.Main[0] != 10 {
		t.Fatalf("signup not recorded: %+v", slot)
	}
	if !api.saw("PATCH /channels/200/messages/1") {
		t.Fatalf("anchor message not updated, saw %v", api.snapshot())
	}
	// The other slot's reaction must be cleared for this user.
	if !api.saw("/reactions/") {
		t.Fatalf("expected reaction cleanup, saw %v", api.snapshot())
	}
}

func TestReactionAddIgnoresOwnReaction(t *testing.T) {
	api := newFakeAPI()
	b, svc := newTestBot(t, api)
	seedEvent(t, svc)

	b.HandleGatewayEvent(context.Background(), "MESSAGE_REACTION_ADD", reactionPayload(500, "⚔️"))

	ev, err := svc.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(ev.Slot("⚔️").Main) != 0 {
		t.Fatalf("bot's own reaction must not sign up: %+v", ev.Slot("⚔️"))
	}
}

func TestReactionRemoveSendsPromotionDM(t *testing.T) {
	api := newFakeAPI()
	b, svc := newTestBot(t, api)
	seedEvent(t, svc)

	ctx := context.Background()
	for _, uid := range []int64{10, 11} {
		if _, err := svc.SignUp(ctx, 1, uid, "⚔️"); err != nil {
			t.Fatalf("signup failed: %v", err)
		}
	}

	b.HandleGatewayEvent(ctx, "MESSAGE_REACTION_REMOVE", reactionPayload(10, "⚔️"))

	ev, err := svc.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	slot := ev.Slot("⚔️")
	if len(slot.Main) != 1 || slot.Main[0] != 11 {
		t.Fatalf("waitlist promotion missing: %+v", slot)
	}

	select {
	case dm := <-api.dms:
		if !strings.Contains(dm, "Hauptslot") || !strings.Contains(dm, "Raid Abend") {
			t.Fatalf("unexpected promotion dm: %q", dm)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a promotion dm")
	}
}

func TestRunRemindersSendsDueDMs(t *testing.T) {
	api := newFakeAPI()
	b, svc := newTestBot(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := svc.Create(ctx, events.Event{
		MessageID: 1,
		GuildID:   100,
		ChannelID: 200,
		CreatorID: 1,
		Title:     "Raid Abend",
		StartsAt:  time.Now().UTC().Add(5 * time.Minute),
		Slots:     []*events.Slot{{Emoji: "⚔️", Limit: 2, Main: []int64{10}}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	go b.RunReminders(ctx)

	select {
	case dm := <-api.dms:
		if !strings.Contains(dm, "Raid Abend") || !strings.Contains(dm, "10 Minuten") {
			t.Fatalf("unexpected reminder dm: %q", dm)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a reminder dm")
	}
}
