package discord_test

import (
	"testing"

	json "github.com/goccy/go-json"

	"github.com/DeadScore/slotbot/internal/discord"
)

func TestSnowflakeJSON(t *testing.T) {
	type wrapper struct {
		ID discord.Snowflake `json:"id"`
	}

	out, err := json.Marshal(wrapper{ID: 123456789012345678})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != `{"id":"123456789012345678"}` {
		t.Fatalf("snowflakes must marshal as strings, got %s", out)
	}

	for _, raw := range []string{`{"id":"42"}`, `{"id":42}`} {
		var w wrapper
		if err := json.Unmarshal([]byte(raw), &w); err != nil {
			t.Fatalf("unmarshal %s failed: %v", raw, err)
		}
		if w.ID != 42 {
			t.Fatalf("expected 42 from %s, got %d", raw, w.ID)
		}
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"id":null}`), &w); err != nil {
		t.Fatalf("unmarshal null failed: %v", err)
	}
	if w.ID != 0 {
		t.Fatalf("expected 0 for null, got %d", w.ID)
	}
}

func TestEmojiDisplay(t *testing.T) {
	cases := []struct {
		emoji discord.Emoji
		want  string
	}{
		{discord.Emoji{Name: "⚔️"}, "⚔️"},
		{discord.Emoji{ID: 123, Name: "tank"}, "<:tank:123>"},
		{discord.Emoji{ID: 123, Name: "party", Animated: true}, "<a:party:123>"},
	}
	for _, c := range cases {
		if got := c.emoji.Display(); got != c.want {
			t.Fatalf("Display(%+v) = %q, want %q", c.emoji, got, c.want)
		}
	}
}

func TestEmojiReaction(t *testing.T) {
	if got := (discord.Emoji{Name: "⚔️"}).Reaction(); got != "⚔️" {
		t.Fatalf("unicode reaction form: %q", got)
	}
	if got := (discord.Emoji{ID: 123, Name: "tank"}).Reaction(); got != "tank:123" {
		t.Fatalf("custom reaction form: %q", got)
	}
}

func TestParseEmojiRoundTrip(t *testing.T) {
	for _, display := range []string{"⚔️", "<:tank:123>", "<a:party:456>"} {
		e := discord.ParseEmoji(display)
		if got := e.Display(); got != display {
			t.Fatalf("ParseEmoji(%q).Display() = %q", display, got)
		}
	}

	if e := discord.ParseEmoji("<notanemoji>"); e.ID != 0 || e.Name != "<notanemoji>" {
		t.Fatalf("malformed tag should stay a literal name: %+v", e)
	}
}

func TestInteractionSender(t *testing.T) {
	guild := discord.Interaction{Member: &discord.Member{User: discord.User{ID: 1, Username: "a"}}}
	if guild.Sender().ID != 1 {
		t.Fatalf("guild sender not resolved")
	}
	dm := discord.Interaction{User: &discord.User{ID: 2, Username: "b"}}
	if dm.Sender().ID != 2 {
		t.Fatalf("dm sender not resolved")
	}
}

func TestOptionMap(t *testing.T) {
	d := discord.InteractionData{Options: []discord.InteractionOption{
		{Name: "zweck", Value: "Leveln"},
		{Name: "datum", Value: "27.10.2025"},
	}}
	opts := d.OptionMap()
	if opts["zweck"] != "Leveln" || opts["datum"] != "27.10.2025" {
		t.Fatalf("unexpected option map: %v", opts)
	}
}
