package events_test

import (
	"strings"
	"testing"

	"github.com/DeadScore/slotbot/internal/domain/events"
)

func TestRoster(t *testing.T) {
	ev := events.Event{
		Slots: []*events.Slot{
			{Emoji: "⚔️", Limit: 2, Main: []int64{10, 11}, Waitlist: []int64{12}},
			{Emoji: "🛡️", Limit: 1},
		},
	}

	roster := ev.Roster()
	for _, want := range []string{
		"**📋 Eventübersicht:**",
		"⚔️ (2/2): <@10>, <@11>",
		"⏳ Warteliste: <@12>",
		"🛡️ (0/1): -",
	} {
		if !strings.Contains(roster, want) {
			t.Fatalf("roster missing %q:\n%s", want, roster)
		}
	}
}

func TestContentJoinsHeaderAndRoster(t *testing.T) {
	ev := events.Event{
		Header: "header",
		Slots:  []*events.Slot{{Emoji: "⚔️", Limit: 1}},
	}
	content := ev.Content()
	if !strings.HasPrefix(content, "header\n\n**📋 Eventübersicht:**") {
		t.Fatalf("unexpected content:\n%s", content)
	}
}
