package events_test

import (
	"errors"
	"testing"

	"github.com/DeadScore/slotbot/internal/domain/events"
)

func TestParseSlots(t *testing.T) {
	slots, err := events.ParseSlots("⚔️:2 🛡️ : 1 <:tank:123456789>:3")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if slots[0].Emoji != "⚔️" || slots[0].Limit != 2 {
		t.Fatalf("unexpected first slot: %+v", slots[0])
	}
	if slots[1].Emoji != "🛡️" || slots[1].Limit != 1 {
		t.Fatalf("unexpected second slot: %+v", slots[1])
	}
	if slots[2].Emoji != "<:tank:123456789>" || slots[2].Limit != 3 {
		t.Fatalf("unexpected third slot: %+v", slots[2])
	}
}

func TestParseSlotsDuplicateKeepsPosition(t *testing.T) {
	slots, err := events.ParseSlots("⚔️:2 🛡️:1 ⚔️:5")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[0].Emoji != "⚔️" || slots[0].Limit != 5 {
		t.Fatalf("duplicate should update in place, got %+v", slots[0])
	}
	if slots[1].Emoji != "🛡️" {
		t.Fatalf("expected shield second, got %+v", slots[1])
	}
}

func TestParseSlotsEmpty(t *testing.T) {
	if _, err := events.ParseSlots("keine slots hier"); !errors.Is(err, events.ErrNoSlots) {
		t.Fatalf("expected ErrNoSlots, got %v", err)
	}
}

func TestIsCustomEmoji(t *testing.T) {
	if !events.IsCustomEmoji("<:tank:123456789>") {
		t.Fatalf("static custom emoji not recognized")
	}
	if !events.IsCustomEmoji("<a:party:987654321>") {
		t.Fatalf("animated custom emoji not recognized")
	}
	if events.IsCustomEmoji("⚔️") {
		t.Fatalf("unicode emoji misclassified as custom")
	}
}

func TestValidateSlots(t *testing.T) {
	slots, err := events.ParseSlots("⚔️:2 <:tank:123456789>:1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if bad, ok := events.ValidateSlots(slots, []string{"<:tank:123456789>"}); !ok {
		t.Fatalf("expected valid slots, got bad emoji %q", bad)
	}
	bad, ok := events.ValidateSlots(slots, nil)
	if ok {
		t.Fatalf("expected validation failure for unknown custom emoji")
	}
	if bad != "<:tank:123456789>" {
		t.Fatalf("expected tank emoji flagged, got %q", bad)
	}
}
