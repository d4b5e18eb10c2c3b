package events_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DeadScore/slotbot/internal/domain/events"
	"github.com/DeadScore/slotbot/internal/storage/memory"
)

func TestApplyRequiresCreator(t *testing.T) {
	ctx := context.Background()
	svc := events.NewService(memory.NewEventRepository())

	ev := newTestEvent(1)
	ev.Header = testHeader()
	if err := svc.Create(ctx, ev); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, _, err := svc.Apply(ctx, 1, 999, events.Edit{Place: "Silberhain"})
	if !errors.Is(err, events.ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
}

func TestApplyStrikesHeaderAndReportsChanges(t *testing.T) {
	ctx := context.Background()
	svc := events.NewService(memory.NewEventRepository())

	ev := newTestEvent(1)
	ev.Header = testHeader()
	if err := svc.Create(ctx, ev); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	newStart := time.Now().UTC().Add(48 * time.Hour)
	updated, changes, err := svc.Apply(ctx, 1, 1, events.Edit{
		StartsAt:     newStart,
		ScheduleText: "Mittwoch, 29.10.2025 19:00 CET",
		Place:        "Silberhain",
		Note:         "Neuer Treffpunkt",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %v", changes)
	}
	if !updated.StartsAt.Equal(newStart) {
		t.Fatalf("start not updated: %v", updated.StartsAt)
	}
	if !strings.Contains(updated.Header, "~~Montag, 27.10.2025 20:00 CET~~ → Mittwoch, 29.10.2025 19:00 CET") {
		t.Fatalf("schedule line not struck:\n%s", updated.Header)
	}
	if !strings.Contains(updated.Header, "~~Elbenwald~~ → Silberhain") {
		t.Fatalf("place line not struck:\n%s", updated.Header)
	}
	if !strings.Contains(updated.Header, events.LabelNote+" Neuer Treffpunkt") {
		t.Fatalf("note missing:\n%s", updated.Header)
	}

	// Changes must be persisted, not just returned.
	stored, err := svc.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Header != updated.Header {
		t.Fatalf("header not persisted")
	}
}

func TestApplyReplacesSlots(t *testing.T) {
	ctx := context.Background()
	svc := events.NewService(memory.NewEventRepository())

	ev := newTestEvent(1)
	ev.Header = testHeader()
	if err := svc.Create(ctx, ev); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	slots, err := events.ParseSlots("🏹:4")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	updated, changes, err := svc.Apply(ctx, 1, 1, events.Edit{Slots: slots})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(changes) != 1 || changes[0] != "Slots angepasst" {
		t.Fatalf("unexpected changes: %v", changes)
	}
	if len(updated.Slots) != 1 || updated.Slots[0].Emoji != "🏹" {
		t.Fatalf("slots not replaced: %+v", updated.Slots)
	}
}

func TestApplyWithoutChangesSavesNothing(t *testing.T) {
	ctx := context.Background()
	svc := events.NewService(memory.NewEventRepository())

	ev := newTestEvent(1)
	ev.Header = testHeader()
	if err := svc.Create(ctx, ev); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, changes, err := svc.Apply(ctx, 1, 1, events.Edit{})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if changes != nil {
		t.Fatalf("expected no changes, got %v", changes)
	}
}
