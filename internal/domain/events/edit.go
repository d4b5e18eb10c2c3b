package events

import (
	"context"
	"time"
)

// Edit describes requested changes to an event. Zero values leave the
// corresponding field untouched. Schedule strings arrive pre-rendered because
// the domain stores display text in the header, not structured fields.
type Edit struct {
	StartsAt     time.Time // new start, UTC; zero = unchanged
	ScheduleText string    // rendered replacement for the schedule line
	ScheduleOld  string    // rendered current schedule, fallback for the struck value
	Place        string
	Level        string
	Note         string
	Slots        []*Slot
}

// Apply edits the creator's event, rewriting header lines with the previous
// value struck through. It returns the updated event and a human-readable
// change list for the event log thread.
func (s *service) Apply(ctx context.Context, messageID, userID int64, edit Edit) (Event, []string, error) {
	ev, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return Event{}, nil, err
	}
	if ev.CreatorID != userID {
		return Event{}, nil, ErrNotCreator
	}

	var changes []string

	if !edit.StartsAt.IsZero() {
		visible := CurrentValue(ev.Header, LabelSchedule)
		if visible == "" {
			visible = edit.ScheduleOld
		}
		ev.Header = StrikeValue(ev.Header, LabelSchedule, visible, edit.ScheduleText)
		ev.StartsAt = edit.StartsAt.UTC()
		changes = append(changes, "Datum/Zeit: ~~"+visible+"~~ → "+edit.ScheduleText)
	}

	if edit.Place != "" {
		visible := CurrentValue(ev.Header, LabelPlace)
		if visible == "" {
			visible = "?"
		}
		ev.Header = StrikeValue(ev.Header, LabelPlace, visible, edit.Place)
		changes = append(changes, "Ort: ~~"+visible+"~~ → "+edit.Place)
	}

	if edit.Level != "" {
		visible := CurrentValue(ev.Header, LabelLevel)
		if visible == "" {
			visible = "?"
		}
		ev.Header = StrikeValue(ev.Header, LabelLevel, visible, edit.Level)
		changes = append(changes, "Level: ~~"+visible+"~~ → "+edit.Level)
	}

	if edit.Note != "" {
		ev.Header = SetNote(ev.Header, edit.Note)
		changes = append(changes, "Anmerkung aktualisiert")
	}

	if len(edit.Slots) > 0 {
		ev.Slots = edit.Slots
		changes = append(changes, "Slots angepasst")
	}

	if len(changes) == 0 {
		return ev, nil, nil
	}
	if err := s.repo.Save(ctx, ev); err != nil {
		return Event{}, nil, err
	}
	return ev, changes, nil
}
