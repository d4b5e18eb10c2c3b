package events

import (
	"context"
	"errors"
	"sort"
	"time"
)

var (
	ErrNotImplemented = errors.New("events repository: not implemented")
	ErrNotFound       = errors.New("event not found")
	ErrNotCreator     = errors.New("event belongs to another user")
	ErrSlotUnknown    = errors.New("emoji does not match a slot")
	ErrAlreadyJoined  = errors.New("user already occupies a slot")
	ErrPastStart      = errors.New("event start lies in the past")
	ErrNoSlots        = errors.New("no valid slots")
)

// Event is a signup event anchored to the Discord message that displays it.
// The anchor message ID doubles as the primary key.
type Event struct {
	MessageID int64
	GuildID   int64
	ChannelID int64
	CreatorID int64
	ThreadID  int64
	Title     string
	Header    string
	StartsAt  time.Time // UTC; zero when the event has no schedule
	Slots     []*Slot
}

// Slot is a signup role with limited capacity. Users beyond the limit queue
// on the waitlist in joining order.
type Slot struct {
	Emoji    string
	Limit    int
	Main     []int64
	Waitlist []int64
	Reminded []int64
}

// Slot returns the slot identified by emoji, or nil.
func (e *Event) Slot(emoji string) *Slot {
	for _, s := range e.Slots {
		if s.Emoji == emoji {
			return s
		}
	}
	return nil
}

// Occupies reports whether the user holds a main or waitlist place in any slot.
func (e *Event) Occupies(userID int64) bool {
	for _, s := range e.Slots {
		if contains(s.Main, userID) || contains(s.Waitlist, userID) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so repositories and callers never share slices.
func (e Event) Clone() Event {
	out := e
	out.Slots = make([]*Slot, len(e.Slots))
	for i, s := range e.Slots {
		c := *s
		c.Main = append([]int64(nil), s.Main...)
		c.Waitlist = append([]int64(nil), s.Waitlist...)
		c.Reminded = append([]int64(nil), s.Reminded...)
		out.Slots[i] = &c
	}
	return out
}

// Repository abstracts event persistence.
type Repository interface {
	Get(ctx context.Context, messageID int64) (Event, error)
	Save(ctx context.Context, ev Event) error
	Delete(ctx context.Context, messageID int64) error
	List(ctx context.Context) ([]Event, error)
}

// NullRepository returns ErrNotImplemented for all operations.
type NullRepository struct{}

func (NullRepository) Get(context.Context, int64) (Event, error) { return Event{}, ErrNotImplemented }
func (NullRepository) Save(context.Context, Event) error         { return ErrNotImplemented }
func (NullRepository) Delete(context.Context, int64) error       { return ErrNotImplemented }
func (NullRepository) List(context.Context) ([]Event, error)     { return nil, ErrNotImplemented }

// Reminder is a pending start-time notification for one signed-up user.
type Reminder struct {
	MessageID int64
	GuildID   int64
	UserID    int64
	Title     string
	StartsAt  time.Time
}

// Service provides business logic around events.
type Service interface {
	Create(ctx context.Context, ev Event) error
	Get(ctx context.Context, messageID int64) (Event, error)
	List(ctx context.Context) ([]Event, error)
	LatestOwned(ctx context.Context, channelID, userID int64) (Event, error)
	Apply(ctx context.Context, messageID, userID int64, edit Edit) (Event, []string, error)
	SetThread(ctx context.Context, messageID, threadID int64) error
	Remove(ctx context.Context, messageID, userID int64) (Event, error)
	SignUp(ctx context.Context, messageID, userID int64, emoji string) (Event, error)
	Withdraw(ctx context.Context, messageID, userID int64, emoji string) (Event, int64, error)
	DueReminders(ctx context.Context, now time.Time, lead time.Duration) ([]Reminder, error)
}

// NewService builds an event service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

type service struct {
	repo Repository
}

func (s *service) Create(ctx context.Context, ev Event) error {
	if ev.MessageID == 0 {
		return errors.New("event requires a message id")
	}
	if len(ev.Slots) == 0 {
		return ErrNoSlots
	}
	if !ev.StartsAt.IsZero() && ev.StartsAt.Before(time.Now().UTC()) {
		return ErrPastStart
	}
	return s.repo.Save(ctx, ev)
}

func (s *service) Get(ctx context.Context, messageID int64) (Event, error) {
	return s.repo.Get(ctx, messageID)
}

// List returns all events ordered by start time, unscheduled ones last.
func (s *service) List(ctx context.Context) ([]Event, error) {
	evs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(evs, func(i, j int) bool {
		a, b := evs[i].StartsAt, evs[j].StartsAt
		if a.IsZero() != b.IsZero() {
			return !a.IsZero()
		}
		if a.Equal(b) {
			return evs[i].MessageID < evs[j].MessageID
		}
		return a.Before(b)
	})
	return evs, nil
}

// LatestOwned finds the creator's most recent event in a channel. Message IDs
// are snowflakes, so the highest ID is the newest event.
func (s *service) LatestOwned(ctx context.Context, channelID, userID int64) (Event, error) {
	evs, err := s.repo.List(ctx)
	if err != nil {
		return Event{}, err
	}
	var found *Event
	for i := range evs {
		ev := &evs[i]
		if ev.ChannelID != channelID || ev.CreatorID != userID {
			continue
		}
		if found == nil || ev.MessageID > found.MessageID {
			found = ev
		}
	}
	if found == nil {
		return Event{}, ErrNotFound
	}
	return *found, nil
}

func (s *service) SetThread(ctx context.Context, messageID, threadID int64) error {
	ev, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return err
	}
	ev.ThreadID = threadID
	return s.repo.Save(ctx, ev)
}

func (s *service) Remove(ctx context.Context, messageID, userID int64) (Event, error) {
	ev, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return Event{}, err
	}
	if ev.CreatorID != userID {
		return Event{}, ErrNotCreator
	}
	if err := s.repo.Delete(ctx, messageID); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (s *service) SignUp(ctx context.Context, messageID, userID int64, emoji string) (Event, error) {
	ev, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return Event{}, err
	}
	slot := ev.Slot(emoji)
	if slot == nil {
		return ev, ErrSlotUnknown
	}
	if ev.Occupies(userID) {
		return ev, ErrAlreadyJoined
	}
	if len(slot.Main) < slot.Limit {
		slot.Main = append(slot.Main, userID)
	} else {
		slot.Waitlist = append(slot.Waitlist, userID)
	}
	if err := s.repo.Save(ctx, ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Withdraw removes the user from the slot. Freeing a main place promotes the
// longest-waiting user; their ID is returned so the caller can notify them.
func (s *service) Withdraw(ctx context.Context, messageID, userID int64, emoji string) (Event, int64, error) {
	ev, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return Event{}, 0, err
	}
	slot := ev.Slot(emoji)
	if slot == nil {
		return ev, 0, ErrSlotUnknown
	}

	var promoted int64
	switch {
	case contains(slot.Main, userID):
		slot.Main = remove(slot.Main, userID)
		if len(slot.Waitlist) > 0 {
			promoted = slot.Waitlist[0]
			slot.Waitlist = slot.Waitlist[1:]
			slot.Main = append(slot.Main, promoted)
		}
	case contains(slot.Waitlist, userID):
		slot.Waitlist = remove(slot.Waitlist, userID)
	default:
		return ev, 0, nil
	}

	if err := s.repo.Save(ctx, ev); err != nil {
		return Event{}, 0, err
	}
	return ev, promoted, nil
}

// DueReminders collects main-slot users whose event starts within lead and
// who have not been reminded yet, marking them reminded as it goes.
func (s *service) DueReminders(ctx context.Context, now time.Time, lead time.Duration) ([]Reminder, error) {
	evs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var due []Reminder
	for i := range evs {
		ev := &evs[i]
		if ev.StartsAt.IsZero() {
			continue
		}
		left := ev.StartsAt.Sub(now)
		if left < 0 || left > lead {
			continue
		}

		changed := false
		for _, slot := range ev.Slots {
			for _, uid := range slot.Main {
				if contains(slot.Reminded, uid) {
					continue
				}
				slot.Reminded = append(slot.Reminded, uid)
				changed = true
				due = append(due, Reminder{
					MessageID: ev.MessageID,
					GuildID:   ev.GuildID,
					UserID:    uid,
					Title:     ev.Title,
					StartsAt:  ev.StartsAt,
				})
			}
		}
		if changed {
			if err := s.repo.Save(ctx, *ev); err != nil {
				return due, err
			}
		}
	}
	return due, nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
