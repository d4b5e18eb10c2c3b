package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/DeadScore/slotbot/internal/domain/events"
)

// EventRepository persists events in a single table; the slot roster is a
// JSONB array so its order survives round-trips.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository constructs a repository using a pooled DB handle.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

type slotRecord struct {
	Emoji    string  `json:"emoji"`
	Limit    int     `json:"limit"`
	Main     []int64 `json:"main"`
	Waitlist []int64 `json:"waitlist"`
	Reminded []int64 `json:"reminded"`
}

func (r *EventRepository) Get(ctx context.Context, messageID int64) (events.Event, error) {
	const query = `
        SELECT message_id, guild_id, channel_id, creator_id, thread_id, title, header, starts_at, slots
          FROM events
         WHERE message_id = $1
    `
	ev, err := scanEvent(r.db.QueryRowContext(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return events.Event{}, events.ErrNotFound
		}
		return events.Event{}, fmt.Errorf("find event: %w", err)
	}
	return ev, nil
}

// Save upserts by message ID; events are keyed by their anchor message, so
// there is no generated primary key to manage.
func (r *EventRepository) Save(ctx context.Context, ev events.Event) error {
	slots, err := encodeSlots(ev.Slots)
	if err != nil {
		return err
	}

	const upsert = `
        INSERT INTO events (message_id, guild_id, channel_id, creator_id, thread_id, title, header, starts_at, slots, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
        ON CONFLICT (message_id) DO UPDATE
           SET guild_id = EXCLUDED.guild_id,
               channel_id = EXCLUDED.channel_id,
               creator_id = EXCLUDED.creator_id,
               thread_id = EXCLUDED.thread_id,
               title = EXCLUDED.title,
               header = EXCLUDED.header,
               starts_at = EXCLUDED.starts_at,
               slots = EXCLUDED.slots,
               updated_at = EXCLUDED.updated_at
    `

	var startsAt sql.NullTime
	if !ev.StartsAt.IsZero() {
		startsAt = sql.NullTime{Time: ev.StartsAt.UTC(), Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, upsert,
		ev.MessageID,
		ev.GuildID,
		ev.ChannelID,
		ev.CreatorID,
		ev.ThreadID,
		ev.Title,
		ev.Header,
		startsAt,
		slots,
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, messageID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE message_id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if affected == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	const query = `
        SELECT message_id, guild_id, channel_id, creator_id, thread_id, title, header, starts_at, slots
          FROM events
         ORDER BY starts_at NULLS LAST, message_id
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var result []events.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (events.Event, error) {
	var (
		ev       events.Event
		startsAt sql.NullTime
		slots    []byte
	)
	if err := row.Scan(
		&ev.MessageID,
		&ev.GuildID,
		&ev.ChannelID,
		&ev.CreatorID,
		&ev.ThreadID,
		&ev.Title,
		&ev.Header,
		&startsAt,
		&slots,
	); err != nil {
		return events.Event{}, err
	}
	if startsAt.Valid {
		ev.StartsAt = startsAt.Time.UTC()
	}

	var records []slotRecord
	if err := json.Unmarshal(slots, &records); err != nil {
		return events.Event{}, fmt.Errorf("decode slots: %w", err)
	}
	for _, rec := range records {
		ev.Slots = append(ev.Slots, &events.Slot{
			Emoji:    rec.Emoji,
			Limit:    rec.Limit,
			Main:     rec.Main,
			Waitlist: rec.Waitlist,
			Reminded: rec.Reminded,
		})
	}
	return ev, nil
}

func encodeSlots(slots []*events.Slot) ([]byte, error) {
	records := make([]slotRecord, 0, len(slots))
	for _, s := range slots {
		records = append(records, slotRecord{
			Emoji:    s.Emoji,
			Limit:    s.Limit,
			Main:     s.Main,
			Waitlist: s.Waitlist,
			Reminded: s.Reminded,
		})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode slots: %w", err)
	}
	return data, nil
}
