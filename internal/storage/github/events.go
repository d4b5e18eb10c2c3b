// Package github persists the event set as a single JSON document in a
// GitHub repository through the contents API. The bot originally ran on a
// free hosting tier with no disk, so the document in the repo is the source
// of truth across restarts.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"

	"github.com/DeadScore/slotbot/internal/domain/events"
)

const defaultBaseURL = "https://api.github.com"

const commitMessage = "Update events.json via slotbot"

// Options configures the GitHub-backed repository.
type Options struct {
	Repo       string // "owner/name"
	Path       string // file path inside the repo, e.g. data/events.json
	Token      string
	BaseURL    string // overridable for tests
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// EventRepository implements events.Repository on top of the contents API.
// A write-through cache fronts the document; every mutation pushes the full
// document with the last known blob sha.
type EventRepository struct {
	hc     *http.Client
	logger *slog.Logger
	url    string
	token  string

	mu     sync.Mutex
	loaded bool
	sha    string
	cache  map[int64]events.Event
}

// NewEventRepository builds a repository; the document is fetched lazily on
// first use.
func NewEventRepository(opts Options) *EventRepository {
	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EventRepository{
		hc:     hc,
		logger: logger,
		url:    fmt.Sprintf("%s/repos/%s/contents/%s", base, opts.Repo, opts.Path),
		token:  opts.Token,
		cache:  make(map[int64]events.Event),
	}
}

func (r *EventRepository) Get(ctx context.Context, messageID int64) (events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(ctx); err != nil {
		return events.Event{}, err
	}
	ev, ok := r.cache[messageID]
	if !ok {
		// The document may have been written by a previous process whose
		// cache we never saw. Refresh once before giving up.
		if err := r.load(ctx); err != nil {
			return events.Event{}, err
		}
		if ev, ok = r.cache[messageID]; !ok {
			return events.Event{}, events.ErrNotFound
		}
	}
	return ev.Clone(), nil
}

func (r *EventRepository) Save(ctx context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(ctx); err != nil {
		return err
	}
	r.cache[ev.MessageID] = ev.Clone()
	return r.push(ctx)
}

func (r *EventRepository) Delete(ctx context.Context, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(ctx); err != nil {
		return err
	}
	if _, ok := r.cache[messageID]; !ok {
		return events.ErrNotFound
	}
	delete(r.cache, messageID)
	return r.push(ctx)
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	list := make([]events.Event, 0, len(r.cache))
	for _, ev := range r.cache {
		list = append(list, ev.Clone())
	}
	return list, nil
}

func (r *EventRepository) ensureLoaded(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	if err := r.load(ctx); err != nil {
		return err
	}
	r.loaded = true
	return nil
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

func (r *EventRepository) load(ctx context.Context) error {
	resp, body, err := r.do(ctx, http.MethodGet, nil)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var contents contentsResponse
		if err := json.Unmarshal(body, &contents); err != nil {
			return fmt.Errorf("decode contents response: %w", err)
		}
		raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(contents.Content, "\n", ""))
		if err != nil {
			return fmt.Errorf("decode events document: %w", err)
		}
		cache, err := decodeDocument(raw)
		if err != nil {
			return err
		}
		r.cache = cache
		r.sha = contents.SHA
		r.logger.Info("events document loaded", "events", len(cache))
		return nil
	case http.StatusNotFound:
		r.cache = make(map[int64]events.Event)
		r.sha = ""
		r.logger.Info("no events document yet; starting empty")
		return nil
	default:
		return fmt.Errorf("load events: unexpected status %d", resp.StatusCode)
	}
}

// push writes the whole document back. The blob sha is refreshed right
// before the PUT because another writer may have moved it.
func (r *EventRepository) push(ctx context.Context) error {
	doc, err := encodeDocument(r.cache)
	if err != nil {
		return err
	}

	op := func() error {
		if resp, body, err := r.do(ctx, http.MethodGet, nil); err == nil && resp.StatusCode == http.StatusOK {
			var contents contentsResponse
			if err := json.Unmarshal(body, &contents); err == nil {
				r.sha = contents.SHA
			}
		}

		payload := map[string]any{
			"message": commitMessage,
			"content": base64.StdEncoding.EncodeToString(doc),
		}
		if r.sha != "" {
			payload["sha"] = r.sha
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, body, err := r.do(ctx, http.MethodPut, raw)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("save events: unexpected status %d", resp.StatusCode)
		}

		var saved struct {
			Content contentsResponse `json:"content"`
		}
		if err := json.Unmarshal(body, &saved); err == nil && saved.Content.SHA != "" {
			r.sha = saved.Content.SHA
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	return nil
}

func (r *EventRepository) do(ctx context.Context, method string, body []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.url, reader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "token "+r.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.hc.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, data, nil
}

// Document layout mirrors the bot's historical events.json: events keyed by
// decimal message ID, slots keyed by emoji. slot_order preserves roster
// order, which a JSON object cannot.
type eventDoc struct {
	Title     string             `json:"title"`
	Slots     map[string]slotDoc `json:"slots"`
	SlotOrder []string           `json:"slot_order,omitempty"`
	ChannelID int64              `json:"channel_id"`
	GuildID   int64              `json:"guild_id"`
	Header    string             `json:"header"`
	CreatorID int64              `json:"creator_id"`
	EventTime eventStamp         `json:"event_time,omitempty"`
	ThreadID  int64              `json:"thread_id,omitempty"`
}

// eventStamp tolerates the document's historical encodings: event_time
// appears both as an RFC 3339 string and as a bare unix epoch in old files.
type eventStamp string

func (s *eventStamp) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = eventStamp(str)
		return nil
	}
	var epoch float64
	if err := json.Unmarshal(data, &epoch); err != nil {
		return err
	}
	if epoch == 0 {
		*s = ""
		return nil
	}
	*s = eventStamp(time.Unix(int64(epoch), 0).UTC().Format(time.RFC3339))
	return nil
}

type slotDoc struct {
	Limit    int     `json:"limit"`
	Main     []int64 `json:"main"`
	Waitlist []int64 `json:"waitlist"`
	Reminded []int64 `json:"reminded"`
}

func encodeDocument(cache map[int64]events.Event) ([]byte, error) {
	doc := make(map[string]eventDoc, len(cache))
	for id, ev := range cache {
		d := eventDoc{
			Title:     ev.Title,
			Slots:     make(map[string]slotDoc, len(ev.Slots)),
			ChannelID: ev.ChannelID,
			GuildID:   ev.GuildID,
			Header:    ev.Header,
			CreatorID: ev.CreatorID,
			ThreadID:  ev.ThreadID,
		}
		if !ev.StartsAt.IsZero() {
			d.EventTime = eventStamp(ev.StartsAt.UTC().Format(time.RFC3339))
		}
		for _, slot := range ev.Slots {
			d.SlotOrder = append(d.SlotOrder, slot.Emoji)
			d.Slots[slot.Emoji] = slotDoc{
				Limit:    slot.Limit,
				Main:     slot.Main,
				Waitlist: slot.Waitlist,
				Reminded: slot.Reminded,
			}
		}
		doc[strconv.FormatInt(id, 10)] = d
	}
	return json.MarshalIndent(doc, "", "    ")
}

func decodeDocument(raw []byte) (map[int64]events.Event, error) {
	var doc map[string]eventDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode events document: %w", err)
	}

	cache := make(map[int64]events.Event, len(doc))
	for key, d := range doc {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode event key %q: %w", key, err)
		}
		ev := events.Event{
			MessageID: id,
			GuildID:   d.GuildID,
			ChannelID: d.ChannelID,
			CreatorID: d.CreatorID,
			ThreadID:  d.ThreadID,
			Title:     d.Title,
			Header:    d.Header,
		}
		if d.EventTime != "" {
			t, err := time.Parse(time.RFC3339, string(d.EventTime))
			if err != nil {
				return nil, fmt.Errorf("decode event time %q: %w", d.EventTime, err)
			}
			ev.StartsAt = t.UTC()
		}
		for _, emoji := range slotOrder(d) {
			s := d.Slots[emoji]
			ev.Slots = append(ev.Slots, &events.Slot{
				Emoji:    emoji,
				Limit:    s.Limit,
				Main:     s.Main,
				Waitlist: s.Waitlist,
				Reminded: s.Reminded,
			})
		}
		cache[id] = ev
	}
	return cache, nil
}

// slotOrder prefers the recorded order; documents written before slot_order
// existed fall back to a stable lexical order.
func slotOrder(d eventDoc) []string {
	if len(d.SlotOrder) == len(d.Slots) {
		complete := true
		for _, emoji := range d.SlotOrder {
			if _, ok := d.Slots[emoji]; !ok {
				complete = false
				break
			}
		}
		if complete {
			return d.SlotOrder
		}
	}
	keys := make([]string, 0, len(d.Slots))
	for emoji := range d.Slots {
		keys = append(keys, emoji)
	}
	sort.Strings(keys)
	return keys
}
