package discord

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"log/slog"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
)

const defaultAPIBase = "https://discord.com/api/v10"

// maxRateLimitRetries bounds how often a single call follows 429 responses.
const maxRateLimitRetries = 3

// APIError is a non-2xx response from the Discord API.
type APIError struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord api: status %d code %d: %s", e.Status, e.Code, e.Message)
}

// ClientOptions configures the REST client.
type ClientOptions struct {
	Token      string
	BaseURL    string // overridable for tests
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a minimal Discord REST client.
type Client struct {
	hc      *http.Client
	baseURL string
	token   string
	logger  *slog.Logger
}

// NewClient builds a REST client for the given bot token.
func NewClient(opts ClientOptions) *Client {
	base := opts.BaseURL
	if base == "" {
		base = defaultAPIBase
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{hc: hc, baseURL: base, token: opts.Token, logger: logger}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bot "+c.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRateLimitRetries {
			wait := retryAfter(resp, data)
			c.logger.Warn("rate limited", "path", path, "wait", wait)
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{Status: resp.StatusCode}
			_ = json.Unmarshal(data, apiErr)
			return apiErr
		}

		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
}

func retryAfter(resp *http.Response, body []byte) time.Duration {
	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.RetryAfter > 0 {
		return time.Duration(payload.RetryAfter * float64(time.Second))
	}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return time.Second
}

// CreateMessage posts a message to a channel or thread.
func (c *Client) CreateMessage(ctx context.Context, channelID Snowflake, m MessageSend) (Message, error) {
	var msg Message
	err := c.do(ctx, http.MethodPost, "/channels/"+channelID.String()+"/messages", m, &msg)
	return msg, err
}

// EditMessage replaces a message's content.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID Snowflake, m MessageSend) (Message, error) {
	var msg Message
	err := c.do(ctx, http.MethodPatch, "/channels/"+channelID.String()+"/messages/"+messageID.String(), m, &msg)
	return msg, err
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID Snowflake) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+channelID.String()+"/messages/"+messageID.String(), nil, nil)
}

// Message fetches a single message.
func (c *Client) Message(ctx context.Context, channelID, messageID Snowflake) (Message, error) {
	var msg Message
	err := c.do(ctx, http.MethodGet, "/channels/"+channelID.String()+"/messages/"+messageID.String(), nil, &msg)
	return msg, err
}

// MessageRetry fetches a message, retrying transient failures briefly. The
// anchor message occasionally lags behind the gateway event announcing it.
func (c *Client) MessageRetry(ctx context.Context, channelID, messageID Snowflake) (Message, error) {
	var msg Message
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 2)
	err := backoff.Retry(func() error {
		var err error
		msg, err = c.Message(ctx, channelID, messageID)
		return err
	}, backoff.WithContext(policy, ctx))
	return msg, err
}

func reactionPath(channelID, messageID Snowflake, emoji Emoji) string {
	return "/channels/" + channelID.String() + "/messages/" + messageID.String() +
		"/reactions/" + url.PathEscape(emoji.Reaction())
}

// CreateReaction adds the bot's own reaction.
func (c *Client) CreateReaction(ctx context.Context, channelID, messageID Snowflake, emoji Emoji) error {
	return c.do(ctx, http.MethodPut, reactionPath(channelID, messageID, emoji)+"/@me", nil, nil)
}

// DeleteUserReaction removes another user's reaction.
func (c *Client) DeleteUserReaction(ctx context.Context, channelID, messageID Snowflake, emoji Emoji, userID Snowflake) error {
	return c.do(ctx, http.MethodDelete, reactionPath(channelID, messageID, emoji)+"/"+userID.String(), nil, nil)
}

// DeleteAllReactions clears every reaction from a message.
func (c *Client) DeleteAllReactions(ctx context.Context, channelID, messageID Snowflake) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+channelID.String()+"/messages/"+messageID.String()+"/reactions", nil, nil)
}

// StartThread opens a thread on a message.
func (c *Client) StartThread(ctx context.Context, channelID, messageID Snowflake, name string, autoArchiveMinutes int) (Channel, error) {
	var ch Channel
	payload := map[string]any{
		"name":                  name,
		"auto_archive_duration": autoArchiveMinutes,
	}
	err := c.do(ctx, http.MethodPost, "/channels/"+channelID.String()+"/messages/"+messageID.String()+"/threads", payload, &ch)
	return ch, err
}

// Channel fetches a channel or thread.
func (c *Client) Channel(ctx context.Context, channelID Snowflake) (Channel, error) {
	var ch Channel
	err := c.do(ctx, http.MethodGet, "/channels/"+channelID.String(), nil, &ch)
	return ch, err
}

// UnarchiveThread reopens an archived thread.
func (c *Client) UnarchiveThread(ctx context.Context, threadID Snowflake) error {
	return c.do(ctx, http.MethodPatch, "/channels/"+threadID.String(), map[string]any{"archived": false}, nil)
}

// DeleteChannel deletes a channel or thread.
func (c *Client) DeleteChannel(ctx context.Context, channelID Snowflake) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+channelID.String(), nil, nil)
}

// SendDM opens (or reuses) the DM channel with a user and sends a message.
func (c *Client) SendDM(ctx context.Context, userID Snowflake, content string) error {
	var ch Channel
	payload := map[string]any{"recipient_id": userID.String()}
	if err := c.do(ctx, http.MethodPost, "/users/@me/channels", payload, &ch); err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	if _, err := c.CreateMessage(ctx, ch.ID, MessageSend{Content: content}); err != nil {
		return fmt.Errorf("send dm: %w", err)
	}
	return nil
}

// GuildEmojis lists a guild's custom emoji.
func (c *Client) GuildEmojis(ctx context.Context, guildID Snowflake) ([]Emoji, error) {
	var emoji []Emoji
	err := c.do(ctx, http.MethodGet, "/guilds/"+guildID.String()+"/emojis", nil, &emoji)
	return emoji, err
}

// SetGlobalCommands bulk-overwrites the application's global slash commands.
func (c *Client) SetGlobalCommands(ctx context.Context, applicationID Snowflake, commands []ApplicationCommand) error {
	return c.do(ctx, http.MethodPut, "/applications/"+applicationID.String()+"/commands", commands, nil)
}

// RespondToInteraction answers a slash command invocation.
func (c *Client) RespondToInteraction(ctx context.Context, id Snowflake, token string, resp InteractionResponse) error {
	return c.do(ctx, http.MethodPost, "/interactions/"+id.String()+"/"+token+"/callback", resp, nil)
}
