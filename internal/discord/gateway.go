package discord

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"
	json "github.com/goccy/go-json"
)

const gatewayQuery = "v=10&encoding=json"

const defaultGatewayURL = "wss://gateway.discord.gg/?" + gatewayQuery

// Gateway intents. The bot needs guilds, members (DM targets), reactions and
// message content.
const (
	IntentGuilds                = 1 << 0
	IntentGuildMembers          = 1 << 1
	IntentGuildMessages         = 1 << 9
	IntentGuildMessageReactions = 1 << 10
	IntentDirectMessages        = 1 << 12
	IntentMessageContent        = 1 << 15
)

// Gateway opcodes.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opResume         = 6
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatACK   = 11
)

// gateway payloads can be large (READY with many guilds).
const gatewayReadLimit = 1 << 22

var errReconnect = errors.New("gateway: server requested reconnect")

// EventHandler receives every dispatch event with its raw payload.
type EventHandler func(ctx context.Context, eventType string, data json.RawMessage)

// Gateway maintains the websocket connection to Discord: identify,
// heartbeats, resume, and dispatch fan-out to the handler.
type Gateway struct {
	token   string
	intents int
	handler EventHandler
	logger  *slog.Logger

	seq       atomic.Int64
	sessionID string
	resumeURL string
}

// NewGateway builds a gateway client. The handler is called synchronously
// from the read loop; it must not block for long.
func NewGateway(token string, intents int, handler EventHandler, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{token: token, intents: intents, handler: handler, logger: logger}
}

type payload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int64          `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

// Run connects and reconnects until the context is canceled. Sessions that
// drop are resumed when Discord allows it, otherwise re-identified.
func (g *Gateway) Run(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 0
	policy.MaxInterval = time.Minute

	for {
		started := time.Now()
		err := g.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(started) > time.Minute {
			policy.Reset()
		}
		wait := policy.NextBackOff()
		g.logger.Warn("gateway session ended; reconnecting", "err", err, "wait", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (g *Gateway) session(ctx context.Context) error {
	dialURL := defaultGatewayURL
	if g.resumeURL != "" && g.sessionID != "" {
		// Discord hands back a bare resume URL; the version and encoding
		// params must be re-applied.
		dialURL = g.resumeURL
		if !strings.Contains(dialURL, "?") {
			dialURL += "?" + gatewayQuery
		}
	}

	conn, _, err := websocket.Dial(ctx, dialURL, nil)
	if err != nil {
		return fmt.Errorf("websocket.Dial(%s): %w", dialURL, err)
	}
	conn.SetReadLimit(gatewayReadLimit)
	defer conn.Close(websocket.StatusNormalClosure, "session ended")

	w := &gatewayWriter{conn: conn}

	hello, err := g.readPayload(ctx, conn)
	if err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", hello.Op)
	}
	var helloData struct {
		HeartbeatInterval int `json:"heartbeat_interval"`
	}
	if err := json.Unmarshal(hello.D, &helloData); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}
	interval := time.Duration(helloData.HeartbeatInterval) * time.Millisecond

	sctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		g.heartbeat(sctx, w, interval)
	}()
	// The read loop returns first; the heartbeat goroutine must be signaled
	// before waiting on it or teardown stalls until its next beat.
	defer func() {
		cancel()
		wg.Wait()
	}()

	if g.sessionID != "" {
		err = g.sendResume(sctx, w)
	} else {
		err = g.sendIdentify(sctx, w)
	}
	if err != nil {
		return err
	}

	for {
		p, err := g.readPayload(sctx, conn)
		if err != nil {
			return err
		}

		switch p.Op {
		case opDispatch:
			if p.S != nil {
				g.seq.Store(*p.S)
			}
			if p.T == "READY" {
				var ready Ready
				if err := json.Unmarshal(p.D, &ready); err == nil {
					g.sessionID = ready.SessionID
					g.resumeURL = ready.ResumeGatewayURL
				}
			}
			if g.handler != nil {
				g.handler(sctx, p.T, p.D)
			}
		case opHeartbeat:
			if err := g.sendHeartbeat(sctx, w); err != nil {
				return err
			}
		case opReconnect:
			return errReconnect
		case opInvalidSession:
			var resumable bool
			_ = json.Unmarshal(p.D, &resumable)
			if !resumable {
				g.sessionID = ""
				g.resumeURL = ""
				g.seq.Store(0)
			}
			return fmt.Errorf("gateway: invalid session (resumable=%v)", resumable)
		case opHeartbeatACK:
			// nothing to do
		default:
			g.logger.Debug("unhandled gateway op", "op", p.Op)
		}
	}
}

func (g *Gateway) readPayload(ctx context.Context, conn *websocket.Conn) (payload, error) {
	var p payload
	_, data, err := conn.Read(ctx)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decode gateway payload: %w", err)
	}
	return p, nil
}

// heartbeat sends op 1 on the interval Discord dictated. The first beat is
// jittered as the gateway documentation requires.
func (g *Gateway) heartbeat(ctx context.Context, w *gatewayWriter, interval time.Duration) {
	first := time.Duration(rand.Float64() * float64(interval))
	select {
	case <-time.After(first):
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := g.sendHeartbeat(ctx, w); err != nil {
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) sendHeartbeat(ctx context.Context, w *gatewayWriter) error {
	seq := g.seq.Load()
	var d any
	if seq > 0 {
		d = seq
	}
	return w.send(ctx, map[string]any{"op": opHeartbeat, "d": d})
}

func (g *Gateway) sendIdentify(ctx context.Context, w *gatewayWriter) error {
	return w.send(ctx, map[string]any{
		"op": opIdentify,
		"d": map[string]any{
			"token":   g.token,
			"intents": g.intents,
			"properties": map[string]string{
				"os":      "linux",
				"browser": "slotbot",
				"device":  "slotbot",
			},
		},
	})
}

func (g *Gateway) sendResume(ctx context.Context, w *gatewayWriter) error {
	return w.send(ctx, map[string]any{
		"op": opResume,
		"d": map[string]any{
			"token":      g.token,
			"session_id": g.sessionID,
			"seq":        g.seq.Load(),
		},
	})
}

// gatewayWriter serializes concurrent writes (heartbeat vs. identify/resume)
// onto the single websocket connection.
type gatewayWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *gatewayWriter) send(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.Write(ctx, websocket.MessageText, data)
}
