package logger

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"log/slog"

	"github.com/fatih/color"
)

var (
	debugColor = color.New(color.FgCyan).SprintFunc()
	infoColor  = color.New(color.FgBlue).SprintFunc()
	warnColor  = color.New(color.FgYellow).SprintFunc()
	errorColor = color.New(color.FgRed).SprintFunc()
)

// consoleHandler is a human-oriented slog handler for development runs:
// timestamp, colored level, message, then key=value attrs.
type consoleHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	level slog.Level
	attrs []slog.Attr
	group string
}

func newConsoleHandler(out io.Writer, level slog.Level) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, out: out, level: level}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format("15:04:05"))
	b.WriteString(" ")
	b.WriteString(levelLabel(r.Level))
	b.WriteString(" ")
	b.WriteString(r.Message)

	for _, attr := range h.attrs {
		writeAttr(&b, h.group, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		writeAttr(&b, h.group, attr)
		return true
	})
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group != "" {
		clone.group += "."
	}
	clone.group += name
	return &clone
}

func writeAttr(b *strings.Builder, group string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	b.WriteString(" ")
	if group != "" {
		b.WriteString(group)
		b.WriteString(".")
	}
	b.WriteString(attr.Key)
	b.WriteString("=")
	fmt.Fprintf(b, "%v", attr.Value.Resolve().Any())
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return errorColor("ERROR")
	case level >= slog.LevelWarn:
		return warnColor("WARN")
	case level >= slog.LevelInfo:
		return infoColor("INFO")
	default:
		return debugColor("DEBUG")
	}
}
