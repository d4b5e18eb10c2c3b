package logger

import (
	"strings"
	"testing"

	"log/slog"
)

func TestConsoleHandlerOutput(t *testing.T) {
	var buf strings.Builder
	log := slog.New(newConsoleHandler(&buf, slog.LevelDebug))

	log.Info("event created", "message_id", 42)

	out := buf.String()
	if !strings.Contains(out, "event created") {
		t.Fatalf("message missing: %q", out)
	}
	if !strings.Contains(out, "message_id=42") {
		t.Fatalf("attr missing: %q", out)
	}
}

func TestConsoleHandlerGroupsAndAttrs(t *testing.T) {
	var buf strings.Builder
	log := slog.New(newConsoleHandler(&buf, slog.LevelDebug))

	log.WithGroup("discord").With("guild_id", 7).Info("ready")

	if !strings.Contains(buf.String(), "discord.guild_id=7") {
		t.Fatalf("grouped attr missing: %q", buf.String())
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf strings.Builder
	log := slog.New(newConsoleHandler(&buf, slog.LevelInfo))

	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record should be filtered: %q", buf.String())
	}
}
