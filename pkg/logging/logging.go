// Package logging configures the process-wide slog logger and defines the
// canonical structured fields every component logs a message decision
// with, so audit greps line up across pipeline, action engine, and trust
// manager output.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/nauanbek/saqshy/pkg/types"
)

// Configure installs the default slog logger. format is "json"
// (production) or "text" (development, also the fallback).
func Configure(level slog.Level, format string, output io.Writer) {
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps a config string to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MessageAttrs returns the identifying fields for one message, in the
// fixed order log consumers key on.
func MessageAttrs(msg types.MessageContext) []any {
	return []any{
		slog.Int64("chat_id", msg.ChatID),
		slog.Int64("user_id", msg.UserID),
		slog.Int64("message_id", msg.MessageID),
		slog.String("group_type", string(msg.GroupType)),
	}
}
