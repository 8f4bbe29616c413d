// Package logonly implements ports.MessagingClient by logging the
// intended action via log/slog instead of calling a real chat platform.
// It backs `saqshy run-local` and tests where no live Telegram bot token
// is available.
package logonly

import (
	"context"
	"log/slog"

	"github.com/nauanbek/saqshy/pkg/ports"
)

// Client logs every action it is asked to perform and never errors,
// making it safe as a default wiring for local runs and demos.
type Client struct {
	log *slog.Logger
}

// New builds a logonly Client. If log is nil, slog.Default() is used.
func New(log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{log: log}
}

func (c *Client) DeleteMessage(_ context.Context, chatID, messageID int64) error {
	c.log.Info("action: delete_message", "chat_id", chatID, "message_id", messageID)
	return nil
}

func (c *Client) RestrictUser(_ context.Context, chatID, userID int64, durationSeconds int64) error {
	c.log.Info("action: restrict_user", "chat_id", chatID, "user_id", userID, "duration_seconds", durationSeconds)
	return nil
}

func (c *Client) BanUser(_ context.Context, chatID, userID int64) error {
	c.log.Info("action: ban_user", "chat_id", chatID, "user_id", userID)
	return nil
}

func (c *Client) WarnUser(_ context.Context, chatID, userID int64, reason string) error {
	c.log.Info("action: warn_user", "chat_id", chatID, "user_id", userID, "reason", reason)
	return nil
}

func (c *Client) NotifyAdmins(_ context.Context, chatID int64, message string) error {
	c.log.Info("action: notify_admins", "chat_id", chatID, "message", message)
	return nil
}

var _ ports.MessagingClient = (*Client)(nil)
