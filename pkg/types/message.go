package types

import "time"

// MessageContext carries everything needed to analyze a single message.
type MessageContext struct {
	MessageID int64
	ChatID    int64
	UserID    int64
	Text      string
	Timestamp time.Time

	Username  string
	FirstName string
	LastName  string
	IsBot     bool
	IsPremium bool

	ChatType  string
	ChatTitle string
	GroupType GroupType

	HasMedia          bool
	MediaType         string
	IsForward         bool
	ForwardFromChatID int64
	ReplyToMessageID  int64

	// IsAdmin and IsWhitelisted short-circuit the pipeline straight to
	// VerdictAllow, bypassing analyzers and rate limiting.
	IsAdmin       bool
	IsWhitelisted bool

	Metadata map[string]any
}
