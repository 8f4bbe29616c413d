// Package ports defines the external collaborators the decision core is
// written against: messaging platform access, history/subscription lookups,
// the spam database, the LLM gray-zone adjudicator, decision persistence,
// metrics, and the shared key-value store. The core never imports a
// concrete adapter, only these interfaces — concrete implementations live
// under internal/adapters and are wired in main().
package ports

import (
	"context"

	"github.com/nauanbek/saqshy/pkg/types"
)

// MessagingClient performs the side effects an action plan calls for
// against the chat platform (delete a message, restrict/ban a user, notify
// admins). Implementations must be idempotent-safe: the core guarantees it
// will not call the same action twice for the same idempotency key, but a
// retried call after a network error may still reach the platform twice.
type MessagingClient interface {
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	RestrictUser(ctx context.Context, chatID, userID int64, durationSeconds int64) error
	BanUser(ctx context.Context, chatID, userID int64) error
	WarnUser(ctx context.Context, chatID, userID int64, reason string) error
	NotifyAdmins(ctx context.Context, chatID int64, message string) error
}

// MessageHistoryProvider answers the behavioral-history questions the
// BehaviorAnalyzer needs: prior message counts, timing, and moderation
// history for a user in a chat.
type MessageHistoryProvider interface {
	History(ctx context.Context, chatID, userID int64) (types.BehaviorSignals, error)
}

// ChannelSubscriptionChecker reports whether a user is subscribed to a
// group's linked channel, and for how long — the strongest trust signal in
// the behavior analyzer.
type ChannelSubscriptionChecker interface {
	IsSubscribed(ctx context.Context, channelID, userID int64) (subscribed bool, durationDays int, err error)
}

// SpamDatabase reports the similarity between a message and known spam, and
// whether the user or message appears on global block/allow lists.
type SpamDatabase interface {
	Similarity(ctx context.Context, text string) (similarity float64, matchedPattern string, err error)
	IsGlobalBlocked(ctx context.Context, userID int64) (bool, error)
	IsGlobalWhitelisted(ctx context.Context, userID int64) (bool, error)
}

// LLMAdjudicator resolves gray-zone risk scores by asking a language
// model to judge the message against group context.
type LLMAdjudicator interface {
	Adjudicate(ctx context.Context, msg types.MessageContext, risk types.RiskResult) (verdict types.Verdict, explanation string, confidence float64, err error)
}

// DecisionStore persists Decision records and answers audit queries.
type DecisionStore interface {
	Append(ctx context.Context, d types.Decision) error
	ByGroup(ctx context.Context, chatID int64, limit int) ([]types.Decision, error)
	ByUser(ctx context.Context, chatID, userID int64, limit int) ([]types.Decision, error)
	ByVerdict(ctx context.Context, chatID int64, verdict types.Verdict, limit int) ([]types.Decision, error)
}

// MetricsSink receives counters the audit trail and pipeline emit.
type MetricsSink interface {
	IncDecision(groupType types.GroupType, verdict types.Verdict)
	IncAction(actionType types.ActionType, ok bool)
	ObserveAnalyzerDuration(analyzer string, seconds float64)
	IncCircuitOpen(name string)
}

// KV is the shared, cross-instance key-value store backing rate limiting,
// sandbox/soft-watch state, and idempotency keys. Set is a conditional
// compare-and-swap write: when expectedVersion is non-empty the write only
// succeeds if the stored version still matches it.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, version string, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int64, expectedVersion string) (newVersion string, err error)
	Incr(ctx context.Context, key string, by int64, ttlSeconds int64) (int64, error)
	Delete(ctx context.Context, key string) error
}
