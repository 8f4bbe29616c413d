// Package cache is the façade over the shared key-value store: the key
// schema, a fixed-window rate limiter, and an
// in-memory Store implementation for tests and cmd/saqshy run-local. It is
// the only Store implementation; the redis adapter in
// internal/adapters/kv/redis implements ports.KV instead.
package cache

import "fmt"

// Namespace is prepended to every key this package builds.
const Namespace = "saqshy:"

// MsgTSKey is the sorted-set of a user's message timestamps in a chat,
// used for the BehaviorAnalyzer's sliding windows.
func MsgTSKey(chatID, userID int64) string {
	return fmt.Sprintf("%smsg_ts:%d:%d", Namespace, chatID, userID)
}

// UserStatsKey is the hash of per-user approved/flagged/blocked counters.
func UserStatsKey(chatID, userID int64) string {
	return fmt.Sprintf("%suser_stats:%d:%d", Namespace, chatID, userID)
}

// FirstMsgKey stores the time of a user's first message in a chat as a
// decimal Unix-millisecond string (not an ISO timestamp).
func FirstMsgKey(chatID, userID int64) string {
	return fmt.Sprintf("%sfirst_msg:%d:%d", Namespace, chatID, userID)
}

// JoinTimeKey stores the time a user joined a chat as a decimal Unix-second
// string (not an ISO timestamp).
func JoinTimeKey(chatID, userID int64) string {
	return fmt.Sprintf("%sjoin_time:%d:%d", Namespace, chatID, userID)
}

// RateKey is the fixed-window rate-limit counter for a user in a chat.
func RateKey(chatID, userID int64) string {
	return fmt.Sprintf("%srate:%d:%d", Namespace, chatID, userID)
}

// GroupRateKey is the fixed-window rate-limit counter for a whole chat.
func GroupRateKey(chatID int64) string {
	return fmt.Sprintf("%srate:%d", Namespace, chatID)
}

// DecisionCacheKey caches a previously computed Decision by input hash, to
// avoid recomputing identical messages within the TTL window.
func DecisionCacheKey(hash string) string {
	return fmt.Sprintf("%sdecision_cache:%s", Namespace, hash)
}

// SubscriptionKey caches a channel-subscription check result.
func SubscriptionKey(channelID, userID int64) string {
	return fmt.Sprintf("%ssub:%d:%d", Namespace, channelID, userID)
}

// AdminKey caches whether a user is an admin of a chat.
func AdminKey(chatID, userID int64) string {
	return fmt.Sprintf("%sadmin:%d:%d", Namespace, chatID, userID)
}

// IdempotencyKey records that a given action_key has already fired a side
// effect. actionKey is the caller's sha256(verdict|chat_id|user_id|message_id|action_type).
func IdempotencyKey(actionKey string) string {
	return fmt.Sprintf("%sidempotency:%s", Namespace, actionKey)
}

// SandboxKey stores the JSON-encoded SandboxState for a user in a chat.
func SandboxKey(chatID, userID int64) string {
	return fmt.Sprintf("%ssandbox:%d:%d", Namespace, chatID, userID)
}

// SoftWatchKey stores the JSON-encoded SoftWatchState for a user in a chat.
func SoftWatchKey(chatID, userID int64) string {
	return fmt.Sprintf("%ssoftwatch:%d:%d", Namespace, chatID, userID)
}

// CrossGroupKey stores the JSON-encoded list of chat IDs a given message
// content hash has been seen in, backing the NetworkAnalyzer's
// duplicate/raid detection across groups.
func CrossGroupKey(contentHash string) string {
	return fmt.Sprintf("%scrossgroup:%s", Namespace, contentHash)
}

// TTL constants in seconds, one per key family.
const (
	TTLMessageTimestamps = 24 * 60 * 60
	TTLUserStats         = 30 * 24 * 60 * 60
	TTLFirstMessage      = 7 * 24 * 60 * 60
	TTLJoinTime          = 7 * 24 * 60 * 60
	TTLDecisionCache     = 5 * 60
	TTLSubscription      = 60 * 60
	TTLSubscriptionError = 5 * 60
	TTLAdmin             = 5 * 60
	TTLIdempotency       = 24 * 60 * 60
	TTLCrossGroup        = 7 * 24 * 60 * 60
)

// CrossGroupFanoutCap bounds how many chat IDs are retained per content
// hash, so a single viral (legitimate) message cannot grow the record
// without limit.
const CrossGroupFanoutCap = 50
