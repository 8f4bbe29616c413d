// Package action builds and executes the verdict-to-action plan: given a
// Verdict and a RiskResult it produces an ordered Action plan, dispatches
// each action through pkg/ports.MessagingClient
// exactly once (idempotency keyed on
// sha256(verdict|chat_id|user_id|message_id|action_type)), classifies
// failures per pkg/ports.ErrorClass, and falls back delete->warn and
// restrict->notify-admin when a primary action fails.
package action

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/ratelimit"
	"github.com/nauanbek/saqshy/pkg/types"
)

// IdempotencyTTLSeconds keeps an action key live for a full day, long
// past any redelivery window of the messaging platform.
const IdempotencyTTLSeconds = 24 * 60 * 60

// BlockRestrictScoreMargin is the additional score above the block
// threshold at which a block verdict also restricts the member.
const BlockRestrictScoreMargin = 5

// fallback maps a primary action to its single fallback. Actions absent
// from this table have no fallback.
var fallback = map[types.ActionType]types.ActionType{
	types.ActionDelete:   types.ActionWarn,
	types.ActionRestrict: types.ActionNotifyAdmins,
}

// Plan builds the ordered action list for a verdict. blockThreshold is
// the group's configured block score threshold, needed to decide whether
// a block verdict also restricts.
func Plan(msg types.MessageContext, risk types.RiskResult, blockThreshold int) []types.Action {
	base := types.Action{
		TargetUserID: msg.UserID,
		TargetChatID: msg.ChatID,
		MessageID:    msg.MessageID,
		RiskResult:   &risk,
		LogDecision:  true,
	}

	switch risk.Verdict {
	case types.VerdictAllow:
		return nil
	case types.VerdictWatch:
		a := base
		a.ActionType = types.ActionNone
		a.Reason = "watch: recorded, no restriction"
		return []types.Action{a}
	case types.VerdictLimit:
		a := base
		a.ActionType = types.ActionRestrict
		a.DurationSeconds = 0
		a.Reason = "limit: text-only restriction"
		a.NotifyUser = true
		return []types.Action{a}
	case types.VerdictReview:
		a := base
		a.ActionType = types.ActionNone
		a.Reason = "review: enqueued for admin review"
		a.NotifyAdmins = true
		return []types.Action{a}
	case types.VerdictBlock:
		actions := []types.Action{}
		del := base
		del.ActionType = types.ActionDelete
		del.Reason = "block: remove message"
		del.NotifyAdmins = true
		actions = append(actions, del)
		if risk.Score >= blockThreshold+BlockRestrictScoreMargin {
			restrict := base
			restrict.ActionType = types.ActionRestrict
			restrict.Reason = fmt.Sprintf("block: score %d >= threshold+%d, also restrict", risk.Score, BlockRestrictScoreMargin)
			actions = append(actions, restrict)
		}
		return actions
	default:
		return nil
	}
}

// Key computes the idempotency key for a single action within a decision:
// sha256(verdict|chat_id|user_id|message_id|action_type).
func Key(verdict types.Verdict, chatID, userID, messageID int64, actionType types.ActionType) string {
	raw := fmt.Sprintf("%s|%d|%d|%d|%s", verdict, chatID, userID, messageID, actionType)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Engine dispatches a Plan against pkg/ports.MessagingClient, enforcing
// idempotency, error classification, the fallback chain, and rate-limited
// admin notifications. Safe for concurrent use by multiple pipelines.
type Engine struct {
	messaging   ports.MessagingClient
	idempotency ports.IdempotencyStore
	log         *slog.Logger

	mu            sync.Mutex
	adminLimiters map[int64]*ratelimit.Limiter
	pendingAdmins map[int64]int
	newLimiter    func() *ratelimit.Limiter
}

// NewEngine builds an action Engine. newAdminLimiter constructs the
// per-group admin-notification throttle, one per chat on first use; nil
// applies the 1/minute default via ratelimit.PerMinute(1).
func NewEngine(messaging ports.MessagingClient, idempotency ports.IdempotencyStore, newAdminLimiter func() *ratelimit.Limiter, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if newAdminLimiter == nil {
		newAdminLimiter = func() *ratelimit.Limiter { return ratelimit.PerMinute(1) }
	}
	return &Engine{
		messaging:     messaging,
		idempotency:   idempotency,
		log:           log,
		adminLimiters: make(map[int64]*ratelimit.Limiter),
		pendingAdmins: make(map[int64]int),
		newLimiter:    newAdminLimiter,
	}
}

// Execute runs every action in plan, in order, against the messaging
// client. It never aborts the plan on a single action's failure: each
// action's error is classified, its fallback (if any) is attempted, and
// execution continues to the next action regardless. A rate-limited action
// is the exception: it is logged and dropped, with no retry, no fallback and
// no queueing for a later attempt.
func (e *Engine) Execute(ctx context.Context, verdict types.Verdict, msg types.MessageContext, plan []types.Action) {
	for _, a := range plan {
		e.executeOne(ctx, verdict, msg, a)
	}
}

func (e *Engine) executeOne(ctx context.Context, verdict types.Verdict, msg types.MessageContext, a types.Action) {
	if a.ActionType == types.ActionNone {
		if a.NotifyAdmins {
			e.notifyAdmins(ctx, msg.ChatID, a.Reason)
		}
		return
	}

	key := Key(verdict, a.TargetChatID, a.TargetUserID, a.MessageID, a.ActionType)
	skipped, err := ports.Idempotent(ctx, e.idempotency, key, IdempotencyTTLSeconds, func() error {
		return e.dispatch(ctx, a)
	})
	if skipped {
		e.log.DebugContext(ctx, "action already applied, skipping", "action_type", a.ActionType, "key", key)
		return
	}
	if err == nil {
		if a.NotifyAdmins {
			e.notifyAdmins(ctx, a.TargetChatID, a.Reason)
		}
		return
	}

	class := ports.Classify(err)
	e.log.WarnContext(ctx, "action dispatch failed", "action_type", a.ActionType, "error_class", class.String(), "err", err)

	switch class {
	case ports.ErrClassForbidden, ports.ErrClassBadRequest, ports.ErrClassAPI:
		e.tryFallback(ctx, verdict, msg, a)
	case ports.ErrClassNetwork, ports.ErrClassUnknown:
		if retryErr := e.dispatch(ctx, a); retryErr != nil {
			e.tryFallback(ctx, verdict, msg, a)
		}
	case ports.ErrClassRateLimit:
		e.log.WarnContext(ctx, "action dropped by rate limit", "action_type", a.ActionType, "err", err)
	default:
		e.tryFallback(ctx, verdict, msg, a)
	}
}

func (e *Engine) tryFallback(ctx context.Context, verdict types.Verdict, msg types.MessageContext, primary types.Action) {
	fallbackType, ok := fallback[primary.ActionType]
	if !ok {
		return
	}
	fb := primary
	fb.ActionType = fallbackType
	fb.Reason = fmt.Sprintf("fallback for failed %s: %s", primary.ActionType, primary.Reason)
	e.executeOne(ctx, verdict, msg, fb)
}

func (e *Engine) dispatch(ctx context.Context, a types.Action) error {
	switch a.ActionType {
	case types.ActionDelete:
		return e.messaging.DeleteMessage(ctx, a.TargetChatID, a.MessageID)
	case types.ActionRestrict:
		return e.messaging.RestrictUser(ctx, a.TargetChatID, a.TargetUserID, a.DurationSeconds)
	case types.ActionBan:
		return e.messaging.BanUser(ctx, a.TargetChatID, a.TargetUserID)
	case types.ActionWarn:
		return e.messaging.WarnUser(ctx, a.TargetChatID, a.TargetUserID, a.Reason)
	case types.ActionNotifyAdmins:
		return e.messaging.NotifyAdmins(ctx, a.TargetChatID, a.Reason)
	default:
		return errors.New("action: unknown action type")
	}
}

// notifyAdmins enforces the 1/minute-per-group cap, coalescing suppressed
// notifications into a pending count that rides the next successful send.
func (e *Engine) notifyAdmins(ctx context.Context, chatID int64, reason string) {
	e.mu.Lock()
	limiter, ok := e.adminLimiters[chatID]
	if !ok {
		limiter = e.newLimiter()
		e.adminLimiters[chatID] = limiter
	}
	if !limiter.TryAcquire() {
		e.pendingAdmins[chatID]++
		e.mu.Unlock()
		return
	}
	pending := e.pendingAdmins[chatID]
	e.pendingAdmins[chatID] = 0
	e.mu.Unlock()

	message := reason
	if pending > 0 {
		message = fmt.Sprintf("%s (+%d more suppressed notifications)", reason, pending)
	}
	if err := e.messaging.NotifyAdmins(ctx, chatID, message); err != nil {
		e.log.WarnContext(ctx, "admin notification failed", "chat_id", chatID, "err", err)
	}
}
