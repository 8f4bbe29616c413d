// Package behavior extracts types.BehaviorSignals by combining a user's
// moderation history (via pkg/ports.MessageHistoryProvider), real-time
// message-timing signals read through pkg/cache, and channel-subscription
// status (via pkg/ports.ChannelSubscriptionChecker), the strongest single
// trust signal this analyzer produces.
package behavior

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/nauanbek/saqshy/pkg/analyzer"
	"github.com/nauanbek/saqshy/pkg/cache"
	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/registry"
	"github.com/nauanbek/saqshy/pkg/types"
)

func init() {
	analyzer.Register("behavior", New)
}

const Name = "behavior"

// ErrMissingCache is returned by New when cfg["cache"] is absent: the
// behavior analyzer cannot compute sliding-window message counts without
// one.
var ErrMissingCache = errors.New("behavior: cfg[\"cache\"] must be a cache.Store")

// JoinToMessageWindow is how long after a cached join timestamp this
// analyzer still treats the gap as meaningful; beyond it the join record is
// considered stale and JoinToMessageSeconds is left nil.
const JoinToMessageWindow = 30 * 24 * time.Hour

var mentionPattern = regexp.MustCompile(`@\w{3,}`)

// Analyzer extracts BehaviorSignals. history and subChecker may be nil, in
// which case their contribution is simply omitted rather than erroring —
// a deployment without a linked channel has no subscription signal to
// offer, which is a configuration fact, not a failure.
type Analyzer struct {
	history    ports.MessageHistoryProvider
	subChecker ports.ChannelSubscriptionChecker
	store      cache.Store
	now        func() time.Time
}

// New builds a behavior Analyzer. cfg carries live collaborators:
//
//	cfg["history"]              ports.MessageHistoryProvider
//	cfg["subscription_checker"] ports.ChannelSubscriptionChecker
//	cfg["cache"]                cache.Store (required)
func New(cfg registry.Config) (analyzer.Analyzer, error) {
	store, _ := cfg["cache"].(cache.Store)
	if store == nil {
		return nil, ErrMissingCache
	}
	history, _ := cfg["history"].(ports.MessageHistoryProvider)
	subChecker, _ := cfg["subscription_checker"].(ports.ChannelSubscriptionChecker)
	return &Analyzer{history: history, subChecker: subChecker, store: store, now: time.Now}, nil
}

func (a *Analyzer) Name() string { return Name }

func (a *Analyzer) Analyze(ctx context.Context, msg types.MessageContext) (types.Signals, error) {
	b := types.BehaviorSignals{}

	if a.history != nil {
		hist, err := a.history.History(ctx, msg.ChatID, msg.UserID)
		if err != nil {
			return types.Signals{}, err
		}
		b = hist
	}

	now := a.now()
	nowMs := now.UnixMilli()

	_ = a.store.RecordMessageTimestamp(ctx, msg.ChatID, msg.UserID, nowMs)
	if count, err := a.store.CountMessagesInWindow(ctx, msg.ChatID, msg.UserID, 3600); err == nil {
		b.MessagesInLastHour = count
	}
	if count, err := a.store.CountMessagesInWindow(ctx, msg.ChatID, msg.UserID, 86400); err == nil {
		b.MessagesInLast24h = count
	}

	firstKey := cache.FirstMsgKey(msg.ChatID, msg.UserID)
	if _, found, _ := a.store.GetString(ctx, firstKey); !found {
		b.IsFirstMessage = true
		_ = a.store.SetString(ctx, firstKey, strconv.FormatInt(nowMs, 10), cache.TTLFirstMessage)
	}

	if raw, found, _ := a.store.GetString(ctx, cache.JoinTimeKey(msg.ChatID, msg.UserID)); found {
		if joinUnix, err := strconv.ParseInt(raw, 10, 64); err == nil {
			joinTime := time.Unix(joinUnix, 0)
			if elapsed := now.Sub(joinTime); elapsed >= 0 && elapsed <= JoinToMessageWindow {
				secs := int(elapsed.Seconds())
				b.JoinToMessageSeconds = &secs
				if b.IsFirstMessage {
					ttfm := secs
					b.TimeToFirstMessageSeconds = &ttfm
				}
			}
		}
	}

	b.IsReply = msg.ReplyToMessageID != 0
	if b.IsReply {
		if replyAdmin, ok := msg.Metadata["reply_to_is_admin"].(bool); ok {
			b.IsReplyToAdmin = replyAdmin
		}
	}
	b.MentionedUsersCount = len(mentionPattern.FindAllString(msg.Text, -1))

	if a.subChecker != nil {
		if channelID, ok := linkedChannelID(msg); ok {
			subscribed, durationDays, err := a.subChecker.IsSubscribed(ctx, channelID, msg.UserID)
			if err == nil {
				b.IsChannelSubscriber = subscribed
				b.ChannelSubscriptionDurationDays = durationDays
			}
		}
	}

	return types.Signals{Behavior: b}, nil
}

func linkedChannelID(msg types.MessageContext) (int64, bool) {
	switch v := msg.Metadata["linked_channel_id"].(type) {
	case int64:
		return v, v != 0
	case int:
		return int64(v), v != 0
	case float64:
		return int64(v), v != 0
	default:
		return 0, false
	}
}

var _ analyzer.Analyzer = (*Analyzer)(nil)
