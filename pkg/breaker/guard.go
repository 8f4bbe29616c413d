package breaker

import (
	"context"

	"github.com/nauanbek/saqshy/pkg/ports"
)

// GuardedSpamDatabase wraps a ports.SpamDatabase behind the "spam_db"
// breaker. A tripped breaker fails open: callers get a
// zero-similarity, non-blocked, non-whitelisted result rather than an
// error, since a spam-database outage must never itself become the reason
// a message is blocked.
type GuardedSpamDatabase struct {
	Inner    ports.SpamDatabase
	Registry *Registry
}

func (g GuardedSpamDatabase) Similarity(ctx context.Context, text string) (float64, string, error) {
	var sim float64
	var pattern string
	err := g.Registry.Do(ctx, "spam_db", func(ctx context.Context) error {
		var innerErr error
		sim, pattern, innerErr = g.Inner.Similarity(ctx, text)
		return innerErr
	})
	if err == ErrCircuitOpen {
		return 0, "", nil
	}
	return sim, pattern, err
}

func (g GuardedSpamDatabase) IsGlobalBlocked(ctx context.Context, userID int64) (bool, error) {
	var blocked bool
	err := g.Registry.Do(ctx, "spam_db", func(ctx context.Context) error {
		var innerErr error
		blocked, innerErr = g.Inner.IsGlobalBlocked(ctx, userID)
		return innerErr
	})
	if err == ErrCircuitOpen {
		return false, nil
	}
	return blocked, err
}

func (g GuardedSpamDatabase) IsGlobalWhitelisted(ctx context.Context, userID int64) (bool, error) {
	var whitelisted bool
	err := g.Registry.Do(ctx, "spam_db", func(ctx context.Context) error {
		var innerErr error
		whitelisted, innerErr = g.Inner.IsGlobalWhitelisted(ctx, userID)
		return innerErr
	})
	if err == ErrCircuitOpen {
		return false, nil
	}
	return whitelisted, err
}

var _ ports.SpamDatabase = GuardedSpamDatabase{}

// GuardedSubscriptionChecker wraps a ports.ChannelSubscriptionChecker
// behind the "subscription_checker" breaker, failing open to
// "not subscribed" — an outage here must cost a user the trust bonus, not
// grant one.
type GuardedSubscriptionChecker struct {
	Inner    ports.ChannelSubscriptionChecker
	Registry *Registry
}

func (g GuardedSubscriptionChecker) IsSubscribed(ctx context.Context, channelID, userID int64) (bool, int, error) {
	var subscribed bool
	var days int
	err := g.Registry.Do(ctx, "subscription_checker", func(ctx context.Context) error {
		var innerErr error
		subscribed, days, innerErr = g.Inner.IsSubscribed(ctx, channelID, userID)
		return innerErr
	})
	if err == ErrCircuitOpen {
		return false, 0, nil
	}
	return subscribed, days, err
}

var _ ports.ChannelSubscriptionChecker = GuardedSubscriptionChecker{}

// GuardedMessagingClient wraps a ports.MessagingClient behind the
// "messaging_client" breaker. Unlike the read-only guards above, a tripped
// breaker here must NOT fail open — skipping a delete/restrict because the
// platform API is unavailable would defeat the action engine entirely — so
// ErrCircuitOpen is surfaced as a network-classified error, which routes
// through the action engine's existing retry/fallback handling.
type GuardedMessagingClient struct {
	Inner    ports.MessagingClient
	Registry *Registry
}

func (g GuardedMessagingClient) guard(ctx context.Context, fn func(ctx context.Context) error) error {
	err := g.Registry.Do(ctx, "messaging_client", fn)
	if err == ErrCircuitOpen {
		return &ports.ClassifiedError{Class: ports.ErrClassNetwork, Err: ErrCircuitOpen}
	}
	return err
}

func (g GuardedMessagingClient) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return g.guard(ctx, func(ctx context.Context) error { return g.Inner.DeleteMessage(ctx, chatID, messageID) })
}

func (g GuardedMessagingClient) RestrictUser(ctx context.Context, chatID, userID int64, durationSeconds int64) error {
	return g.guard(ctx, func(ctx context.Context) error {
		return g.Inner.RestrictUser(ctx, chatID, userID, durationSeconds)
	})
}

func (g GuardedMessagingClient) BanUser(ctx context.Context, chatID, userID int64) error {
	return g.guard(ctx, func(ctx context.Context) error { return g.Inner.BanUser(ctx, chatID, userID) })
}

func (g GuardedMessagingClient) WarnUser(ctx context.Context, chatID, userID int64, reason string) error {
	return g.guard(ctx, func(ctx context.Context) error { return g.Inner.WarnUser(ctx, chatID, userID, reason) })
}

func (g GuardedMessagingClient) NotifyAdmins(ctx context.Context, chatID int64, message string) error {
	return g.guard(ctx, func(ctx context.Context) error { return g.Inner.NotifyAdmins(ctx, chatID, message) })
}

var _ ports.MessagingClient = GuardedMessagingClient{}
