package action_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nauanbek/saqshy/pkg/action"
	"github.com/nauanbek/saqshy/pkg/cache"
	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/ratelimit"
	"github.com/nauanbek/saqshy/pkg/types"
)

// fakeMessaging records every call and fails the action types listed in
// failWith.
type fakeMessaging struct {
	mu       sync.Mutex
	calls    []string
	notices  []string
	failWith map[types.ActionType]error
}

func (f *fakeMessaging) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeMessaging) fail(at types.ActionType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failWith[at]
}

func (f *fakeMessaging) DeleteMessage(_ context.Context, _, _ int64) error {
	f.record("delete")
	return f.fail(types.ActionDelete)
}

func (f *fakeMessaging) RestrictUser(_ context.Context, _, _ int64, _ int64) error {
	f.record("restrict")
	return f.fail(types.ActionRestrict)
}

func (f *fakeMessaging) BanUser(_ context.Context, _, _ int64) error {
	f.record("ban")
	return f.fail(types.ActionBan)
}

func (f *fakeMessaging) WarnUser(_ context.Context, _, _ int64, _ string) error {
	f.record("warn")
	return f.fail(types.ActionWarn)
}

func (f *fakeMessaging) NotifyAdmins(_ context.Context, _ int64, message string) error {
	f.record("notify_admins")
	f.mu.Lock()
	f.notices = append(f.notices, message)
	f.mu.Unlock()
	return f.fail(types.ActionNotifyAdmins)
}

func (f *fakeMessaging) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func newTestEngine(msg *fakeMessaging) (*action.Engine, cache.Store) {
	store := cache.NewMemoryStore(func() int64 { return 0 })
	return action.NewEngine(msg, store, nil, nil), store
}

func testMessage() types.MessageContext {
	return types.MessageContext{ChatID: -100, UserID: 42, MessageID: 7, GroupType: types.GroupGeneral}
}

func TestPlan_VerdictTable(t *testing.T) {
	msg := testMessage()

	tests := []struct {
		verdict    types.Verdict
		score      int
		wantTypes  []types.ActionType
		wantAdmins bool
	}{
		{types.VerdictAllow, 10, nil, false},
		{types.VerdictWatch, 35, []types.ActionType{types.ActionNone}, false},
		{types.VerdictLimit, 55, []types.ActionType{types.ActionRestrict}, false},
		{types.VerdictReview, 80, []types.ActionType{types.ActionNone}, true},
		{types.VerdictBlock, 92, []types.ActionType{types.ActionDelete}, true},
		{types.VerdictBlock, 99, []types.ActionType{types.ActionDelete, types.ActionRestrict}, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.verdict), func(t *testing.T) {
			risk := types.RiskResult{Verdict: tt.verdict, Score: tt.score}
			plan := action.Plan(msg, risk, 92)

			var gotTypes []types.ActionType
			gotAdmins := false
			for _, a := range plan {
				gotTypes = append(gotTypes, a.ActionType)
				if a.NotifyAdmins {
					gotAdmins = true
				}
			}
			assert.Equal(t, tt.wantTypes, gotTypes)
			assert.Equal(t, tt.wantAdmins, gotAdmins)
		})
	}
}

func TestKey_DeterministicAndDistinct(t *testing.T) {
	a := action.Key(types.VerdictBlock, -100, 42, 7, types.ActionDelete)
	b := action.Key(types.VerdictBlock, -100, 42, 7, types.ActionDelete)
	c := action.Key(types.VerdictBlock, -100, 42, 7, types.ActionRestrict)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64, "hex-encoded sha256")
}

func TestExecute_SecondRunPerformsNoSideEffects(t *testing.T) {
	messaging := &fakeMessaging{}
	engine, _ := newTestEngine(messaging)
	msg := testMessage()
	risk := types.RiskResult{Verdict: types.VerdictBlock, Score: 99}
	plan := action.Plan(msg, risk, 92)

	engine.Execute(context.Background(), types.VerdictBlock, msg, plan)
	require.Equal(t, 1, messaging.callCount("delete"))
	require.Equal(t, 1, messaging.callCount("restrict"))

	engine.Execute(context.Background(), types.VerdictBlock, msg, plan)
	assert.Equal(t, 1, messaging.callCount("delete"), "idempotency key must suppress the repeat delete")
	assert.Equal(t, 1, messaging.callCount("restrict"))
}

func TestExecute_DeleteFailureTriggersWarnFallbackAndContinues(t *testing.T) {
	messaging := &fakeMessaging{failWith: map[types.ActionType]error{
		types.ActionDelete: &ports.ClassifiedError{Class: ports.ErrClassForbidden, Err: errors.New("bot not admin")},
	}}
	engine, _ := newTestEngine(messaging)
	msg := testMessage()
	risk := types.RiskResult{Verdict: types.VerdictBlock, Score: 99}
	plan := action.Plan(msg, risk, 92)

	engine.Execute(context.Background(), types.VerdictBlock, msg, plan)

	assert.Equal(t, 1, messaging.callCount("delete"))
	assert.Equal(t, 1, messaging.callCount("warn"), "delete's fallback is warn")
	assert.Equal(t, 1, messaging.callCount("restrict"), "a failed action never aborts the rest of the plan")
}

func TestExecute_NetworkErrorRetriesOnce(t *testing.T) {
	messaging := &fakeMessaging{failWith: map[types.ActionType]error{
		types.ActionDelete: &ports.ClassifiedError{Class: ports.ErrClassNetwork, Err: errors.New("reset")},
	}}
	engine, _ := newTestEngine(messaging)
	msg := testMessage()
	risk := types.RiskResult{Verdict: types.VerdictBlock, Score: 92}
	plan := action.Plan(msg, risk, 92)

	engine.Execute(context.Background(), types.VerdictBlock, msg, plan)

	assert.Equal(t, 2, messaging.callCount("delete"), "network failures get exactly one retry")
	assert.Equal(t, 1, messaging.callCount("warn"), "fallback fires after the retry also fails")
}

func TestExecute_RateLimitDropsWithoutFallback(t *testing.T) {
	messaging := &fakeMessaging{failWith: map[types.ActionType]error{
		types.ActionRestrict: &ports.ClassifiedError{Class: ports.ErrClassRateLimit, Err: errors.New("429")},
	}}
	engine, _ := newTestEngine(messaging)
	msg := testMessage()
	risk := types.RiskResult{Verdict: types.VerdictLimit, Score: 55}
	plan := action.Plan(msg, risk, 92)

	engine.Execute(context.Background(), types.VerdictLimit, msg, plan)

	assert.Equal(t, 1, messaging.callCount("restrict"))
	assert.Zero(t, messaging.callCount("notify_admins"), "rate-limited actions are dropped, they do not fall back")
}

func TestAdminNotifications_CappedPerGroupAndCoalesced(t *testing.T) {
	messaging := &fakeMessaging{}
	store := cache.NewMemoryStore(func() int64 { return 0 })
	engine := action.NewEngine(messaging, store, func() *ratelimit.Limiter {
		return ratelimit.PerMinute(1)
	}, nil)

	msg := testMessage()
	risk := types.RiskResult{Verdict: types.VerdictReview, Score: 80}

	for i := 0; i < 3; i++ {
		// Review plans carry distinct message IDs so idempotency does not
		// interfere with the throttle under test.
		m := msg
		m.MessageID = int64(100 + i)
		plan := action.Plan(m, risk, 92)
		engine.Execute(context.Background(), types.VerdictReview, m, plan)
	}

	require.Equal(t, 1, messaging.callCount("notify_admins"), "per-group cap is 1/minute")

	// A different group has its own limiter.
	other := msg
	other.ChatID = -200
	plan := action.Plan(other, risk, 92)
	engine.Execute(context.Background(), types.VerdictReview, other, plan)
	assert.Equal(t, 2, messaging.callCount("notify_admins"))
}
