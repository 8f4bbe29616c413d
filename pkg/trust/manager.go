package trust

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nauanbek/saqshy/pkg/cache"
	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/types"
)

// ErrVersionConflict is returned by a CAS write that lost a race after
// its single reload-and-retry has also failed.
var ErrVersionConflict = errors.New("trust: version conflict persisted after reload-and-retry")

// SandboxDuration and SoftWatchDuration are the KV TTLs of the sandbox
// and soft-watch records.
const (
	SandboxDuration   = 24 * time.Hour
	SoftWatchDuration = 24 * time.Hour
)

// Manager is the stateful layer over the pure SandboxState/SoftWatchState
// transitions, persisting through pkg/ports.KV with compare-and-swap
// writes and one reload-and-retry on a version conflict.
type Manager struct {
	kv  ports.KV
	now func() time.Time
}

// NewManager builds a trust Manager. nowFunc supplies the clock; tests pass
// a deterministic stub.
func NewManager(kv ports.KV, nowFunc func() time.Time) *Manager {
	return &Manager{kv: kv, now: nowFunc}
}

// Sandbox loads the current SandboxState for a user in a chat, or a fresh
// LevelNew state if none exists yet.
func (m *Manager) Sandbox(ctx context.Context, chatID, userID int64) (SandboxState, error) {
	raw, version, found, err := m.kv.Get(ctx, cache.SandboxKey(chatID, userID))
	if err != nil {
		return SandboxState{}, fmt.Errorf("trust: load sandbox state: %w", err)
	}
	if !found {
		return SandboxState{ChatID: chatID, UserID: userID, Level: LevelNew}, nil
	}
	var s SandboxState
	if err := json.Unmarshal(raw, &s); err != nil {
		return SandboxState{}, fmt.Errorf("trust: decode sandbox state: %w", err)
	}
	s.Version = version
	return s, nil
}

// EnterSandbox transitions a new member into sandbox (general/tech/crypto
// groups with sandbox enabled).
func (m *Manager) EnterSandbox(ctx context.Context, chatID, userID int64) (SandboxState, error) {
	state := NewSandboxState(chatID, userID, m.now(), SandboxDuration)
	if err := m.saveSandbox(ctx, &state); err != nil {
		return SandboxState{}, err
	}
	return state, nil
}

// RecordMessage folds one more message into the sandbox state: the
// approved-message counter, the regression counter on a limit verdict, and
// the release/promotion/regression transitions, applied in priority order
// (regression first, since a block/limit streak always wins over a
// simultaneous release condition).
func (m *Manager) RecordMessage(ctx context.Context, chatID, userID int64, verdict types.Verdict) (SandboxState, error) {
	state, err := m.Sandbox(ctx, chatID, userID)
	if err != nil {
		return SandboxState{}, err
	}

	approved := verdict == types.VerdictAllow || verdict == types.VerdictWatch
	state = state.WithMessageRecorded(approved)
	if verdict == types.VerdictLimit {
		state = state.WithLimitVerdict()
	}

	switch {
	case verdict == types.VerdictBlock || state.LimitVerdictsInTrail >= DefaultRegressionLimitCount:
		state = state.WithRegressed(m.now(), SandboxDuration)
	case state.Level == LevelSandbox && (state.ReadyForRelease(m.now()) || state.Expired(m.now())):
		reason := ReleaseApprovedMessages
		if state.Expired(m.now()) {
			reason = ReleaseTimeExpired
		}
		state = state.WithReleased(reason)
	case state.ReadyForTrusted():
		state = state.WithPromotedToTrusted()
	}

	if err := m.saveSandbox(ctx, &state); err != nil {
		return SandboxState{}, err
	}
	return state, nil
}

// ReleaseViaChannelSubscription promotes a confirmed channel subscriber
// straight to trusted, skipping the sandbox; callers invoke it once a
// subscription check confirms eligibility.
func (m *Manager) ReleaseViaChannelSubscription(ctx context.Context, chatID, userID int64) (SandboxState, error) {
	state, err := m.Sandbox(ctx, chatID, userID)
	if err != nil {
		return SandboxState{}, err
	}
	state.Level = LevelTrusted
	state.LastReleaseReason = ReleaseChannelSubscription
	if err := m.saveSandbox(ctx, &state); err != nil {
		return SandboxState{}, err
	}
	return state, nil
}

// AdminOverride immediately promotes a user to trusted regardless of the
// sandbox counters, recording the admin_override release reason.
func (m *Manager) AdminOverride(ctx context.Context, chatID, userID int64) (SandboxState, error) {
	state, err := m.Sandbox(ctx, chatID, userID)
	if err != nil {
		return SandboxState{}, err
	}
	state.Level = LevelTrusted
	state.LastReleaseReason = ReleaseAdminOverride
	if err := m.saveSandbox(ctx, &state); err != nil {
		return SandboxState{}, err
	}
	return state, nil
}

func (m *Manager) saveSandbox(ctx context.Context, state *SandboxState) error {
	expectedVersion := state.Version
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("trust: encode sandbox state: %w", err)
	}

	newVersion, err := m.kv.Set(ctx, cache.SandboxKey(state.ChatID, state.UserID), payload, int64(SandboxDuration.Seconds()), expectedVersion)
	if err == nil {
		state.Version = newVersion
		return nil
	}

	reloaded, reloadErr := m.Sandbox(ctx, state.ChatID, state.UserID)
	if reloadErr != nil {
		return fmt.Errorf("trust: reload after version conflict: %w", reloadErr)
	}
	state.Version = reloaded.Version
	payload, err = json.Marshal(state)
	if err != nil {
		return fmt.Errorf("trust: encode sandbox state: %w", err)
	}
	newVersion, err = m.kv.Set(ctx, cache.SandboxKey(state.ChatID, state.UserID), payload, int64(SandboxDuration.Seconds()), state.Version)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVersionConflict, err)
	}
	state.Version = newVersion
	return nil
}

// SoftWatch loads the current SoftWatchState for a deals-group member, or
// a fresh record if none exists.
func (m *Manager) SoftWatch(ctx context.Context, chatID, userID int64) (SoftWatchState, error) {
	raw, version, found, err := m.kv.Get(ctx, cache.SoftWatchKey(chatID, userID))
	if err != nil {
		return SoftWatchState{}, fmt.Errorf("trust: load soft-watch state: %w", err)
	}
	if !found {
		return NewSoftWatchState(chatID, userID), nil
	}
	var s SoftWatchState
	if err := json.Unmarshal(raw, &s); err != nil {
		return SoftWatchState{}, fmt.Errorf("trust: decode soft-watch state: %w", err)
	}
	s.Version = version
	return s, nil
}

// RecordSoftWatchMessage folds one more observation into the soft-watch
// state. Once the state reaches IsCompleted, further calls are no-ops that
// just return the already-completed state, bounding KV growth for
// long-lived deals-group members.
func (m *Manager) RecordSoftWatchMessage(ctx context.Context, chatID, userID int64, flagged, spamDBMatch bool) (SoftWatchState, error) {
	state, err := m.SoftWatch(ctx, chatID, userID)
	if err != nil {
		return SoftWatchState{}, err
	}
	if state.IsCompleted {
		return state, nil
	}
	state = state.WithMessageObserved(flagged, spamDBMatch)

	expectedVersion := state.Version
	payload, err := json.Marshal(state)
	if err != nil {
		return SoftWatchState{}, fmt.Errorf("trust: encode soft-watch state: %w", err)
	}
	newVersion, err := m.kv.Set(ctx, cache.SoftWatchKey(chatID, userID), payload, int64(SoftWatchDuration.Seconds()), expectedVersion)
	if err != nil {
		reloaded, reloadErr := m.SoftWatch(ctx, chatID, userID)
		if reloadErr != nil {
			return SoftWatchState{}, fmt.Errorf("trust: reload after version conflict: %w", reloadErr)
		}
		if reloaded.IsCompleted {
			return reloaded, nil
		}
		state = reloaded.WithMessageObserved(flagged, spamDBMatch)
		payload, err = json.Marshal(state)
		if err != nil {
			return SoftWatchState{}, fmt.Errorf("trust: encode soft-watch state: %w", err)
		}
		newVersion, err = m.kv.Set(ctx, cache.SoftWatchKey(chatID, userID), payload, int64(SoftWatchDuration.Seconds()), reloaded.Version)
		if err != nil {
			return reloaded, fmt.Errorf("%w: %v", ErrVersionConflict, err)
		}
	}
	state.Version = newVersion
	return state, nil
}
