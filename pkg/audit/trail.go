// Package audit is the append-only decision record and its aggregate
// statistics: Trail wraps pkg/ports.DecisionStore + pkg/ports.MetricsSink,
// and Stats is a pure aggregation over a batch of decisions.
package audit

import (
	"context"
	"fmt"

	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/types"
)

// Trail records every processed message's Decision and answers the
// by-user/by-verdict audit queries the admin surface needs, ticking
// metrics alongside each write.
type Trail struct {
	store   ports.DecisionStore
	metrics ports.MetricsSink
}

// NewTrail builds a Trail. metrics may be nil, in which case metric ticks
// are simply skipped.
func NewTrail(store ports.DecisionStore, metrics ports.MetricsSink) *Trail {
	return &Trail{store: store, metrics: metrics}
}

// Record appends d to the store and ticks the decision/action counters.
// Metric emission failures are not possible by contract (MetricsSink has no
// error return); a store failure is returned to the caller, and must not
// undo or block the action engine that already ran.
func (t *Trail) Record(ctx context.Context, d types.Decision) error {
	if err := t.store.Append(ctx, d); err != nil {
		return fmt.Errorf("audit: append decision: %w", err)
	}
	if t.metrics != nil {
		t.metrics.IncDecision(d.GroupType, d.Risk.Verdict)
		for _, a := range d.Actions {
			t.metrics.IncAction(a.ActionType, true)
		}
	}
	return nil
}

// RecordOverride appends a new Decision capturing an admin's manual verdict
// override of an earlier one. The original Decision is never mutated —
// DecisionStore is append-only — so the override is its own record, linked
// back via Metadata["overrides_decision_id"].
func (t *Trail) RecordOverride(ctx context.Context, original types.Decision, adminUserID int64, newVerdict types.Verdict, reason string) error {
	override := original
	override.ID = ""
	override.Risk.Verdict = newVerdict
	override.Actions = nil
	if override.Metadata == nil {
		override.Metadata = make(map[string]any, 4)
	} else {
		merged := make(map[string]any, len(original.Metadata)+4)
		for k, v := range original.Metadata {
			merged[k] = v
		}
		override.Metadata = merged
	}
	override.Metadata["overrides_decision_id"] = original.ID
	override.Metadata["override_admin_user_id"] = adminUserID
	override.Metadata["override_reason"] = reason
	return t.Record(ctx, override)
}

// ByGroup returns the most recent decisions in a chat.
func (t *Trail) ByGroup(ctx context.Context, chatID int64, limit int) ([]types.Decision, error) {
	return t.store.ByGroup(ctx, chatID, limit)
}

// ByUser returns the most recent decisions for a user in a chat.
func (t *Trail) ByUser(ctx context.Context, chatID, userID int64, limit int) ([]types.Decision, error) {
	return t.store.ByUser(ctx, chatID, userID, limit)
}

// ByVerdict returns the most recent decisions in a chat matching verdict.
func (t *Trail) ByVerdict(ctx context.Context, chatID int64, verdict types.Verdict, limit int) ([]types.Decision, error) {
	return t.store.ByVerdict(ctx, chatID, verdict, limit)
}

// Stats aggregates a slice of decisions already fetched by the caller,
// a pure aggregation rather than a live query the store must support.
type Stats struct {
	Total            int
	ByVerdict        map[types.Verdict]int
	ByThreatType     map[types.ThreatType]int
	LLMInvocations   int
	LLMUsageFraction float64
	AvgScore         float64
}

// ComputeStats aggregates statistics over a batch of decisions.
func ComputeStats(decisions []types.Decision) Stats {
	s := Stats{
		ByVerdict:    make(map[types.Verdict]int),
		ByThreatType: make(map[types.ThreatType]int),
	}
	if len(decisions) == 0 {
		return s
	}

	totalScore := 0
	for _, d := range decisions {
		s.Total++
		s.ByVerdict[d.Risk.Verdict]++
		s.ByThreatType[d.Risk.ThreatType]++
		totalScore += d.Risk.Score
		if d.Risk.NeedsLLM {
			s.LLMInvocations++
		}
	}
	s.AvgScore = float64(totalScore) / float64(s.Total)
	s.LLMUsageFraction = float64(s.LLMInvocations) / float64(s.Total)
	return s
}
