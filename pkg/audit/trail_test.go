package audit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	store "github.com/nauanbek/saqshy/internal/adapters/audit/inmemory"
	"github.com/nauanbek/saqshy/pkg/audit"
	"github.com/nauanbek/saqshy/pkg/types"
)

func decision(id string, chatID, userID int64, verdict types.Verdict, score int) types.Decision {
	return types.Decision{
		ID:     id,
		ChatID: chatID,
		UserID: userID,
		Risk:   types.RiskResult{Verdict: verdict, Score: score},
	}
}

func TestRecord_AppendsToStore(t *testing.T) {
	s := store.New()
	trail := audit.NewTrail(s, nil)

	require.NoError(t, trail.Record(context.Background(), decision("d1", -100, 42, types.VerdictAllow, 5)))
	require.NoError(t, trail.Record(context.Background(), decision("d2", -100, 42, types.VerdictBlock, 97)))

	assert.Equal(t, 2, s.Len())
}

func TestByUserAndByVerdict_NewestFirstWithLimit(t *testing.T) {
	s := store.New()
	trail := audit.NewTrail(s, nil)
	ctx := context.Background()

	for i, v := range []types.Verdict{types.VerdictAllow, types.VerdictWatch, types.VerdictAllow} {
		require.NoError(t, trail.Record(ctx, decision(string(rune('a'+i)), -100, 42, v, 10)))
	}
	require.NoError(t, trail.Record(ctx, decision("other-user", -100, 99, types.VerdictAllow, 10)))

	byUser, err := trail.ByUser(ctx, -100, 42, 2)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, "c", byUser[0].ID, "newest decision first")

	byVerdict, err := trail.ByVerdict(ctx, -100, types.VerdictAllow, 0)
	require.NoError(t, err)
	assert.Len(t, byVerdict, 3)

	byGroup, err := trail.ByGroup(ctx, -100, 0)
	require.NoError(t, err)
	assert.Len(t, byGroup, 4)
}

func TestRecordOverride_AppendsLinkedRecordWithoutMutatingOriginal(t *testing.T) {
	s := store.New()
	trail := audit.NewTrail(s, nil)
	ctx := context.Background()

	original := decision("orig", -100, 42, types.VerdictBlock, 95)
	require.NoError(t, trail.Record(ctx, original))

	require.NoError(t, trail.RecordOverride(ctx, original, 777, types.VerdictAllow, "false positive"))

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, types.VerdictBlock, all[0].Risk.Verdict, "the original record is untouched")

	override := all[1]
	assert.Equal(t, types.VerdictAllow, override.Risk.Verdict)
	assert.Equal(t, "orig", override.Metadata["overrides_decision_id"])
	assert.EqualValues(t, 777, override.Metadata["override_admin_user_id"])
	assert.Equal(t, "false positive", override.Metadata["override_reason"])
}

func TestComputeStats(t *testing.T) {
	decisions := []types.Decision{
		{Risk: types.RiskResult{Verdict: types.VerdictAllow, Score: 10}},
		{Risk: types.RiskResult{Verdict: types.VerdictAllow, Score: 20}},
		{Risk: types.RiskResult{Verdict: types.VerdictBlock, Score: 90, ThreatType: types.ThreatSpam, NeedsLLM: false}},
		{Risk: types.RiskResult{Verdict: types.VerdictLimit, Score: 70, NeedsLLM: true}},
	}

	stats := audit.ComputeStats(decisions)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByVerdict[types.VerdictAllow])
	assert.Equal(t, 1, stats.ByVerdict[types.VerdictBlock])
	assert.Equal(t, 1, stats.ByThreatType[types.ThreatSpam])
	assert.Equal(t, 1, stats.LLMInvocations)
	assert.InDelta(t, 0.25, stats.LLMUsageFraction, 1e-9)
	assert.InDelta(t, 47.5, stats.AvgScore, 1e-9)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := audit.ComputeStats(nil)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AvgScore)
	assert.Zero(t, stats.LLMUsageFraction)
}
