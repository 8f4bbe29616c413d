package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nauanbek/saqshy/pkg/types"
)

func TestVerdict_TotalOrder(t *testing.T) {
	ordered := []types.Verdict{
		types.VerdictAllow,
		types.VerdictWatch,
		types.VerdictLimit,
		types.VerdictReview,
		types.VerdictBlock,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank(),
			"%s must rank above %s", ordered[i], ordered[i-1])
	}
}

func TestVerdict_AtLeast(t *testing.T) {
	assert.True(t, types.VerdictBlock.AtLeast(types.VerdictLimit))
	assert.True(t, types.VerdictLimit.AtLeast(types.VerdictLimit))
	assert.False(t, types.VerdictWatch.AtLeast(types.VerdictReview))
}

func TestVerdict_UnknownRanksBelowAllow(t *testing.T) {
	assert.Less(t, types.Verdict("banhammer").Rank(), types.VerdictAllow.Rank())
}

func intPtr(v int) *int { return &v }

func TestSignals_Validate(t *testing.T) {
	tests := []struct {
		name    string
		signals types.Signals
		wantErr bool
	}{
		{"zero value is valid", types.Signals{}, false},
		{
			"caps ratio at bounds",
			types.Signals{Content: types.ContentSignals{CapsRatio: 1.0}},
			false,
		},
		{
			"caps ratio above 1",
			types.Signals{Content: types.ContentSignals{CapsRatio: 1.01}},
			true,
		},
		{
			"negative caps ratio",
			types.Signals{Content: types.ContentSignals{CapsRatio: -0.1}},
			true,
		},
		{
			"similarity above 1",
			types.Signals{Network: types.NetworkSignals{SpamDBSimilarity: 1.5}},
			true,
		},
		{
			"negative account age",
			types.Signals{Profile: types.ProfileSignals{AccountAgeDays: -1}},
			true,
		},
		{
			"negative url count",
			types.Signals{Content: types.ContentSignals{URLCount: -1}},
			true,
		},
		{
			"negative hourly message count",
			types.Signals{Behavior: types.BehaviorSignals{MessagesInLastHour: -3}},
			true,
		},
		{
			"negative blocked counter",
			types.Signals{Behavior: types.BehaviorSignals{PreviousMessagesBlocked: -1}},
			true,
		},
		{
			"negative subscription duration",
			types.Signals{Behavior: types.BehaviorSignals{ChannelSubscriptionDurationDays: -5}},
			true,
		},
		{
			"negative cross-group duplicates",
			types.Signals{Network: types.NetworkSignals{DuplicateMessagesInOtherGroups: -2}},
			true,
		},
		{
			"negative ttfm pointer",
			types.Signals{Behavior: types.BehaviorSignals{TimeToFirstMessageSeconds: intPtr(-10)}},
			true,
		},
		{
			"zero-valued counts are fine",
			types.Signals{Behavior: types.BehaviorSignals{TimeToFirstMessageSeconds: intPtr(0)}},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.signals.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
