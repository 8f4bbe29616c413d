package profile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nauanbek/saqshy/internal/analyzers/profile"
	"github.com/nauanbek/saqshy/pkg/types"
)

func analyze(t *testing.T, msg types.MessageContext) types.ProfileSignals {
	t.Helper()
	an, err := profile.New(nil)
	require.NoError(t, err)
	signals, err := an.Analyze(context.Background(), msg)
	require.NoError(t, err)
	return signals.Profile
}

func TestAnalyze_AccountAgeFromUserID(t *testing.T) {
	tests := []struct {
		userID  int64
		minDays int
	}{
		{50_000_000, 3650},
		{900_000_000, 1095},
		{4_000_000_000, 180},
		{7_200_000_000, 14},
	}
	for _, tt := range tests {
		p := analyze(t, types.MessageContext{UserID: tt.userID})
		assert.GreaterOrEqual(t, p.AccountAgeDays, tt.minDays, "user %d", tt.userID)
	}

	// An ID beyond every calibrated threshold reads as a brand-new account.
	p := analyze(t, types.MessageContext{UserID: 9_999_999_999})
	assert.Equal(t, profile.DefaultNewAccountDays, p.AccountAgeDays)
}

func TestAnalyze_CompletenessFlags(t *testing.T) {
	p := analyze(t, types.MessageContext{
		UserID:    100,
		Username:  "real_person",
		FirstName: "Dana",
		LastName:  "K",
		IsPremium: true,
		Metadata:  map[string]any{"bio": "software engineer", "has_profile_photo": true},
	})
	assert.True(t, p.HasUsername)
	assert.True(t, p.HasFirstName)
	assert.True(t, p.HasLastName)
	assert.True(t, p.HasBio)
	assert.True(t, p.HasProfilePhoto)
	assert.True(t, p.IsPremium)
	assert.False(t, p.UsernameHasRandomChars)
}

func TestAnalyze_RandomUsernamePatterns(t *testing.T) {
	random := []string{
		"user78234", "user_912345", "ab123456", "deadbeef1234",
		"Xk29481756", "12abc34",
	}
	for _, u := range random {
		p := analyze(t, types.MessageContext{UserID: 100, Username: u})
		assert.True(t, p.UsernameHasRandomChars, "expected %q to look generated", u)
	}

	legit := []string{"dana_k", "golang_fan", "marat2024"}
	for _, u := range legit {
		p := analyze(t, types.MessageContext{UserID: 100, Username: u})
		assert.False(t, p.UsernameHasRandomChars, "expected %q to look human", u)
	}
}

func TestAnalyze_BioSignals(t *testing.T) {
	p := analyze(t, types.MessageContext{UserID: 100, Metadata: map[string]any{
		"bio": "DM for crypto signals, 300% roi https://t.me/scamchannel",
	}})
	assert.True(t, p.BioHasLinks)
	assert.True(t, p.BioHasCryptoTerms)

	clean := analyze(t, types.MessageContext{UserID: 100, Metadata: map[string]any{
		"bio": "I like hiking and coffee",
	}})
	assert.False(t, clean.BioHasLinks)
	assert.False(t, clean.BioHasCryptoTerms)
}

func TestAnalyze_ShortCryptoTermsNeedWordBoundaries(t *testing.T) {
	p := analyze(t, types.MessageContext{UserID: 100, Metadata: map[string]any{
		"bio": "I work at a console company",
	}})
	assert.False(t, p.BioHasCryptoTerms, `"sol" inside "console" must not trigger`)

	p = analyze(t, types.MessageContext{UserID: 100, Metadata: map[string]any{
		"bio": "sol maxi since 2021",
	}})
	assert.True(t, p.BioHasCryptoTerms)
}

func TestAnalyze_EmojiSpamInName(t *testing.T) {
	assert.True(t, analyze(t, types.MessageContext{UserID: 100, FirstName: "Promo 💰💵🤑"}).NameHasEmojiSpam,
		"three emoji total")
	assert.True(t, analyze(t, types.MessageContext{UserID: 100, FirstName: "Deals 🚀📈"}).NameHasEmojiSpam,
		"two from the same scam cluster")
	assert.False(t, analyze(t, types.MessageContext{UserID: 100, FirstName: "Dana 🌸"}).NameHasEmojiSpam,
		"a single decorative emoji is normal")
}

func TestAnalyze_BotFlagPassesThrough(t *testing.T) {
	p := analyze(t, types.MessageContext{UserID: 100, IsBot: true})
	assert.True(t, p.IsBot)
}
