package content_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nauanbek/saqshy/internal/analyzers/content"
	"github.com/nauanbek/saqshy/pkg/registry"
	"github.com/nauanbek/saqshy/pkg/types"
)

func analyze(t *testing.T, msg types.MessageContext) types.ContentSignals {
	t.Helper()
	an, err := content.New(nil)
	require.NoError(t, err)
	signals, err := an.Analyze(context.Background(), msg)
	require.NoError(t, err)
	return signals.Content
}

func generalMsg(text string) types.MessageContext {
	return types.MessageContext{Text: text, GroupType: types.GroupGeneral}
}

func TestAnalyze_URLExtractionNormalizesWWWAndScheme(t *testing.T) {
	c := analyze(t, generalMsg("see https://www.github.com/foo and www.wikipedia.org/wiki/Go and http://github.com:8080/bar"))

	assert.Equal(t, 3, c.URLCount)
	assert.Equal(t, 2, c.UniqueDomains, "www. prefix and port must normalize away")
	assert.True(t, c.HasWhitelistedURLs)
}

func TestAnalyze_ShortenedURLs(t *testing.T) {
	c := analyze(t, generalMsg("click https://bit.ly/3xYz"))
	assert.True(t, c.HasShortenedURLs)

	// amzn.to is carved out as routine affiliate tooling in deals groups.
	deals := analyze(t, types.MessageContext{Text: "deal: https://amzn.to/abc", GroupType: types.GroupDeals})
	assert.False(t, deals.HasShortenedURLs)

	general := analyze(t, generalMsg("deal: https://amzn.to/abc"))
	assert.True(t, general.HasShortenedURLs)
}

func TestAnalyze_SuspiciousTLD(t *testing.T) {
	assert.True(t, analyze(t, generalMsg("visit http://free-money.xyz now")).HasSuspiciousTLD)
	assert.False(t, analyze(t, generalMsg("visit https://github.com now")).HasSuspiciousTLD)
}

func TestAnalyze_CryptoScamPhrasesRequireBoundaries(t *testing.T) {
	assert.True(t, analyze(t, generalMsg("This is a guaranteed profit, trust me!")).HasCryptoScamPhrases)
	assert.True(t, analyze(t, generalMsg("ONLY TODAY: double your investment")).HasCryptoScamPhrases)
	assert.False(t, analyze(t, generalMsg("bitcoin dropped 5% today")).HasCryptoScamPhrases,
		"a bare currency mention is not scam phrasing")
	assert.False(t, analyze(t, generalMsg("the word profitability is fine")).HasCryptoScamPhrases)
}

func TestAnalyze_MoneyAndUrgencyPatterns(t *testing.T) {
	c := analyze(t, generalMsg("Act now! Only $500 USD, offer expires tonight"))
	assert.True(t, c.HasMoneyPatterns)
	assert.True(t, c.HasUrgencyPatterns)

	clean := analyze(t, generalMsg("I pushed the fix, tests pass"))
	assert.False(t, clean.HasMoneyPatterns)
	assert.False(t, clean.HasUrgencyPatterns)
}

func TestAnalyze_PhoneNumbersValidateDigitCount(t *testing.T) {
	assert.True(t, analyze(t, generalMsg("call +7 701 123 45 67")).HasPhoneNumbers)
	assert.False(t, analyze(t, generalMsg("error code 123456 appeared")).HasPhoneNumbers,
		"six digits is not a phone number")
}

func TestAnalyze_WalletAddresses(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"bech32", "send to bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", true},
		{"legacy btc", "pay 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa today", true},
		{"eth", "0x52908400098527886E0F7030069857D2E4169EE7 is mine", true},
		{"plain text", "no addresses here at all", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analyze(t, generalMsg(tt.text)).HasWalletAddresses)
		})
	}
}

func TestAnalyze_CapsRatioAndEmoji(t *testing.T) {
	c := analyze(t, generalMsg("FREE MONEY CLICK HERE"))
	assert.Greater(t, c.CapsRatio, 0.8)

	c = analyze(t, generalMsg("🎉🎉🎉🔥🔥🔥💰💰💰🚀"))
	assert.GreaterOrEqual(t, c.EmojiCount, 10)
}

func TestAnalyze_LanguageDetection(t *testing.T) {
	assert.Equal(t, "ru", analyze(t, generalMsg("привет, как дела")).Language)
	assert.Equal(t, "en", analyze(t, generalMsg("hello there")).Language)
}

func TestAnalyze_ForwardProvenance(t *testing.T) {
	msg := generalMsg("forwarded content")
	msg.IsForward = true
	msg.Metadata = map[string]any{"forward_from_chat_type": "channel"}
	c := analyze(t, msg)
	assert.True(t, c.HasForward)
	assert.True(t, c.ForwardFromChannel)

	msg.Metadata = map[string]any{"forward_from_chat_type": "private"}
	c = analyze(t, msg)
	assert.True(t, c.HasForward)
	assert.False(t, c.ForwardFromChannel)
}

func TestNew_ExtraWhitelistDomains(t *testing.T) {
	an, err := content.New(registry.Config{"extra_whitelist_domains": []string{"example.org"}})
	require.NoError(t, err)

	signals, err := an.Analyze(context.Background(), generalMsg("see https://example.org/page"))
	require.NoError(t, err)
	assert.True(t, signals.Content.HasWhitelistedURLs)
}
