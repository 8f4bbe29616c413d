package risk

import "github.com/nauanbek/saqshy/pkg/types"

func (c *Calculator) contentScore(content types.ContentSignals, b *breakdown) int {
	score := 0
	w := c.weights.Content

	if content.HasCryptoScamPhrases {
		score += c.scale(w.Get("crypto_scam_phrase", 35))
		b.contribute("Contains crypto scam phrases")
	}
	if content.HasWalletAddresses {
		score += c.scale(w.Get("wallet_address", 20))
		b.contribute("Contains wallet address")
	}

	if content.URLCount > 0 {
		score += c.scale(w.Get("has_urls", 5))

		if content.URLCount >= 3 {
			score += c.scale(w.Get("multiple_urls_3_plus", 12))
			b.contribute("Multiple URLs")
		}
		if content.HasShortenedURLs {
			score += c.scale(w.Get("has_shortened_urls", 15))
			b.contribute("Shortened URLs")
		}
		if content.HasSuspiciousTLD {
			score += c.scale(w.Get("has_suspicious_tld", 18))
			b.contribute("Suspicious TLD")
		}
		if content.HasWhitelistedURLs {
			score += w.Get("has_whitelisted_domains", -8)
			b.mitigate("Whitelisted domains")
		}
	}

	switch {
	case content.CapsRatio > 0.8:
		score += c.scale(w.Get("excessive_caps_80_percent", 15))
		b.contribute("Excessive caps")
	case content.CapsRatio > 0.5:
		score += c.scale(w.Get("excessive_caps_50_percent", 8))
	}

	switch {
	case content.EmojiCount >= 20:
		score += c.scale(w.Get("excessive_emoji_20_plus", 18))
	case content.EmojiCount >= 10:
		score += c.scale(w.Get("excessive_emoji_10_plus", 10))
	}

	if content.HasMoneyPatterns {
		score += c.scale(w.Get("money_pattern", 12))
	}
	if content.HasUrgencyPatterns {
		score += c.scale(w.Get("urgency_pattern", 10))
	}
	if content.HasPhoneNumbers {
		score += c.scale(w.Get("phone_number", 8))
	}

	switch {
	case content.ForwardFromChannel:
		score += c.scale(w.Get("is_forward_from_channel", 12))
	case content.HasForward:
		score += c.scale(w.Get("is_forward", 5))
	}

	return score
}
