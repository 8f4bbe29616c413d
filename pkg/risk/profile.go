package risk

import "github.com/nauanbek/saqshy/pkg/types"

func (c *Calculator) profileScore(p types.ProfileSignals, b *breakdown) int {
	score := 0
	w := c.weights.Profile

	switch {
	case p.AccountAgeDays < 1:
		score += c.scale(w.Get("account_age_under_24_hours", 25))
		b.contribute("Account created less than 24 hours ago")
	case p.AccountAgeDays < 7:
		score += c.scale(w.Get("account_age_under_7_days", 15))
		b.contribute("Account less than 7 days old")
	case p.AccountAgeDays >= 365*3:
		score += w.Get("account_age_3_years", -15)
		b.mitigate("Account 3+ years old")
	case p.AccountAgeDays >= 365:
		score += w.Get("account_age_1_year", -10)
		b.mitigate("Account 1+ year old")
	}

	if p.HasProfilePhoto {
		score += w.Get("has_profile_photo", -5)
	} else {
		score += c.scale(w.Get("no_profile_photo", 8))
		b.contribute("No profile photo")
	}

	if p.HasUsername {
		score += w.Get("has_username", -3)
	} else {
		score += c.scale(w.Get("no_username", 5))
	}

	if p.IsPremium {
		score += w.Get("is_premium", -10)
		b.mitigate("Premium user")
	}

	if p.UsernameHasRandomChars {
		score += c.scale(w.Get("username_random_chars", 12))
		b.contribute("Username contains random characters")
	}
	if p.NameHasEmojiSpam {
		score += c.scale(w.Get("name_has_emoji_spam", 15))
		b.contribute("Name contains emoji spam")
	}
	if p.BioHasCryptoTerms {
		score += c.scale(w.Get("bio_has_crypto_terms", 10))
	}
	if p.BioHasLinks {
		score += c.scale(w.Get("bio_has_links", 8))
	}

	return score
}
