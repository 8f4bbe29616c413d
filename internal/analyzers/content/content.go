// Package content extracts types.ContentSignals from message text:
// URL/domain inspection, crypto-scam phrase matching, money/urgency/phone/
// wallet pattern detection, caps/emoji ratios, and forward provenance.
// The pattern tables below are deliberately short and high-precision;
// fuzzy matching against the wider spam corpus belongs to the spam
// database, not this analyzer.
package content

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/nauanbek/saqshy/pkg/analyzer"
	"github.com/nauanbek/saqshy/pkg/registry"
	"github.com/nauanbek/saqshy/pkg/types"
)

func init() {
	analyzer.Register("content", New)
}

const Name = "content"

var urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"']+`)

// knownShorteners are link shorteners whose destination cannot be judged
// from the URL alone; deals groups carve out a subset of these as routine
// affiliate-link tooling (allowedShortenersDeals).
var knownShorteners = map[string]bool{
	"bit.ly": true, "goo.gl": true, "tinyurl.com": true, "t.co": true,
	"ow.ly": true, "is.gd": true, "buff.ly": true, "j.mp": true,
	"tr.im": true, "cli.gs": true, "short.to": true, "cutt.ly": true,
	"rb.gy": true, "shorturl.at": true, "rebrand.ly": true, "adf.ly": true,
	"clck.ru": true, "fas.st": true, "amzn.to": true,
}

var allowedShortenersDeals = map[string]bool{
	"amzn.to": true, "rb.gy": true, "bit.ly": true,
}

var suspiciousTLDs = map[string]bool{
	"xyz": true, "top": true, "club": true, "work": true, "click": true,
	"loan": true, "win": true, "gq": true, "tk": true, "ml": true,
	"cf": true, "ga": true, "icu": true, "rest": true, "bar": true,
}

var whitelistDomains = map[types.GroupType]map[string]bool{
	types.GroupGeneral: {"wikipedia.org": true, "github.com": true, "youtube.com": true},
	types.GroupTech:    {"github.com": true, "stackoverflow.com": true, "docs.microsoft.com": true, "developer.mozilla.org": true},
	types.GroupDeals:   {"amazon.com": true, "ebay.com": true, "aliexpress.com": true, "market.yandex.ru": true},
	types.GroupCrypto:  {"coinmarketcap.com": true, "coingecko.com": true, "etherscan.io": true, "binance.com": true},
}

// cryptoScamPhrases are matched with surrounding word boundaries, not bare
// substring search, so legitimate mentions of "bitcoin" don't trip a
// phrase meant to catch "guaranteed profit" scam language.
var cryptoScamPhrases = []string{
	"guaranteed profit", "guaranteed returns", "double your", "100% profit",
	"risk free investment", "investment opportunity", "send btc", "send eth",
	"send crypto to", "private key", "seed phrase", "recovery phrase",
	"wallet verification", "claim your airdrop", "free giveaway", "support team will",
	"dm me for", "whatsapp me", "telegram me for", "limited slots", "exclusive signal group",
}

var cryptoScamPhrasePatterns = buildPhrasePatterns(cryptoScamPhrases)

func buildPhrasePatterns(phrases []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		escaped := regexp.QuoteMeta(p)
		out = append(out, regexp.MustCompile(`(?i)(?:^|[\s.,!?:;\-"'()\[\]])`+escaped+`(?:[\s.,!?:;\-"'()\[\]]|$)`))
	}
	return out
}

var moneyPattern = regexp.MustCompile(`(?i)(\$\s?\d[\d,]*(\.\d+)?|\d[\d,]*(\.\d+)?\s?(usd|usdt|руб|₽|€|£)\b)`)
var urgencyPattern = regexp.MustCompile(`(?i)\b(act now|hurry|limited time|only \d+ left|offer expires|last chance|don't miss|срочно|только сегодня)\b`)
var phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
var walletPattern = regexp.MustCompile(`\b(bc1[a-z0-9]{25,39}|[13][a-km-zA-HJ-NP-Z1-9]{25,34}|0x[a-fA-F0-9]{40}|T[a-zA-Z0-9]{33}|L[a-km-zA-HJ-NP-Z1-9]{26,33})\b`)

// Analyzer extracts ContentSignals given an optional per-group extra
// whitelist supplied via configuration.
type Analyzer struct {
	extraWhitelist map[types.GroupType]map[string]bool
}

// New builds a content Analyzer. cfg["extra_whitelist_domains"] may supply
// []string of additional domains to treat as safe for every group.
func New(cfg registry.Config) (analyzer.Analyzer, error) {
	extra := registry.GetStringSlice(cfg, "extra_whitelist_domains", nil)
	merged := make(map[types.GroupType]map[string]bool, len(whitelistDomains))
	for gt, domains := range whitelistDomains {
		m := make(map[string]bool, len(domains)+len(extra))
		for d := range domains {
			m[d] = true
		}
		for _, d := range extra {
			m[d] = true
		}
		merged[gt] = m
	}
	return &Analyzer{extraWhitelist: merged}, nil
}

func (a *Analyzer) Name() string { return Name }

func (a *Analyzer) Analyze(_ context.Context, msg types.MessageContext) (types.Signals, error) {
	text := msg.Text
	words := strings.Fields(text)

	urls := urlPattern.FindAllString(text, -1)
	domains := extractDomains(urls)
	uniqueDomains := uniqueStrings(domains)

	c := types.ContentSignals{
		TextLength:           len([]rune(text)),
		WordCount:            len(words),
		CapsRatio:            capsRatio(text),
		EmojiCount:           countEmoji(text),
		HasCyrillic:          hasScript(text, isCyrillic),
		HasLatin:             hasScript(text, isLatin),
		URLCount:             len(urls),
		HasShortenedURLs:     a.hasUnallowedShortenedURL(msg.GroupType, domains),
		HasWhitelistedURLs:   a.hasWhitelistedDomain(msg.GroupType, domains),
		HasSuspiciousTLD:     hasSuspiciousTLD(domains),
		UniqueDomains:        len(uniqueDomains),
		HasCryptoScamPhrases: matchesAnyPhrase(text, cryptoScamPhrasePatterns),
		HasMoneyPatterns:     moneyPattern.MatchString(text),
		HasUrgencyPatterns:   urgencyPattern.MatchString(text),
		HasPhoneNumbers:      hasValidPhoneNumber(text),
		HasWalletAddresses:   walletPattern.MatchString(text),
		HasMedia:             msg.HasMedia,
		HasForward:           msg.IsForward,
		ForwardFromChannel:   msg.IsForward && isForwardFromChannel(msg),
	}
	if c.HasCyrillic && !c.HasLatin {
		c.Language = "ru"
	} else if c.HasLatin {
		c.Language = "en"
	}
	return types.Signals{Content: c}, nil
}

func extractDomains(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		d := extractDomain(raw)
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

func extractDomain(raw string) string {
	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	host := ""
	if err == nil {
		host = u.Hostname()
	}
	if host == "" {
		m := regexp.MustCompile(`(?i)([a-z0-9-]+\.)+[a-z]{2,}`).FindString(raw)
		host = m
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return host
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func (a *Analyzer) hasUnallowedShortenedURL(gt types.GroupType, domains []string) bool {
	for _, d := range domains {
		if !knownShorteners[d] {
			continue
		}
		if gt == types.GroupDeals && allowedShortenersDeals[d] {
			continue
		}
		return true
	}
	return false
}

func (a *Analyzer) hasWhitelistedDomain(gt types.GroupType, domains []string) bool {
	allowed := a.extraWhitelist[gt]
	if allowed == nil {
		return false
	}
	for _, d := range domains {
		for w := range allowed {
			if d == w || strings.HasSuffix(d, "."+w) {
				return true
			}
		}
	}
	return false
}

func hasSuspiciousTLD(domains []string) bool {
	for _, d := range domains {
		parts := strings.Split(d, ".")
		if len(parts) == 0 {
			continue
		}
		tld := parts[len(parts)-1]
		if suspiciousTLDs[tld] {
			return true
		}
	}
	return false
}

func matchesAnyPhrase(text string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func hasValidPhoneNumber(text string) bool {
	for _, m := range phonePattern.FindAllString(text, -1) {
		digits := 0
		for _, r := range m {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		if digits >= 7 && digits <= 15 {
			return true
		}
	}
	return false
}

func capsRatio(text string) float64 {
	letters, upper := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

func countEmoji(text string) int {
	count := 0
	for _, r := range text {
		if r >= 0x1F300 && r <= 0x1FAFF {
			count++
		} else if r >= 0x2600 && r <= 0x27BF {
			count++
		}
	}
	return count
}

func hasScript(text string, pred func(rune) bool) bool {
	for _, r := range text {
		if pred(r) {
			return true
		}
	}
	return false
}

func isCyrillic(r rune) bool { return r >= 0x0400 && r <= 0x04FF }
func isLatin(r rune) bool    { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }

// isForwardFromChannel checks the platform-specific forward origin
// carried in Metadata, falling back to the forward chat ID when the
// origin type is absent.
func isForwardFromChannel(msg types.MessageContext) bool {
	raw, ok := msg.Metadata["forward_from_chat_type"]
	if !ok {
		return msg.ForwardFromChatID != 0
	}
	s, _ := raw.(string)
	return s == "channel"
}

var _ analyzer.Analyzer = (*Analyzer)(nil)
