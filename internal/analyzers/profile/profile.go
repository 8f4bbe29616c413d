// Package profile extracts types.ProfileSignals from a message's user
// snapshot: estimated account age, username/bio heuristics, and the
// emoji-spam name pattern. Telegram does not expose an account-creation
// timestamp, so account age is estimated from the numeric user ID via a
// coarse lookup table calibrated against known ID rollout dates.
package profile

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/nauanbek/saqshy/pkg/analyzer"
	"github.com/nauanbek/saqshy/pkg/registry"
	"github.com/nauanbek/saqshy/pkg/types"
)

func init() {
	analyzer.Register("profile", New)
}

// Name matches the registry key this analyzer is constructed under,
// independent of how profile.New is invoked.
const Name = "profile"

// DefaultNewAccountDays is returned for a user ID newer than every
// threshold in userIDAgeThresholds.
const DefaultNewAccountDays = 7

// userIDAgeThreshold pairs a maximum Telegram user ID with the estimated
// account age, in days, for IDs at or below it. Entries are ascending by
// MaxUserID: smaller IDs were issued earlier and are therefore older.
type userIDAgeThreshold struct {
	MaxUserID int64
	AgeDays   int
}

var userIDAgeThresholds = []userIDAgeThreshold{
	{100_000_000, 3650},
	{500_000_000, 1825},
	{1_000_000_000, 1095},
	{2_000_000_000, 730},
	{3_000_000_000, 365},
	{5_000_000_000, 180},
	{6_000_000_000, 90},
	{7_000_000_000, 30},
	{7_500_000_000, 14},
}

// randomUsernamePatterns catches generated-looking usernames: a bot's
// default naming scheme, or a human trying to look anonymous.
var randomUsernamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^user[_]?\d{5,}$`),
	regexp.MustCompile(`^[a-z]{2,8}\d{6,}$`),
	regexp.MustCompile(`^[a-z]{1,3}_\d{5,}$`),
	regexp.MustCompile(`^[a-f0-9]{10,}$`),
	regexp.MustCompile(`^[A-Z][a-z]+\d{5,}$`),
	regexp.MustCompile(`^\d{2,}[a-z]+\d{2,}$`),
	regexp.MustCompile(`^[a-z]{18,}$`),
}

var mixedAlnumUsername = regexp.MustCompile(`^[a-zA-Z0-9]{12,}$`)

var bioURLPattern = regexp.MustCompile(`(?i)https?://\S+|\bwww\.\S+|\b[a-z0-9-]+\.(com|net|org|io|me|ru|xyz|top|info)\b`)

// cryptoTerms are bio/username tokens common to crypto-promotion profiles.
// Terms of length <= shortTermBoundary are matched on word boundaries only,
// so e.g. "sol" in "console" does not trigger.
const shortTermBoundary = 3

var cryptoTerms = []string{
	"btc", "bitcoin", "eth", "ethereum", "usdt", "bnb", "sol", "solana",
	"xrp", "doge", "shib", "ada", "cardano", "avax", "matic", "ltc",
	"crypto", "defi", "nft", "token", "airdrop", "staking", "hodl",
	"blockchain", "web3", "dao", "yield", "trading", "trader", "invest",
	"investor", "profit", "forex", "signal", "portfolio", "roi",
	"binance", "coinbase", "kraken", "metamask", "trustwallet", "wallet",
	"exchange",
}

// scamEmojiClusters groups emoji frequently co-occurring in spam profile
// names; a profile drawing two-plus emoji from the same cluster, or three
// emoji total, is flagged.
var scamEmojiClusters = [][]rune{
	{'💰', '💵', '💸', '🤑', '💲'},
	{'🎁', '🏆', '🎉', '🥳'},
	{'⚠', '🔥', '‼', '❗'},
	{'✅', '✔', '☑', '🔵'},
	{'🚀', '📈', '💹'},
}

// Analyzer extracts ProfileSignals. It holds no external dependencies.
type Analyzer struct{}

// New builds a profile Analyzer. It takes no configuration.
func New(_ registry.Config) (analyzer.Analyzer, error) {
	return &Analyzer{}, nil
}

func (a *Analyzer) Name() string { return Name }

func (a *Analyzer) Analyze(_ context.Context, msg types.MessageContext) (types.Signals, error) {
	bio, _ := msg.Metadata["bio"].(string)
	hasPhoto, _ := msg.Metadata["has_profile_photo"].(bool)

	p := types.ProfileSignals{
		AccountAgeDays:         estimateAccountAge(msg.UserID),
		HasUsername:            msg.Username != "",
		HasProfilePhoto:        hasPhoto,
		HasBio:                 bio != "",
		HasFirstName:           msg.FirstName != "",
		HasLastName:            msg.LastName != "",
		IsPremium:              msg.IsPremium,
		IsBot:                  msg.IsBot,
		UsernameHasRandomChars: isRandomUsername(msg.Username),
		BioHasLinks:            bio != "" && bioURLPattern.MatchString(bio),
		BioHasCryptoTerms:      bio != "" && hasCryptoTerms(bio),
		NameHasEmojiSpam:       hasEmojiSpam(msg.FirstName + " " + msg.LastName + " " + msg.Username),
	}
	return types.Signals{Profile: p}, nil
}

func estimateAccountAge(userID int64) int {
	if userID <= 0 {
		return DefaultNewAccountDays
	}
	idx := sort.Search(len(userIDAgeThresholds), func(i int) bool {
		return userIDAgeThresholds[i].MaxUserID >= userID
	})
	if idx == len(userIDAgeThresholds) {
		return DefaultNewAccountDays
	}
	return userIDAgeThresholds[idx].AgeDays
}

func isRandomUsername(username string) bool {
	if username == "" {
		return false
	}
	u := strings.ToLower(username)
	for _, re := range randomUsernamePatterns {
		if re.MatchString(u) {
			return true
		}
	}
	if mixedAlnumUsername.MatchString(username) && digitRatio(username) >= 0.4 {
		return true
	}
	if len(username) >= 8 && digitRatio(username) > 0.6 {
		return true
	}
	return false
}

func digitRatio(s string) float64 {
	if s == "" {
		return 0
	}
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return float64(digits) / float64(len([]rune(s)))
}

func hasCryptoTerms(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range cryptoTerms {
		if len(term) <= shortTermBoundary {
			if matchesWordBoundary(lower, term) {
				return true
			}
			continue
		}
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func matchesWordBoundary(text, term string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	return re.MatchString(text)
}

func hasEmojiSpam(text string) bool {
	total := 0
	clustersHit := make(map[int]int)
	for _, r := range text {
		if !isEmoji(r) {
			continue
		}
		total++
		for i, cluster := range scamEmojiClusters {
			for _, e := range cluster {
				if r == e {
					clustersHit[i]++
				}
			}
		}
	}
	if total >= 3 {
		return true
	}
	for _, count := range clustersHit {
		if count >= 2 {
			return true
		}
	}
	return false
}

// isEmoji covers the common emoji Unicode blocks; it is intentionally
// coarse rather than an exhaustive Unicode emoji-property table.
func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2190 && r <= 0x21FF:
		return true
	case r == 0x2705 || r == 0x2714 || r == 0x2716 || r == 0x2757 || r == 0x2753:
		return true
	default:
		return false
	}
}

var _ analyzer.Analyzer = (*Analyzer)(nil)
