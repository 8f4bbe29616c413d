// Package weights holds the per-category weight tables, group-type
// overrides, and verdict thresholds the risk calculator scores against.
// Values are ported from the original scoring engine's constants.
package weights

import (
	"fmt"

	"github.com/nauanbek/saqshy/pkg/types"
)

// Table maps a named signal to its score contribution. Negative values are
// trust (mitigating) signals; positive values are risk (contributing)
// signals.
type Table map[string]int

// Get returns the configured weight for key, or fall if key is unset. This
// mirrors the original engine's dict.get(key, default) fallback pattern so
// a deployment can override only the weights it cares about.
func (t Table) Get(key string, fall int) int {
	if v, ok := t[key]; ok {
		return v
	}
	return fall
}

// Thresholds is the (watch, limit, review, block) score boundary tuple for
// a group type. Boundaries are inclusive lower bounds: a score >= block
// maps to VerdictBlock, checked in descending order.
type Thresholds struct {
	Watch, Limit, Review, Block int
}

func (t Thresholds) validate() error {
	if !(t.Watch < t.Limit && t.Limit < t.Review && t.Review < t.Block) {
		return fmt.Errorf("weights: thresholds must be strictly ascending, got %+v", t)
	}
	return nil
}

// DefaultProfileWeights, DefaultContentWeights, DefaultBehaviorWeights, and
// DefaultNetworkWeights are the base weight tables before any group-type
// override is applied.
var (
	DefaultProfileWeights = Table{
		"account_age_under_24_hours": 25,
		"account_age_under_7_days":   15,
		"account_age_3_years":        -15,
		"account_age_1_year":         -10,
		"has_profile_photo":          -5,
		"no_profile_photo":           8,
		"has_username":               -3,
		"no_username":                5,
		"is_premium":                 -10,
		"username_random_chars":     12,
		"name_has_emoji_spam":       15,
		"bio_has_crypto_terms":      10,
		"bio_has_links":             8,
	}

	DefaultContentWeights = Table{
		"crypto_scam_phrase":          35,
		"wallet_address":              20,
		"has_urls":                    5,
		"multiple_urls_3_plus":        12,
		"has_shortened_urls":          15,
		"has_suspicious_tld":          18,
		"has_whitelisted_domains":     -8,
		"excessive_caps_80_percent":   15,
		"excessive_caps_50_percent":   8,
		"excessive_emoji_20_plus":     18,
		"excessive_emoji_10_plus":     10,
		"money_pattern":               12,
		"urgency_pattern":             10,
		"phone_number":                8,
		"is_forward_from_channel":     12,
		"is_forward":                  5,
	}

	DefaultBehaviorWeights = Table{
		"previous_messages_approved_10_plus": -15,
		"previous_messages_approved_5_plus":  -10,
		"previous_messages_approved_1_plus":  -5,
		"is_reply":                           -3,
		"is_reply_to_admin":                  -5,
		"group_member_90_days":               -15,
		"group_member_30_days":               -10,
		"group_member_7_days":                -5,
		"is_first_message":                   8,
		"ttfm_under_30_seconds":               15,
		"ttfm_under_5_minutes":                8,
		"join_to_message_under_10_seconds":    18,
		"messages_in_hour_10_plus":            20,
		"messages_in_hour_5_plus":             12,
		"previous_messages_blocked":           25,
		"previous_messages_flagged":           15,
	}

	DefaultNetworkWeights = Table{
		"is_in_global_whitelist":     -30,
		"is_in_global_blocklist":     50,
		"spam_db_similarity_0.95_plus": 50,
		"spam_db_similarity_0.88_plus": 45,
		"spam_db_similarity_0.80_plus": 35,
		"spam_db_similarity_0.70_plus": 25,
		"duplicate_in_5_plus_groups":  50,
		"duplicate_in_3_groups":       35,
		"duplicate_in_2_groups":       20,
		"blocked_in_other_groups":     40,
		"flagged_in_other_groups":     25,
		"groups_in_common_5_plus":     -5,
	}

	// DealsContentOverrides relaxes promotional signals for shopping/deals
	// groups, where links and money language are normal content.
	DealsContentOverrides = Table{
		"has_urls":                5,
		"multiple_urls_3_plus":    5,
		"has_shortened_urls":      8,
		"money_pattern":           3,
		"urgency_pattern":         5,
		"has_whitelisted_domains": -10,
	}

	// CryptoContentOverrides tightens wallet/scam-phrase signals for crypto
	// groups, where legitimate discussion of wallets/exchanges is common but
	// scam phrasing is especially costly.
	CryptoContentOverrides = Table{
		"crypto_scam_phrase": 40,
		"wallet_address":     10,
	}

	// TechContentOverrides relaxes URL signals for developer groups, where
	// links to repos/docs are routine.
	TechContentOverrides = Table{
		"has_urls":             2,
		"multiple_urls_3_plus": 5,
		"has_shortened_urls":   10,
	}
)

// DefaultThresholds are the per-group verdict boundaries.
var DefaultThresholds = map[types.GroupType]Thresholds{
	types.GroupGeneral: {Watch: 30, Limit: 50, Review: 75, Block: 92},
	types.GroupTech:    {Watch: 35, Limit: 55, Review: 78, Block: 93},
	types.GroupDeals:   {Watch: 40, Limit: 60, Review: 82, Block: 95},
	types.GroupCrypto:  {Watch: 25, Limit: 45, Review: 70, Block: 90},
}

// LLMGrayZoneLow and LLMGrayZoneHigh bound the score range that triggers
// LLM gray-zone adjudication.
const (
	LLMGrayZoneLow  = 60
	LLMGrayZoneHigh = 80
)

// TrustScoreAdjustments shifts the raw score based on the user's trust
// level before clamping.
var TrustScoreAdjustments = map[string]int{
	"established": -20,
	"trusted":     -10,
	"provisional": 0,
	"untrusted":   5,
}

// Set is the fully-resolved weight configuration a RiskCalculator scores
// against for one group type.
type Set struct {
	Profile    Table
	Content    Table
	Behavior   Table
	Network    Table
	Thresholds Thresholds
}

// ForGroup builds the resolved Set for a group type, applying the
// group-specific content overrides and validating both weight magnitudes
// and threshold ordering. Construction fails fast on invalid configuration
// rather than producing a calculator that silently misbehaves.
func ForGroup(gt types.GroupType) (Set, error) {
	content := cloneAndMerge(DefaultContentWeights, overridesFor(gt))

	thresholds, ok := DefaultThresholds[gt]
	if !ok {
		return Set{}, fmt.Errorf("weights: no thresholds configured for group type %q", gt)
	}
	if err := thresholds.validate(); err != nil {
		return Set{}, err
	}

	set := Set{
		Profile:    DefaultProfileWeights,
		Content:    content,
		Behavior:   DefaultBehaviorWeights,
		Network:    DefaultNetworkWeights,
		Thresholds: thresholds,
	}
	if err := set.validateMagnitudes(); err != nil {
		return Set{}, err
	}
	return set, nil
}

func overridesFor(gt types.GroupType) Table {
	switch gt {
	case types.GroupDeals:
		return DealsContentOverrides
	case types.GroupCrypto:
		return CryptoContentOverrides
	case types.GroupTech:
		return TechContentOverrides
	default:
		return nil
	}
}

func cloneAndMerge(base, override Table) Table {
	out := make(Table, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func (s Set) validateMagnitudes() error {
	tables := []struct {
		name string
		t    Table
	}{
		{"profile", s.Profile},
		{"content", s.Content},
		{"behavior", s.Behavior},
		{"network", s.Network},
	}
	for _, tbl := range tables {
		for key, v := range tbl.t {
			if v < -100 || v > 100 {
				return fmt.Errorf("weights: %s.%s has unreasonable magnitude: %d", tbl.name, key, v)
			}
		}
	}
	return nil
}
