// Package risk implements the cumulative, pure risk-scoring algorithm: it
// turns a Signals value plus a trust level into a RiskResult. The
// calculator holds no external dependencies and performs no I/O.
package risk

import (
	"fmt"
	"sort"

	"github.com/nauanbek/saqshy/pkg/types"
	"github.com/nauanbek/saqshy/pkg/weights"
)

// TrustLevel is the score-adjustment axis the calculator reads, distinct
// from the sandbox lifecycle state in pkg/trust.
type TrustLevel string

const (
	TrustUntrusted   TrustLevel = "untrusted"
	TrustProvisional TrustLevel = "provisional"
	TrustTrusted     TrustLevel = "trusted"
	TrustEstablished TrustLevel = "established"
)

// Calculator scores Signals for one group type and trust level.
type Calculator struct {
	groupType   types.GroupType
	trustLevel  TrustLevel
	sensitivity float64
	weights     weights.Set
}

// New builds a Calculator, resolving and validating the group's weight set.
// sensitivity is 1-10 (5 = neutral); it scales positive (risk) weights only,
// never the mitigating ones, so trust signals always offset in full.
func New(groupType types.GroupType, trustLevel TrustLevel, sensitivity int) (*Calculator, error) {
	if sensitivity < 1 || sensitivity > 10 {
		return nil, fmt.Errorf("risk: sensitivity must be in [1,10], got %d", sensitivity)
	}
	w, err := weights.ForGroup(groupType)
	if err != nil {
		return nil, err
	}
	return &Calculator{
		groupType:   groupType,
		trustLevel:  trustLevel,
		sensitivity: float64(sensitivity) / 5.0,
		weights:     w,
	}, nil
}

type breakdown struct {
	contributing []string
	mitigating   []string
}

func (b *breakdown) contribute(msg string) { b.contributing = append(b.contributing, msg) }
func (b *breakdown) mitigate(msg string)   { b.mitigating = append(b.mitigating, msg) }

// scale applies sensitivity to a positive weight; mitigating (negative)
// weights are returned unscaled so trust signals always offset fully.
func (c *Calculator) scale(w int) int {
	if w <= 0 {
		return w
	}
	return int(float64(w) * c.sensitivity)
}

// Calculate scores signals and returns the full RiskResult.
func (c *Calculator) Calculate(s types.Signals) (types.RiskResult, error) {
	if err := s.Validate(); err != nil {
		return types.RiskResult{}, err
	}

	b := &breakdown{}
	profileScore := c.profileScore(s.Profile, b)
	contentScore := c.contentScore(s.Content, b)
	behaviorScore := c.behaviorScore(s.Behavior, s.Profile, b)
	networkScore := c.networkScore(s.Network, b)

	raw := profileScore + contentScore + behaviorScore + networkScore

	adj := weights.TrustScoreAdjustments[string(c.trustLevel)]
	raw += adj
	if adj < 0 {
		b.mitigate(fmt.Sprintf("Trust level: %s (%d)", c.trustLevel, adj))
	} else if adj > 0 {
		b.contribute(fmt.Sprintf("Trust level: %s (+%d)", c.trustLevel, adj))
	}

	final := clamp(raw, 0, 100)
	verdict := c.scoreToVerdict(final)
	threat := detectThreatType(s, final)
	needsLLM := final >= weights.LLMGrayZoneLow && final <= weights.LLMGrayZoneHigh

	return types.RiskResult{
		Score:               final,
		RawScore:            raw,
		Verdict:             verdict,
		ThreatType:          threat,
		ProfileScore:        profileScore,
		ContentScore:        contentScore,
		BehaviorScore:       behaviorScore,
		NetworkScore:        networkScore,
		Signals:             s,
		NeedsLLM:            needsLLM,
		Confidence:          1.0,
		ContributingFactors: b.contributing,
		MitigatingFactors:   b.mitigating,
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (c *Calculator) scoreToVerdict(score int) types.Verdict {
	t := c.weights.Thresholds
	switch {
	case score >= t.Block:
		return types.VerdictBlock
	case score >= t.Review:
		return types.VerdictReview
	case score >= t.Limit:
		return types.VerdictLimit
	case score >= t.Watch:
		return types.VerdictWatch
	default:
		return types.VerdictAllow
	}
}

type threatCandidate struct {
	priority int
	threat   types.ThreatType
}

// detectThreatType runs a priority contest: every matching candidate is
// collected with a priority score, and the highest priority wins.
func detectThreatType(s types.Signals, score int) types.ThreatType {
	if score < 30 {
		return types.ThreatNone
	}

	var candidates []threatCandidate
	if s.Content.HasCryptoScamPhrases {
		candidates = append(candidates, threatCandidate{100, types.ThreatCryptoScam})
	}
	if s.Content.HasWalletAddresses && score >= 50 {
		candidates = append(candidates, threatCandidate{90, types.ThreatScam})
	}
	switch {
	case s.Network.DuplicateMessagesInOtherGroups >= 3:
		candidates = append(candidates, threatCandidate{85, types.ThreatRaid})
	case s.Network.DuplicateMessagesInOtherGroups > 0:
		candidates = append(candidates, threatCandidate{70, types.ThreatRaid})
	}
	if s.Behavior.MessagesInLastHour >= 10 {
		candidates = append(candidates, threatCandidate{75, types.ThreatFlood})
	}
	switch {
	case s.Network.SpamDBSimilarity >= 0.95:
		candidates = append(candidates, threatCandidate{95, types.ThreatSpam})
	case s.Network.SpamDBSimilarity >= 0.80:
		candidates = append(candidates, threatCandidate{65, types.ThreatSpam})
	}
	if s.Content.URLCount >= 3 || s.Content.HasMoneyPatterns {
		candidates = append(candidates, threatCandidate{50, types.ThreatPromotion})
	}

	if len(candidates) == 0 {
		return types.ThreatUnknown
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].priority > candidates[j].priority })
	return candidates[0].threat
}
