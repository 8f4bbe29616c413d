// Package llmprompt builds the gray-zone adjudication prompt shared by every
// ports.LLMAdjudicator adapter and parses the model's judgment back into a
// verdict/explanation/confidence triple. Keeping this in one place means the
// openai and bedrock adapters ask the model the same question and parse the
// same shape of answer, so swapping providers cannot silently change what
// "review" vs "block" means.
package llmprompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nauanbek/saqshy/pkg/types"
)

// SystemPrompt is sent once as the system/instruction message.
const SystemPrompt = `You are a moderation adjudicator for a Telegram community. You will be given a message along with the rule-based risk signals already computed for it. The message has already been scored into the gray zone (60-80 out of 100), meaning automated rules could not confidently decide between allowing it and blocking it.

Judge whether the message is spam, a scam, or otherwise abusive, using the signals as context rather than restating them. Respond with a single JSON object and nothing else, in this exact shape:

{"verdict": "allow|watch|limit|review|block", "confidence": 0.0-1.0, "explanation": "one sentence"}`

// BuildUserPrompt renders the message and its risk signals into the prompt
// body handed to the model alongside SystemPrompt.
func BuildUserPrompt(msg types.MessageContext, risk types.RiskResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Group type: %s\n", msg.GroupType)
	fmt.Fprintf(&b, "Message text: %q\n", msg.Text)
	fmt.Fprintf(&b, "Rule-based score: %d/100 (profile=%d content=%d behavior=%d network=%d)\n",
		risk.Score, risk.ProfileScore, risk.ContentScore, risk.BehaviorScore, risk.NetworkScore)
	fmt.Fprintf(&b, "Detected threat type: %s\n", risk.ThreatType)
	if len(risk.ContributingFactors) > 0 {
		fmt.Fprintf(&b, "Contributing factors: %s\n", strings.Join(risk.ContributingFactors, "; "))
	}
	if len(risk.MitigatingFactors) > 0 {
		fmt.Fprintf(&b, "Mitigating factors: %s\n", strings.Join(risk.MitigatingFactors, "; "))
	}
	fmt.Fprintf(&b, "Account age (days): %d\n", risk.Signals.Profile.AccountAgeDays)
	fmt.Fprintf(&b, "URL count: %d, unique domains: %d\n", risk.Signals.Content.URLCount, risk.Signals.Content.UniqueDomains)
	fmt.Fprintf(&b, "Previous approved/flagged/blocked messages: %d/%d/%d\n",
		risk.Signals.Behavior.PreviousMessagesApproved, risk.Signals.Behavior.PreviousMessagesFlagged, risk.Signals.Behavior.PreviousMessagesBlocked)
	fmt.Fprintf(&b, "Duplicate in other groups: %d, spam-db similarity: %.2f\n",
		risk.Signals.Network.DuplicateMessagesInOtherGroups, risk.Signals.Network.SpamDBSimilarity)
	return b.String()
}

// judgment is the wire shape the model is instructed to return.
type judgment struct {
	Verdict     string  `json:"verdict"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

var validVerdicts = map[types.Verdict]bool{
	types.VerdictAllow:  true,
	types.VerdictWatch:  true,
	types.VerdictLimit:  true,
	types.VerdictReview: true,
	types.VerdictBlock:  true,
}

// ParseJudgment extracts the verdict/confidence/explanation triple from the
// model's raw text response. Models sometimes wrap JSON in prose or code
// fences despite instructions, so this extracts the first top-level JSON
// object in the text rather than requiring the whole response to parse.
func ParseJudgment(raw string) (verdict types.Verdict, explanation string, confidence float64, err error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return "", "", 0, fmt.Errorf("llmprompt: no JSON object found in response")
	}

	var j judgment
	if err := json.Unmarshal([]byte(raw[start:end+1]), &j); err != nil {
		return "", "", 0, fmt.Errorf("llmprompt: decode judgment: %w", err)
	}

	v := types.Verdict(strings.ToLower(strings.TrimSpace(j.Verdict)))
	if !validVerdicts[v] {
		return "", "", 0, fmt.Errorf("llmprompt: unrecognized verdict %q", j.Verdict)
	}

	confidence = j.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return v, j.Explanation, confidence, nil
}
