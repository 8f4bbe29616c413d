package trust

import "github.com/nauanbek/saqshy/pkg/risk"

// ToRiskLevel maps the sandbox lifecycle Level to the risk calculator's
// score-adjustment TrustLevel. The two axes are kept
// separate on purpose: a user can be "limited" in the sandbox sense while
// still scoring as merely "provisional" for trust-adjustment purposes.
func ToRiskLevel(level Level) risk.TrustLevel {
	switch level {
	case LevelAdmin:
		return risk.TrustEstablished
	case LevelTrusted:
		return risk.TrustTrusted
	case LevelSoftWatch, LevelLimited:
		return risk.TrustProvisional
	case LevelNew, LevelSandbox:
		return risk.TrustUntrusted
	default:
		return risk.TrustUntrusted
	}
}
