package risk

import (
	"fmt"

	"github.com/nauanbek/saqshy/pkg/types"
)

func (c *Calculator) networkScore(network types.NetworkSignals, b *breakdown) int {
	score := 0
	w := c.weights.Network

	if network.IsInGlobalWhitelist {
		score += w.Get("is_in_global_whitelist", -30)
		b.mitigate("In global whitelist")
	}
	if network.IsInGlobalBlocklist {
		score += c.scale(w.Get("is_in_global_blocklist", 50))
		b.contribute("In global blocklist")
	}

	switch {
	case network.SpamDBSimilarity >= 0.95:
		score += c.scale(w.Get("spam_db_similarity_0.95_plus", 50))
		b.contribute("Near-exact spam match")
	case network.SpamDBSimilarity >= 0.88:
		score += c.scale(w.Get("spam_db_similarity_0.88_plus", 45))
		b.contribute("High spam similarity")
	case network.SpamDBSimilarity >= 0.80:
		score += c.scale(w.Get("spam_db_similarity_0.80_plus", 35))
	case network.SpamDBSimilarity >= 0.70:
		score += c.scale(w.Get("spam_db_similarity_0.70_plus", 25))
	}

	dup := network.DuplicateMessagesInOtherGroups
	switch {
	case dup >= 5:
		score += c.scale(w.Get("duplicate_in_5_plus_groups", 50))
		b.contribute(fmt.Sprintf("Duplicate in %d+ groups (coordinated spam attack)", dup))
	case dup >= 3:
		score += c.scale(w.Get("duplicate_in_3_groups", 35))
		b.contribute(fmt.Sprintf("Duplicate in %d groups", dup))
	case dup >= 2:
		score += c.scale(w.Get("duplicate_in_2_groups", 20))
		b.contribute(fmt.Sprintf("Duplicate in %d groups", dup))
	case dup > 0:
		score += c.scale(10)
		b.contribute("Message seen in another group")
	}

	if network.BlockedInOtherGroups > 0 {
		score += c.scale(w.Get("blocked_in_other_groups", 40))
		b.contribute("Blocked in other groups")
	}
	if network.FlaggedInOtherGroups > 0 {
		score += c.scale(w.Get("flagged_in_other_groups", 25))
	}

	if network.GroupsInCommon >= 5 {
		score += w.Get("groups_in_common_5_plus", -5)
	}

	return score
}
