package risk

import (
	"fmt"

	"github.com/nauanbek/saqshy/pkg/types"
)

func (c *Calculator) behaviorScore(behavior types.BehaviorSignals, profile types.ProfileSignals, b *breakdown) int {
	score := 0
	w := c.weights.Behavior

	if behavior.IsChannelSubscriber {
		score += c.channelSubscriptionBonus(behavior, profile, b)
	}

	switch {
	case behavior.PreviousMessagesApproved >= 10:
		score += w.Get("previous_messages_approved_10_plus", -15)
		b.mitigate("10+ approved messages")
	case behavior.PreviousMessagesApproved >= 5:
		score += w.Get("previous_messages_approved_5_plus", -10)
	case behavior.PreviousMessagesApproved >= 1:
		score += w.Get("previous_messages_approved_1_plus", -5)
	}

	if behavior.IsReply {
		score += w.Get("is_reply", -3)
		if behavior.IsReplyToAdmin {
			score += w.Get("is_reply_to_admin", -5)
		}
	}

	switch {
	case behavior.GroupMembershipDays >= 90:
		score += w.Get("group_member_90_days", -15)
		b.mitigate("Group member for 90+ days")
	case behavior.GroupMembershipDays >= 30:
		score += w.Get("group_member_30_days", -10)
		b.mitigate("Group member for 30+ days")
	case behavior.GroupMembershipDays >= 7:
		score += w.Get("group_member_7_days", -5)
	}

	if behavior.IsFirstMessage {
		score += c.scale(w.Get("is_first_message", 8))
	}

	if behavior.TimeToFirstMessageSeconds != nil {
		switch {
		case *behavior.TimeToFirstMessageSeconds < 30:
			score += c.scale(w.Get("ttfm_under_30_seconds", 15))
			b.contribute("Very fast first message")
		case *behavior.TimeToFirstMessageSeconds < 300:
			score += c.scale(w.Get("ttfm_under_5_minutes", 8))
		}
	}

	if behavior.JoinToMessageSeconds != nil && *behavior.JoinToMessageSeconds < 10 {
		score += c.scale(w.Get("join_to_message_under_10_seconds", 18))
		b.contribute("Message immediately after join")
	}

	switch {
	case behavior.MessagesInLastHour >= 10:
		score += c.scale(w.Get("messages_in_hour_10_plus", 20))
		b.contribute("Message flood")
	case behavior.MessagesInLastHour >= 5:
		score += c.scale(w.Get("messages_in_hour_5_plus", 12))
	}

	if behavior.PreviousMessagesBlocked > 0 {
		score += c.scale(w.Get("previous_messages_blocked", 25))
		b.contribute("Previously blocked messages")
	}
	if behavior.PreviousMessagesFlagged > 0 {
		score += c.scale(w.Get("previous_messages_flagged", 15))
	}

	return score
}

// channelSubscriptionBonus implements the reduced, duration-tiered, and
// new-account-capped trust bonus for linked-channel subscribers (ported
// from the original scoring engine's exact cap formula).
func (c *Calculator) channelSubscriptionBonus(behavior types.BehaviorSignals, profile types.ProfileSignals, b *breakdown) int {
	baseBonus := -15
	durationBonus := 0
	switch {
	case behavior.ChannelSubscriptionDurationDays >= 30:
		durationBonus = -10
	case behavior.ChannelSubscriptionDurationDays >= 7:
		durationBonus = -5
	}
	total := baseBonus + durationBonus

	if profile.AccountAgeDays < 7 {
		if total < -10 {
			total = -10
		}
		b.mitigate(fmt.Sprintf("Channel subscriber (capped to %d for new account)", total))
	} else {
		b.mitigate(fmt.Sprintf("Channel subscriber (%d trust bonus)", total))
	}
	return total
}
