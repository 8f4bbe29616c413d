package types

// ProfileSignals carries signals extracted from a user's profile. Negative
// weights in the risk calculator correspond to trust signals here; positive
// weights correspond to risk signals.
type ProfileSignals struct {
	AccountAgeDays         int
	HasUsername            bool
	HasProfilePhoto        bool
	HasBio                 bool
	HasFirstName           bool
	HasLastName            bool
	IsPremium              bool
	IsBot                  bool
	UsernameHasRandomChars bool
	BioHasLinks            bool
	BioHasCryptoTerms      bool
	NameHasEmojiSpam       bool
}

// ContentSignals carries signals extracted from message text, URLs, and
// media.
type ContentSignals struct {
	TextLength           int
	WordCount            int
	CapsRatio            float64
	EmojiCount           int
	HasCyrillic          bool
	HasLatin             bool
	Language             string
	URLCount             int
	HasShortenedURLs     bool
	HasWhitelistedURLs   bool
	HasSuspiciousTLD     bool
	UniqueDomains        int
	HasCryptoScamPhrases bool
	HasMoneyPatterns     bool
	HasUrgencyPatterns   bool
	HasPhoneNumbers      bool
	HasWalletAddresses   bool
	HasMedia             bool
	HasForward           bool
	ForwardFromChannel   bool
}

// BehaviorSignals carries signals from message timing, history, and
// interaction patterns. GroupMembershipDays is read by the risk calculator
// even though it is populated by a separate membership lookup rather than
// direct message inspection.
type BehaviorSignals struct {
	TimeToFirstMessageSeconds       *int
	MessagesInLastHour              int
	MessagesInLast24h               int
	JoinToMessageSeconds            *int
	PreviousMessagesApproved        int
	PreviousMessagesFlagged         int
	PreviousMessagesBlocked         int
	IsFirstMessage                  bool
	IsChannelSubscriber             bool
	ChannelSubscriptionDurationDays int
	IsReply                         bool
	IsReplyToAdmin                  bool
	MentionedUsersCount             int
	GroupMembershipDays             int
}

// NetworkSignals carries signals from cross-group and spam-database
// analysis, used to detect coordinated spam campaigns.
type NetworkSignals struct {
	GroupsInCommon                 int
	DuplicateMessagesInOtherGroups int
	FlaggedInOtherGroups           int
	BlockedInOtherGroups           int
	SpamDBSimilarity               float64
	SpamDBMatchedPattern           string
	IsInGlobalBlocklist            bool
	IsInGlobalWhitelist            bool
}

// Signals is the combined input to the risk calculator.
type Signals struct {
	Profile  ProfileSignals
	Content  ContentSignals
	Behavior BehaviorSignals
	Network  NetworkSignals
}

// Validate checks the numeric invariants the calculator and analyzers
// depend on: ratios in [0,1], every count non-negative. Constructing an
// out-of-range Signals value is a programmer error in an analyzer, not a
// runtime condition to silently clamp.
func (s Signals) Validate() error {
	if s.Content.CapsRatio < 0 || s.Content.CapsRatio > 1 {
		return errInvalidSignal("content.caps_ratio must be in [0,1]")
	}
	if s.Network.SpamDBSimilarity < 0 || s.Network.SpamDBSimilarity > 1 {
		return errInvalidSignal("network.spam_db_similarity must be in [0,1]")
	}

	counts := []struct {
		name  string
		value int
	}{
		{"profile.account_age_days", s.Profile.AccountAgeDays},
		{"content.text_length", s.Content.TextLength},
		{"content.word_count", s.Content.WordCount},
		{"content.emoji_count", s.Content.EmojiCount},
		{"content.url_count", s.Content.URLCount},
		{"content.unique_domains", s.Content.UniqueDomains},
		{"behavior.messages_in_last_hour", s.Behavior.MessagesInLastHour},
		{"behavior.messages_in_last_24h", s.Behavior.MessagesInLast24h},
		{"behavior.previous_messages_approved", s.Behavior.PreviousMessagesApproved},
		{"behavior.previous_messages_flagged", s.Behavior.PreviousMessagesFlagged},
		{"behavior.previous_messages_blocked", s.Behavior.PreviousMessagesBlocked},
		{"behavior.channel_subscription_duration_days", s.Behavior.ChannelSubscriptionDurationDays},
		{"behavior.mentioned_users_count", s.Behavior.MentionedUsersCount},
		{"behavior.group_membership_days", s.Behavior.GroupMembershipDays},
		{"network.groups_in_common", s.Network.GroupsInCommon},
		{"network.duplicate_messages_in_other_groups", s.Network.DuplicateMessagesInOtherGroups},
		{"network.flagged_in_other_groups", s.Network.FlaggedInOtherGroups},
		{"network.blocked_in_other_groups", s.Network.BlockedInOtherGroups},
	}
	for _, c := range counts {
		if c.value < 0 {
			return errInvalidSignal(c.name + " must be non-negative")
		}
	}

	if s.Behavior.TimeToFirstMessageSeconds != nil && *s.Behavior.TimeToFirstMessageSeconds < 0 {
		return errInvalidSignal("behavior.time_to_first_message_seconds must be non-negative")
	}
	if s.Behavior.JoinToMessageSeconds != nil && *s.Behavior.JoinToMessageSeconds < 0 {
		return errInvalidSignal("behavior.join_to_message_seconds must be non-negative")
	}
	return nil
}

type signalError string

func (e signalError) Error() string { return string(e) }

func errInvalidSignal(msg string) error { return signalError(msg) }
