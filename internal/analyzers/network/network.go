// Package network extracts types.NetworkSignals: spam-database similarity
// and global block/allow-list membership (via pkg/ports.SpamDatabase), and
// cross-group duplicate/raid detection backed by pkg/cache, keyed on a
// normalized content hash so the same blast pasted into several chats is
// visible from any one of them.
package network

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/nauanbek/saqshy/pkg/analyzer"
	"github.com/nauanbek/saqshy/pkg/cache"
	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/registry"
	"github.com/nauanbek/saqshy/pkg/types"
)

func init() {
	analyzer.Register("network", New)
}

const Name = "network"

// ErrMissingCache is returned by New when cfg["cache"] is absent.
var ErrMissingCache = errors.New("network: cfg[\"cache\"] must be a cache.Store")

var whitespaceCollapse = regexp.MustCompile(`\s+`)

// Analyzer extracts NetworkSignals. spamDB may be nil, in which case
// similarity/blocklist checks are simply skipped rather than erroring.
type Analyzer struct {
	spamDB ports.SpamDatabase
	store  cache.Store
}

// New builds a network Analyzer.
//
//	cfg["spam_db"] ports.SpamDatabase
//	cfg["cache"]   cache.Store (required)
func New(cfg registry.Config) (analyzer.Analyzer, error) {
	store, _ := cfg["cache"].(cache.Store)
	if store == nil {
		return nil, ErrMissingCache
	}
	spamDB, _ := cfg["spam_db"].(ports.SpamDatabase)
	return &Analyzer{spamDB: spamDB, store: store}, nil
}

func (a *Analyzer) Name() string { return Name }

func (a *Analyzer) Analyze(ctx context.Context, msg types.MessageContext) (types.Signals, error) {
	n := types.NetworkSignals{}

	if a.spamDB != nil {
		if similarity, pattern, err := a.spamDB.Similarity(ctx, msg.Text); err == nil {
			n.SpamDBSimilarity = similarity
			n.SpamDBMatchedPattern = pattern
		}
		if blocked, err := a.spamDB.IsGlobalBlocked(ctx, msg.UserID); err == nil {
			n.IsInGlobalBlocklist = blocked
		}
		if whitelisted, err := a.spamDB.IsGlobalWhitelisted(ctx, msg.UserID); err == nil {
			n.IsInGlobalWhitelist = whitelisted
		}
	}

	if normalized := normalizeForHash(msg.Text); normalized != "" {
		hash := contentHash(normalized)
		groups, err := a.recordAndFetchGroups(ctx, hash, msg.ChatID)
		if err == nil {
			others := otherGroups(groups, msg.ChatID)
			n.GroupsInCommon = len(others)
			n.DuplicateMessagesInOtherGroups = len(others)
		}
	}

	return types.Signals{Network: n}, nil
}

func normalizeForHash(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	if len(t) < 8 {
		return ""
	}
	return whitespaceCollapse.ReplaceAllString(t, " ")
}

func contentHash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// recordAndFetchGroups adds chatID to the set of chats this content hash
// has been seen in, capped at cache.CrossGroupFanoutCap, and returns the
// full (post-insert) set.
func (a *Analyzer) recordAndFetchGroups(ctx context.Context, hash string, chatID int64) ([]int64, error) {
	key := cache.CrossGroupKey(hash)
	raw, found, err := a.store.GetString(ctx, key)
	if err != nil {
		return nil, err
	}
	var groups []int64
	if found {
		if err := json.Unmarshal([]byte(raw), &groups); err != nil {
			groups = nil
		}
	}
	if !contains(groups, chatID) && len(groups) < cache.CrossGroupFanoutCap {
		groups = append(groups, chatID)
		encoded, err := json.Marshal(groups)
		if err == nil {
			_ = a.store.SetString(ctx, key, string(encoded), cache.TTLCrossGroup)
		}
	}
	return groups, nil
}

func contains(groups []int64, id int64) bool {
	for _, g := range groups {
		if g == id {
			return true
		}
	}
	return false
}

func otherGroups(groups []int64, chatID int64) []int64 {
	out := make([]int64, 0, len(groups))
	for _, g := range groups {
		if g != chatID {
			out = append(out, g)
		}
	}
	return out
}

var _ analyzer.Analyzer = (*Analyzer)(nil)
