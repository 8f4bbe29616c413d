// Package inmemory implements ports.SpamDatabase as a static, in-process
// corpus of known spam phrases plus block/allow user-ID sets, scored by
// character n-gram overlap. It backs tests and `saqshy run-local` where
// no real spam-intelligence service is configured.
package inmemory

import (
	"context"
	"strings"
	"sync"

	"github.com/nauanbek/saqshy/pkg/ports"
)

const defaultNgramLength = 4

// DB is a concurrency-safe in-memory spam database.
type DB struct {
	mu          sync.RWMutex
	n           int
	phrases     map[string]string // normalized phrase -> pattern label
	blocked     map[int64]bool
	whitelisted map[int64]bool
}

// New builds an empty DB. Seed with AddPhrase/Block/Whitelist.
func New() *DB {
	return &DB{
		n:           defaultNgramLength,
		phrases:     make(map[string]string),
		blocked:     make(map[int64]bool),
		whitelisted: make(map[int64]bool),
	}
}

// AddPhrase seeds a known-spam phrase under pattern, a short label returned
// by Similarity to explain which rule matched.
func (d *DB) AddPhrase(phrase, pattern string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.phrases[strings.ToLower(phrase)] = pattern
}

// Block adds userID to the global blocklist.
func (d *DB) Block(userID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blocked[userID] = true
}

// Whitelist adds userID to the global whitelist.
func (d *DB) Whitelist(userID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.whitelisted[userID] = true
}

// Similarity returns the best n-gram overlap score between text and any
// seeded phrase, along with that phrase's pattern label.
func (d *DB) Similarity(_ context.Context, text string) (float64, string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	lower := strings.ToLower(text)
	var best float64
	var bestPattern string
	for phrase, pattern := range d.phrases {
		score := ngramMatchScore(phrase, lower, d.n)
		if score > best {
			best = score
			bestPattern = pattern
		}
	}
	return best, bestPattern, nil
}

func (d *DB) IsGlobalBlocked(_ context.Context, userID int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.blocked[userID], nil
}

func (d *DB) IsGlobalWhitelisted(_ context.Context, userID int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.whitelisted[userID], nil
}

// ngramMatchScore reports what fraction of the stored phrase's n-grams
// appear in the candidate message.
func ngramMatchScore(target, text string, n int) float64 {
	if len(target) < n {
		if target != "" && strings.Contains(text, target) {
			return 1.0
		}
		return 0.0
	}

	targetNgrams := generateNgrams(target, n)
	if len(targetNgrams) == 0 {
		return 0.0
	}

	matching := 0
	for ngram := range targetNgrams {
		if strings.Contains(text, ngram) {
			matching++
		}
	}
	return float64(matching) / float64(len(targetNgrams))
}

func generateNgrams(s string, n int) map[string]struct{} {
	ngrams := make(map[string]struct{})
	if len(s) < n {
		return ngrams
	}
	for i := 0; i <= len(s)-n; i++ {
		ngrams[s[i:i+n]] = struct{}{}
	}
	return ngrams
}

var _ ports.SpamDatabase = (*DB)(nil)
