package quizgen

import (
	"regexp"
	"strings"
	"sync"
)

// stemWordLimit is how many leading words of a question survive into its
// duplicate fingerprint.
const stemWordLimit = 12

var (
	stemPunctuation = regexp.MustCompile(`[^\w\s]`)
	stemWhitespace  = regexp.MustCompile(`\s+`)
)

// NormalizeStem returns the near-duplicate fingerprint of a question or
// prompt: lowercased, punctuation stripped, whitespace collapsed, truncated
// to the first 12 words.
func NormalizeStem(text string) string {
	if text == "" {
		return ""
	}
	normalized := stemPunctuation.ReplaceAllString(strings.ToLower(text), " ")
	normalized = strings.TrimSpace(stemWhitespace.ReplaceAllString(normalized, " "))
	words := strings.Fields(normalized)
	if len(words) > stemWordLimit {
		words = words[:stemWordLimit]
	}
	return strings.Join(words, " ")
}

// StemSet is a set of normalized stems scoped to a single orchestration run.
// Parallel chunk calls register stems as they complete, so access is
// serialized with a mutex.
type StemSet struct {
	mu    sync.Mutex
	stems map[string]struct{}
	order []string
}

// NewStemSet returns an empty stem set.
func NewStemSet() *StemSet {
	return &StemSet{stems: make(map[string]struct{})}
}

// Add registers a stem and reports whether it was newly added. Empty stems
// are never added.
func (s *StemSet) Add(stem string) bool {
	if stem == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stems[stem]; ok {
		return false
	}
	s.stems[stem] = struct{}{}
	s.order = append(s.order, stem)
	return true
}

// Contains reports whether the stem is already registered.
func (s *StemSet) Contains(stem string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.stems[stem]
	return ok
}

// Snapshot returns the registered stems in insertion order. Used to seed
// chunk prompts so the model is biased away from repeats.
func (s *StemSet) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of registered stems.
func (s *StemSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stems)
}
