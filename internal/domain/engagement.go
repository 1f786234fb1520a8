package domain

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

const DefaultLikeCap = 3

type EngagementTarget struct {
	Term  string
	Cap   int
	Dedup *DedupSet
}

func (t EngagementTarget) Validate() error {
	if strings.TrimSpace(t.Term) == "" {
		return fmt.Errorf("%w: search term is empty", ErrInputValidation)
	}
	if t.Cap <= 0 {
		return fmt.Errorf("%w: like cap must be positive, got %d", ErrInputValidation, t.Cap)
	}
	return nil
}

// EncodeSearchTerm produces the query-string form of term. DecodeSearchTerm
// reverses it exactly.
func EncodeSearchTerm(term string) string {
	return url.QueryEscape(term)
}

func DecodeSearchTerm(encoded string) (string, error) {
	return url.QueryUnescape(encoded)
}

// DedupSet holds content ids already liked by one account during a run.
type DedupSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewDedupSet(ids ...string) *DedupSet {
	set := &DedupSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

func (s *DedupSet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.ids[id]
	return ok
}

// Add reports whether id was newly added.
func (s *DedupSet) Add(id string) bool {
	if id == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *DedupSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.ids)
}
