package candidate

import (
	"sort"
	"strings"
)

// SkillSet is an immutable, case-insensitive set of skill tokens. Tokens are
// trimmed and lowercased on construction; empty and duplicate tokens are
// dropped. The zero value is an empty set.
type SkillSet struct {
	tokens []string
	index  map[string]struct{}
}

// NewSkillSet builds a normalized skill set preserving first-seen order.
func NewSkillSet(skills ...string) SkillSet {
	s := SkillSet{index: make(map[string]struct{}, len(skills))}
	for _, raw := range skills {
		token := strings.ToLower(strings.TrimSpace(raw))
		if token == "" {
			continue
		}
		if _, ok := s.index[token]; ok {
			continue
		}
		s.index[token] = struct{}{}
		s.tokens = append(s.tokens, token)
	}
	return s
}

func (s SkillSet) Len() int { return len(s.tokens) }

func (s SkillSet) IsEmpty() bool { return len(s.tokens) == 0 }

// Slice returns a copy of the tokens in first-seen order.
func (s SkillSet) Slice() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Sorted returns the tokens in lexical order. Used for deterministic output.
func (s SkillSet) Sorted() []string {
	out := s.Slice()
	sort.Strings(out)
	return out
}

func (s SkillSet) Contains(skill string) bool {
	token := strings.ToLower(strings.TrimSpace(skill))
	_, ok := s.index[token]
	return ok
}

func (s SkillSet) ContainsAny(other SkillSet) bool {
	for _, token := range other.tokens {
		if _, ok := s.index[token]; ok {
			return true
		}
	}
	return false
}

func (s SkillSet) ContainsAll(other SkillSet) bool {
	for _, token := range other.tokens {
		if _, ok := s.index[token]; !ok {
			return false
		}
	}
	return true
}

// Intersect returns the tokens present in both sets, keeping this set's order.
func (s SkillSet) Intersect(other SkillSet) SkillSet {
	matched := make([]string, 0, len(s.tokens))
	for _, token := range s.tokens {
		if _, ok := other.index[token]; ok {
			matched = append(matched, token)
		}
	}
	return NewSkillSet(matched...)
}

// Union returns the combined set, this set's tokens first.
func (s SkillSet) Union(other SkillSet) SkillSet {
	return NewSkillSet(append(s.Slice(), other.tokens...)...)
}

// MatchScore returns |intersection| / |required|. An empty requirement always
// scores 1.0.
func (s SkillSet) MatchScore(required SkillSet) float64 {
	if required.Len() == 0 {
		return 1.0
	}
	return float64(s.Intersect(required).Len()) / float64(required.Len())
}

func (s SkillSet) String() string {
	return strings.Join(s.tokens, ", ")
}
