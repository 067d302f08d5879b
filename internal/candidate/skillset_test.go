package candidate

import (
	"math"
	"testing"
)

func TestNewSkillSetNormalizes(t *testing.T) {
	s := NewSkillSet(" Go ", "go", "PYTHON", "", "  ", "aws")

	if s.Len() != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", s.Len(), s.Slice())
	}
	if !s.Contains("GO") || !s.Contains("python") || !s.Contains(" AWS ") {
		t.Fatalf("expected case-insensitive containment, got %v", s.Slice())
	}
}

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name     string
		skills   []string
		required []string
		expected float64
	}{
		{"empty requirement", []string{"go"}, nil, 1.0},
		{"full match", []string{"python", "aws"}, []string{"python", "aws"}, 1.0},
		{"two of three", []string{"python", "aws"}, []string{"python", "aws", "docker"}, 2.0 / 3.0},
		{"no overlap", []string{"ruby"}, []string{"go", "rust"}, 0},
		{"empty candidate", nil, []string{"go"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSkillSet(tt.skills...).MatchScore(NewSkillSet(tt.required...))
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Fatalf("MatchScore = %v, expected %v", got, tt.expected)
			}
			if got < 0 || got > 1 {
				t.Fatalf("MatchScore %v out of [0,1]", got)
			}
		})
	}
}

func TestContainsAnyAll(t *testing.T) {
	s := NewSkillSet("go", "python", "aws")

	if !s.ContainsAll(NewSkillSet("go", "aws")) {
		t.Fatalf("expected ContainsAll to hold")
	}
	if s.ContainsAll(NewSkillSet("go", "rust")) {
		t.Fatalf("did not expect ContainsAll with missing token")
	}
	if !s.ContainsAny(NewSkillSet("rust", "python")) {
		t.Fatalf("expected ContainsAny to hold")
	}
	if s.ContainsAny(NewSkillSet("rust", "java")) {
		t.Fatalf("did not expect ContainsAny with no overlap")
	}
}

func TestUnionAndIntersectDoNotMutate(t *testing.T) {
	a := NewSkillSet("go", "python")
	b := NewSkillSet("python", "docker")

	union := a.Union(b)
	inter := a.Intersect(b)

	if a.Len() != 2 || b.Len() != 2 {
		t.Fatalf("operands mutated: a=%v b=%v", a.Slice(), b.Slice())
	}
	if union.Len() != 3 {
		t.Fatalf("expected union of 3, got %v", union.Slice())
	}
	if inter.Len() != 1 || !inter.Contains("python") {
		t.Fatalf("expected intersection {python}, got %v", inter.Slice())
	}
}
