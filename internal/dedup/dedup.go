// Package dedup detects and merges duplicate candidate records. Every
// function is pure and deterministic: no I/O, no hidden state.
package dedup

import (
	"strings"

	"github.com/spigell/talent-sourcer/internal/candidate"
)

// FindDuplicatesByIdentity groups candidates sharing a normalized
// network-profile URL or a normalized email. Only groups with more than one
// member are returned, in first-seen order.
func FindDuplicatesByIdentity(list []*candidate.Candidate) [][]*candidate.Candidate {
	byKey := make(map[string][]*candidate.Candidate)
	var order []string

	add := func(key string, c *candidate.Candidate) {
		if key == "" {
			return
		}
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], c)
	}

	for _, c := range list {
		if key := candidate.NormalizeProfileURL(c.Contact.ProfileURL()); key != "" {
			add("url:"+key, c)
			continue
		}
		// Phone-only contacts carry no identity signal and never group.
		if key := candidate.NormalizeEmail(c.Contact.Email()); key != "" {
			add("email:"+key, c)
		}
	}

	var groups [][]*candidate.Candidate
	for _, key := range order {
		if group := byKey[key]; len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups
}

// FindDuplicatesByNameHeuristic groups candidates by normalized name plus
// normalized current employer. This is a weak signal and is meant only as a
// supplementary check on top of identity matching.
func FindDuplicatesByNameHeuristic(list []*candidate.Candidate) [][]*candidate.Candidate {
	byKey := make(map[string][]*candidate.Candidate)
	var order []string

	for _, c := range list {
		name := normalizeToken(c.Name)
		employer := normalizeToken(c.Employer)
		if name == "" || employer == "" {
			continue
		}
		key := name + "|" + employer
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], c)
	}

	var groups [][]*candidate.Candidate
	for _, key := range order {
		if group := byKey[key]; len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups
}

// IsDuplicate reports whether two candidates share a strong identity signal:
// the same normalized profile URL or the same normalized email.
func IsDuplicate(a, b *candidate.Candidate) bool {
	if a == nil || b == nil {
		return false
	}

	aURL := candidate.NormalizeProfileURL(a.Contact.ProfileURL())
	bURL := candidate.NormalizeProfileURL(b.Contact.ProfileURL())
	if aURL != "" && aURL == bURL {
		return true
	}

	aEmail := candidate.NormalizeEmail(a.Contact.Email())
	bEmail := candidate.NormalizeEmail(b.Contact.Email())
	return aEmail != "" && aEmail == bEmail
}

// RemoveDuplicates returns the list with later duplicates dropped, keeping
// first-seen order. Duplicates are detected by id, then profile URL, then
// email, in that priority. Data from a dropped record is merged into its
// first-seen primary. The operation is idempotent.
func RemoveDuplicates(list []*candidate.Candidate) []*candidate.Candidate {
	out := make([]*candidate.Candidate, 0, len(list))
	byID := make(map[string]*candidate.Candidate)
	byURL := make(map[string]*candidate.Candidate)
	byEmail := make(map[string]*candidate.Candidate)

	for _, c := range list {
		if c == nil {
			continue
		}

		url := candidate.NormalizeProfileURL(c.Contact.ProfileURL())
		email := candidate.NormalizeEmail(c.Contact.Email())

		var primary *candidate.Candidate
		switch {
		case byID[c.ID] != nil:
			primary = byID[c.ID]
		case url != "" && byURL[url] != nil:
			primary = byURL[url]
		case email != "" && byEmail[email] != nil:
			primary = byEmail[email]
		}

		if primary != nil {
			MergeCandidateData(primary, c)
			continue
		}

		out = append(out, c)
		byID[c.ID] = c
		if url != "" {
			byURL[url] = c
		}
		if email != "" {
			byEmail[email] = c
		}
	}

	return out
}

// MergeCandidateData folds the secondary record into the primary: skills are
// unioned, profile data is merged (primary keys win), missing scalar fields
// are filled in, and the higher evaluation score is kept.
func MergeCandidateData(primary, secondary *candidate.Candidate) {
	if primary == nil || secondary == nil {
		return
	}

	primary.Skills = primary.Skills.Union(secondary.Skills)

	for key, value := range secondary.Profile {
		if _, exists := primary.Profile[key]; !exists {
			primary.MergeProfile(map[string]any{key: value})
		}
	}

	if primary.Position == "" {
		primary.Position = secondary.Position
	}
	if primary.Employer == "" {
		primary.Employer = secondary.Employer
	}
	if primary.Location == "" {
		primary.Location = secondary.Location
	}
	if primary.Education == "" {
		primary.Education = secondary.Education
	}
	if primary.YearsExperience == nil {
		primary.YearsExperience = secondary.YearsExperience
	}
	if !primary.Contact.HasEmail() && secondary.Contact.HasEmail() {
		primary.Contact = primary.Contact.WithEmail(secondary.Contact.Email())
	}
	if !primary.Contact.HasPhone() && secondary.Contact.HasPhone() {
		primary.Contact = primary.Contact.WithPhone(secondary.Contact.Phone())
	}

	if secondary.Score != nil && (primary.Score == nil || secondary.Score.Overall > primary.Score.Overall) {
		primary.SetScore(*secondary.Score)
	}
}

func normalizeToken(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
