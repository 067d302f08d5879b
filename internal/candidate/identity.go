package candidate

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NormalizeProfileURL reduces a network-profile URL to its identity form:
// lowercased, scheme stripped, "www." prefix and trailing slashes removed.
// Re-discovering the same profile with different casing or a trailing slash
// therefore yields the same key.
func NormalizeProfileURL(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(s, scheme) {
			s = s[len(scheme):]
			break
		}
	}
	s = strings.TrimPrefix(s, "www.")

	return strings.TrimRight(s, "/")
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// DeriveID produces a stable candidate id from a profile URL so that the same
// profile never creates a duplicate candidate. When no profile URL is
// available a random uuid is generated instead.
func DeriveID(profileURL string) string {
	normalized := NormalizeProfileURL(profileURL)
	if normalized == "" {
		return uuid.NewString()
	}
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)[:32]
}
