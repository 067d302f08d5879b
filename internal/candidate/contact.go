package candidate

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ErrNoContactChannel is returned when a contact has no usable channel.
var ErrNoContactChannel = errors.New("contact info requires at least one channel")

// ContactInfo holds the known channels for reaching a candidate. At least one
// channel must be present and every present channel must pass its format
// check. Instances are immutable; build them with NewContactInfo.
type ContactInfo struct {
	email      string
	phone      string
	profileURL string
}

// NewContactInfo validates and normalizes the provided channels. Phone
// numbers may contain separators which are stripped before validation.
func NewContactInfo(email, phone, profileURL string) (ContactInfo, error) {
	c := ContactInfo{
		email:      strings.ToLower(strings.TrimSpace(email)),
		phone:      normalizePhone(phone),
		profileURL: strings.TrimSpace(profileURL),
	}

	if c.email == "" && c.phone == "" && c.profileURL == "" {
		return ContactInfo{}, ErrNoContactChannel
	}

	if c.email != "" && !emailRe.MatchString(c.email) {
		return ContactInfo{}, fmt.Errorf("invalid email: %q", c.email)
	}
	if c.phone != "" && !phoneRe.MatchString(c.phone) {
		return ContactInfo{}, fmt.Errorf("invalid phone: %q", c.phone)
	}
	if c.profileURL != "" {
		parsed, err := url.Parse(c.profileURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return ContactInfo{}, fmt.Errorf("invalid profile url: %q", c.profileURL)
		}
	}

	return c, nil
}

func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return replacer.Replace(phone)
}

func (c ContactInfo) Email() string      { return c.email }
func (c ContactInfo) Phone() string      { return c.phone }
func (c ContactInfo) ProfileURL() string { return c.profileURL }

func (c ContactInfo) HasEmail() bool      { return c.email != "" }
func (c ContactInfo) HasPhone() bool      { return c.phone != "" }
func (c ContactInfo) HasProfileURL() bool { return c.profileURL != "" }

// WithEmail returns a copy with the email replaced when the new value is
// valid, otherwise the original contact is returned unchanged.
func (c ContactInfo) WithEmail(email string) ContactInfo {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !emailRe.MatchString(email) {
		return c
	}
	c.email = email
	return c
}

// WithPhone behaves like WithEmail for the phone channel.
func (c ContactInfo) WithPhone(phone string) ContactInfo {
	phone = normalizePhone(phone)
	if phone == "" || !phoneRe.MatchString(phone) {
		return c
	}
	c.phone = phone
	return c
}
