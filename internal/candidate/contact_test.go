package candidate

import (
	"errors"
	"testing"
)

func TestNewContactInfoRequiresChannel(t *testing.T) {
	_, err := NewContactInfo("", "", "")
	if !errors.Is(err, ErrNoContactChannel) {
		t.Fatalf("expected ErrNoContactChannel, got %v", err)
	}
}

func TestNewContactInfoValidation(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		phone   string
		profile string
		wantErr bool
	}{
		{"email only", "jane.doe@example.com", "", "", false},
		{"phone only", "", "+4915112345678", "", false},
		{"phone with separators", "", "+49 (151) 123-45678", "", false},
		{"profile only", "", "", "https://network.example.com/in/jane", false},
		{"bad email", "not-an-email", "", "", true},
		{"bad phone", "", "call me", "", true},
		{"bad profile scheme", "", "", "ftp://network.example.com/in/jane", true},
		{"profile without host", "", "", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewContactInfo(tt.email, tt.phone, tt.profile)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestContactInfoNormalization(t *testing.T) {
	c, err := NewContactInfo("Jane.Doe@Example.COM", "+49 151 1234567", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Email() != "jane.doe@example.com" {
		t.Fatalf("expected lowercased email, got %q", c.Email())
	}
	if c.Phone() != "+491511234567" {
		t.Fatalf("expected stripped phone, got %q", c.Phone())
	}
}

func TestWithEmailKeepsOriginalOnInvalid(t *testing.T) {
	c, err := NewContactInfo("jane@example.com", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := c.WithEmail("broken")
	if updated.Email() != "jane@example.com" {
		t.Fatalf("expected original email kept, got %q", updated.Email())
	}

	updated = c.WithEmail("new@example.com")
	if updated.Email() != "new@example.com" {
		t.Fatalf("expected replaced email, got %q", updated.Email())
	}
	if c.Email() != "jane@example.com" {
		t.Fatalf("original contact mutated: %q", c.Email())
	}
}
