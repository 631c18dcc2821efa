package sanitizer

import (
	"strings"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim spaces", "  Sea View Loft  ", "Sea View Loft"},
		{"collapse inner spaces", "Sea    View", "Sea View"},
		{"tabs and newlines", "Sea\t\nView", "Sea View"},
		{"empty", "", ""},
		{"only whitespace", "   \t\n ", ""},
		{"keeps punctuation and accents", " Café & Spa ", "Café & Spa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana.Host@Example.COM "); got != "ana.host@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already E.164", "+351912345678", "+351912345678"},
		{"with spaces", "+351 912 345 678", "+351912345678"},
		{"with parentheses", "+1 (212) 555-1234", "+12125551234"},
		{"surrounding spaces", "  +12125551234  ", "+12125551234"},
		{"empty", "", ""},
		{"not a number", "n/a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizersAreIdempotent(t *testing.T) {
	tests := []struct {
		name  string
		fn    Strategy
		input string
	}{
		{"name", NormalizeName, "  Sea   View "},
		{"long name", NormalizeName, strings.Repeat("x ", 50)},
		{"email", NormalizeEmail, " A@B.co "},
		{"phone", NormalizePhone, "+1 (212) 555-1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := tt.fn(tt.input)
			if twice := tt.fn(once); twice != once {
				t.Errorf("not idempotent for %q: %q then %q", tt.input, once, twice)
			}
		})
	}
}
