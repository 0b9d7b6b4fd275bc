package slug

import (
	"strings"
	"testing"
)

// TestGenerate covers the titles, topics and slogans designs are named from.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Titles ---
		{"simple two words", "Molon Labe", "molon-labe"},
		{"title with caliber", "9mm Is Enough", "9mm-is-enough"},
		{"already a slug", "come-and-take-it", "come-and-take-it"},
		{"mixed case", "SHALL Not Be Infringed", "shall-not-be-infringed"},

		// --- Special characters ---
		{"punctuation", "Range Day? Every Day!", "range-day-every-day"},
		{"ampersand", "Guns & Coffee", "guns-coffee"},
		{"caliber with dot", ".45 ACP", "45-acp"},
		{"hash and dollar", "Ammo #1 costs $20", "ammo-1-costs-20"},
		{"slashes", "AR-15/M4 Builds", "ar-15m4-builds"},
		{"emoji stripped", "Range Day 🔫", "range-day"},

		// --- Whitespace and hyphens ---
		{"collapsed spaces", "range    day", "range-day"},
		{"tabs and newlines", "range\tday\nfun", "range-day-fun"},
		{"leading and trailing hyphens", "--range day--", "range-day"},
		{"hyphen runs", "range---day", "range-day"},

		// --- Edge cases ---
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"only symbols", "!@#$%^&*()", ""},
		{"single digit", "5", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerate_MaxLength(t *testing.T) {
	long := strings.Repeat("freedom ", 20)
	got := Generate(long)
	if len(got) > MaxLength {
		t.Errorf("len = %d, want <= %d", len(got), MaxLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated slug %q ends with a hyphen", got)
	}
}

// TestGenerate_Idempotent verifies that slugging a slug is a no-op.
func TestGenerate_Idempotent(t *testing.T) {
	for _, s := range []string{"molon-labe", "2a", "range-day-2026"} {
		if got := Generate(s); got != s {
			t.Errorf("Generate(%q) = %q", s, got)
		}
	}
}

func TestTags(t *testing.T) {
	got := Tags("Second Amendment", "", "gunmerch", "second amendment", "  ", "Ammo")
	want := []string{"second-amendment", "gunmerch", "ammo"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Tags = %v, want %v", got, want)
	}
}
