package transcript

import "testing"

// TestParseDisplayMode tests parsing of display modes.
func TestParseDisplayMode(t *testing.T) {
	tests := []struct {
		in      string
		want    DisplayMode
		wantErr bool
	}{
		{"", DisplayBoth, false},
		{"both", DisplayBoth, false},
		{"en", "en", false},
		{"zh-CN", "zh", false},
		{"!!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDisplayMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDisplayMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDisplayMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestNextDisplayMode tests cycling through display modes.
func TestNextDisplayMode(t *testing.T) {
	available := []LanguageTag{"en", "zh"}
	tests := []struct {
		current   DisplayMode
		available []LanguageTag
		want      DisplayMode
	}{
		{DisplayBoth, available, "en"},
		{"en", available, "zh"},
		{"zh", available, DisplayBoth},
		{"fr", available, DisplayBoth},
		{DisplayBoth, nil, DisplayBoth},
	}
	for _, tt := range tests {
		if got := NextDisplayMode(tt.current, tt.available); got != tt.want {
			t.Errorf("NextDisplayMode(%q, %v) = %q, want %q", tt.current, tt.available, got, tt.want)
		}
	}
}

// TestNextLanguage tests cycling through audio languages.
func TestNextLanguage(t *testing.T) {
	available := []LanguageTag{"en", "zh", "ja"}
	tests := []struct {
		current LanguageTag
		want    LanguageTag
	}{
		{"en", "zh"},
		{"zh", "ja"},
		{"ja", "en"},
		{"fr", "en"},
	}
	for _, tt := range tests {
		if got := NextLanguage(tt.current, available); got != tt.want {
			t.Errorf("NextLanguage(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
	if got := NextLanguage("en", nil); got != "en" {
		t.Errorf("NextLanguage with nothing available = %q", got)
	}
}

func TestDisplayModeLabel(t *testing.T) {
	if got := DisplayBoth.Label(); got != "Both" {
		t.Errorf("Label() = %q", got)
	}
	if got := DisplayLanguage("en").Label(); got != "English" {
		t.Errorf("Label() = %q", got)
	}
	if _, ok := DisplayMode("").Language(); ok {
		t.Error("empty mode should mean both")
	}
}
