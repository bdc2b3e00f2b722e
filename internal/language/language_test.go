package language

import "testing"

func TestCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"eng", "eng"},
		{" jpn ", "jpn"},
		{"", "und"},
		{"   ", "und"},
		{"\u0000", "und"},
		{"en-US", "en-US"},
	}
	for _, tt := range tests {
		if got := Code(tt.input); got != tt.expected {
			t.Errorf("Code(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name    string
		lang    string
		allowed []string
		want    bool
	}{
		{"empty list admits all", "jpn", nil, true},
		{"exact", "eng", []string{"eng"}, true},
		{"prefix", "eng", []string{"en"}, true},
		{"case insensitive", "ENG", []string{"en"}, true},
		{"ietf tag", "en-US", []string{"en"}, true},
		{"miss", "jpn", []string{"eng", "und"}, false},
		{"und allowed", "und", []string{"eng", "und"}, true},
		{"longer prefix does not match shorter lang", "en", []string{"eng"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.lang, tt.allowed); got != tt.want {
				t.Fatalf("Allowed(%q, %v) = %v, want %v", tt.lang, tt.allowed, got, tt.want)
			}
		})
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{" ENG", "und", "eng", "", "Jpn"})
	want := []string{"eng", "und", "jpn"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NormalizeList = %v, want %v", got, want)
		}
	}
	if NormalizeList(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"eng", "English"},
		{"ger", "German"},
		{"ja", "Japanese"},
		{"und", "Undetermined"},
		{"en-US", "English"},
		{"xyz", "XYZ"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
