package caseconv

import "testing"

func TestAllUppercase(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"SMITH", true},
		{"Smith", false},
		{"ÉMILIE", true},
		{"O'BRIEN-JONES", true},
		{"123", false},
		{"", false},
		{"ß", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := AllUppercase(tt.in); got != tt.want {
				t.Fatalf("AllUppercase(%q): expected %v, got %v", tt.in, tt.want, got)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	if got := ToUpper("straße"); got != "STRASSE" {
		t.Fatalf("expected STRASSE, got %q", got)
	}
	if got := ToLower("ÉCOLE"); got != "école" {
		t.Fatalf("expected école, got %q", got)
	}
}
