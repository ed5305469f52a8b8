package worldstate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTitleCase(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{in: "OrokinTowerMobileDefense", want: "Orokin Tower Mobile Defense"},
		{in: "VoidT1", want: "Void T1"},
		{in: "SORTIE_MODIFIER_FIRE", want: "Sortie Modifier Fire"},
		{in: "HTTPServer", want: "Http Server"},
		{in: "already spaced words", want: "Already Spaced Words"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := titleCase(tt.in); got != tt.want {
				t.Errorf("titleCase(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTitleCaseLastSegment(t *testing.T) {
	t.Parallel()
	if got := titleCaseLastSegment("/Lotus/Types/Keys/OrokinTowerMobileDefense"); got != "Orokin Tower Mobile Defense" {
		t.Errorf("got %q", got)
	}
	if got := titleCaseLastSegment("NoSlash"); got != "No Slash" {
		t.Errorf("got %q", got)
	}
}

func TestSplitCamelCase(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want []string
	}{
		{in: "PrimeDualKeres", want: []string{"Prime", "Dual", "Keres"}},
		{in: "MPVNova", want: []string{"M", "P", "V", "Nova"}},
		{in: "lower", want: []string{"lower"}},
		{in: "", want: nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, splitCamelCase(tt.in)); diff != "" {
			t.Errorf("splitCamelCase(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}
