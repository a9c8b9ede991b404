package errors

import (
	"strings"
	"testing"

	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

func TestValidateSourceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "TKK_02_0004", false},
		{"valid with dash", "H37Rv-ref", false},
		{"valid with dot", "sample.1", false},
		{"valid with space", "genome one", false},

		{"empty", "", true},
		{"whitespace", "   ", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"comma", "a,b", true},
		{"semicolon", "a;b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSourceName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSourceName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidSource) {
				t.Errorf("ValidateSourceName(%q) code = %v", tt.input, GetCode(err))
			}
		})
	}
}

func TestValidateSelection(t *testing.T) {
	known := seqgraph.NewSources("g1", "g2")

	sel, err := ValidateSelection([]string{"g1", "g1"}, known)
	if err != nil || sel.Len() != 1 {
		t.Errorf("ValidateSelection(dup) = %v, %v", sel.Sorted(), err)
	}

	sel, err = ValidateSelection(nil, known)
	if err != nil || sel == nil || sel.Len() != 0 {
		t.Errorf("ValidateSelection(nil) = %v, %v; want empty non-nil", sel, err)
	}

	_, err = ValidateSelection([]string{"g1", "g9", "g8"}, known)
	if !Is(err, ErrCodeInvalidSource) || !strings.Contains(UserMessage(err), "g9, g8") {
		t.Errorf("ValidateSelection(unknown) error = %v", err)
	}

	if _, err := ValidateSelection([]string{"anything"}, nil); err != nil {
		t.Errorf("ValidateSelection(no known set) error = %v", err)
	}
}

func TestParseSelection(t *testing.T) {
	sel, err := ParseSelection(" g1, ,g2 ,", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := sel.Sorted(); len(got) != 2 || got[0] != "g1" || got[1] != "g2" {
		t.Errorf("ParseSelection() = %v, want [g1 g2]", got)
	}

	if sel, _ := ParseSelection("", nil); sel.Len() != 0 {
		t.Errorf("ParseSelection(empty) = %v", sel.Sorted())
	}
}
