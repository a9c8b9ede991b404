package errors

import (
	"strings"
	"unicode"

	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

const maxSourceNameLength = 256

// ValidateSourceName validates a genome name from user input.
//
// The rules are conservative:
//   - No empty or all-whitespace names
//   - No control characters
//   - No commas or semicolons (list and Newick separators)
//   - Maximum length of 256 characters
func ValidateSourceName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidSource, "genome name cannot be empty")
	}
	if len(name) > maxSourceNameLength {
		return New(ErrCodeInvalidSource, "genome name too long (max %d characters)", maxSourceNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSource, "genome name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, ",;") {
		return New(ErrCodeInvalidSource, "genome name contains a separator: %q", name)
	}
	return nil
}

// ValidateSelection checks every name with [ValidateSourceName] and, if
// known is non-nil, that each name occurs in it. It returns the selection
// as a set. A nil or empty names slice is valid and yields an empty set.
func ValidateSelection(names []string, known seqgraph.Sources) (seqgraph.Sources, error) {
	sel := make(seqgraph.Sources, len(names))
	var unknown []string
	for _, name := range names {
		if err := ValidateSourceName(name); err != nil {
			return nil, err
		}
		if known != nil && !known.Has(name) {
			unknown = append(unknown, name)
		}
		sel[name] = struct{}{}
	}
	if len(unknown) > 0 {
		return nil, New(ErrCodeInvalidSource, "unknown genomes: %s", strings.Join(unknown, ", "))
	}
	return sel, nil
}

// ParseSelection splits a comma-separated list of genome names, trimming
// whitespace and dropping empty items, then validates it like
// [ValidateSelection].
func ParseSelection(list string, known seqgraph.Sources) (seqgraph.Sources, error) {
	var names []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return ValidateSelection(names, known)
}
