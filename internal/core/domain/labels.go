package domain

import "strings"

// =============================================================================
// Label Generation
// =============================================================================

// Humanize converts a field name to a human-readable label.
//
// The transformation rules are:
//   - Underscores and hyphens become spaces
//   - Runs of separators collapse to one space
//   - The first letter is upper-cased, the rest is kept as-is
//
// Example:
//
//	Humanize("warranty_months")  // returns "Warranty months"
//	Humanize("is_loaned")        // returns "Is loaned"
//	Humanize("serial-no")        // returns "Serial no"
func Humanize(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	if len(words) == 0 {
		return ""
	}
	label := strings.Join(words, " ")
	first := label[0]
	if first >= 'a' && first <= 'z' {
		label = string(first-32) + label[1:]
	}
	return label
}
