package catalog

import (
	"fmt"
	"strings"
)

// The legacy app edited amenity flags as the literal strings "Yes"/"No".
// Internally everything is a real bool; these helpers exist only for the
// rendering boundary and for inputs that still arrive as strings.

// FormatYesNo renders a bool for display.
func FormatYesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// ParseYesNo converts a "Yes"/"No" input (case-insensitive) to a bool.
func ParseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, fmt.Errorf("not a Yes/No value: %q", s)
}
