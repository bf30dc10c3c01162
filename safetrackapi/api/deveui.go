package api

import (
	"regexp"
	"strings"
)

// DevEUILength is the number of hexadecimal characters in a DevEUI.
const DevEUILength = 16

var devEUIPattern = regexp.MustCompile(`^[0-9A-F]{16}$`)

// NormalizeDevEUI trims whitespace and upper-cases a DevEUI.
func NormalizeDevEUI(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidDevEUI reports whether s, once normalised, is a 64-bit EUI written as
// exactly 16 hexadecimal characters.
func ValidDevEUI(s string) bool {
	return devEUIPattern.MatchString(NormalizeDevEUI(s))
}
