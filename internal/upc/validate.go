package upc

import "regexp"

// codePattern accepts the UPC/EAN family by length alone:
// UPC-A (12), UPC-E (8), EAN-13 (13), EAN-8 (8), plus GTIN-14.
// Deliberately permissive: some 8-14 digit strings match no real symbology.
// The breadth is intentional so the scanner never drops a decodable code.
var codePattern = regexp.MustCompile(`^\d{8,14}$`)

// IsValidCode reports whether s is a plausible UPC/EAN code.
func IsValidCode(s string) bool {
	return codePattern.MatchString(s)
}
