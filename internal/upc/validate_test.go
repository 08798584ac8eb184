package upc

import "testing"

func TestIsValidCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"UPC-A", "036000291452", true},
		{"EAN-13", "9780134190440", true},
		{"EAN-8", "12345678", true},
		{"GTIN-14", "12345678901234", true},
		{"too short", "1234567", false},
		{"too long", "123456789012345", false},
		{"empty", "", false},
		{"trailing letter", "12345678901234a", false},
		{"embedded letter", "97801341a0440", false},
		{"hyphenated ISBN", "978-0134190440", false},
		{"whitespace", " 12345678", false},
		{"unicode digits", "１２３４５６７８", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidCode(tt.code); got != tt.want {
				t.Errorf("IsValidCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
