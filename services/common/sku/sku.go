// Package sku holds the part-number rules shared by the catalog, the cart and
// bulk ordering.
package sku

import "strings"

const (
	// MaxLineQuantity is the largest quantity one cart line may carry.
	MaxLineQuantity = 9999
	// MaxBatch is the most part numbers one catalog validation call accepts.
	MaxBatch = 1000
)

// Normalize uppercases s and keeps only A-Z, 0-9, '-' and '_'.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsCanonical reports whether s, once trimmed and uppercased, is already in
// normalized form. The catalog only stores canonical part numbers so every
// bulk-order lookup can reach them.
func IsCanonical(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s != "" && s == Normalize(s)
}
