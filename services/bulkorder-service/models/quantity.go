package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/oemparts/storefront/services/common/sku"
)

// MaxQuantity is the cart's per-line limit. The parser drops larger lines
// and edits are clamped to it.
const MaxQuantity = sku.MaxLineQuantity

// NormalizeSKU uppercases s and keeps only A-Z, 0-9, '-' and '_'.
func NormalizeSKU(s string) string {
	return sku.Normalize(s)
}

// ClampQuantity forces q into 1..MaxQuantity.
func ClampQuantity(q int) int {
	switch {
	case q < 1:
		return 1
	case q > MaxQuantity:
		return MaxQuantity
	}
	return q
}

// CoerceQuantity turns a manually entered quantity into a positive integer.
// Non-numeric input becomes 1; fractional input is truncated.
func CoerceQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return ClampQuantity(n)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		if f > MaxQuantity {
			return MaxQuantity
		}
		return ClampQuantity(int(f))
	}
	return 1
}

// FlexQuantity accepts a JSON number or string and coerces it with
// CoerceQuantity, so an edit can never store zero or a negative quantity.
type FlexQuantity int

func (q *FlexQuantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = 1
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	*q = FlexQuantity(CoerceQuantity(s))
	return nil
}
