package sku_test

import (
	"testing"

	"github.com/oemparts/storefront/services/common/sku"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"abc123":   "ABC123",
		" def-456": "DEF-456",
		"ab.123":   "AB123",
		"12 345/7": "123457",
		"x_y":      "X_Y",
		"...":      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, sku.Normalize(in), in)
	}
}

func TestIsCanonical(t *testing.T) {
	assert.True(t, sku.IsCanonical("ABC-123"))
	assert.True(t, sku.IsCanonical(" abc_123 "))
	assert.False(t, sku.IsCanonical("AB.123"))
	assert.False(t, sku.IsCanonical("12 345/7"))
	assert.False(t, sku.IsCanonical("  "))
}
