package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount(" 100.5 ", 6)
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.RequireFromString("100.5")))

	v, err = ParseAmount("0.000001", 6)
	require.NoError(t, err)
	assert.Equal(t, "0.000001", v.String())

	_, err = ParseAmount("0.0000001", 6)
	assert.ErrorIs(t, err, ErrTooManyDecimal)

	for _, bad := range []string{"", "abc", "0", "-5", "1e"} {
		_, err = ParseAmount(bad, 6)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}
