package amount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDisplay(t *testing.T) {
	tests := []struct {
		atomic    string
		precision uint32
		expected  string
	}{
		{"5000000000000000000", 18, "5"},
		{"1", 18, "0.000000000000000001"},
		{"1500000", 6, "1.5"},
		{"42", 0, "42"},
		{"0", 18, "0"},
	}

	for _, tt := range tests {
		display, err := ToDisplay(tt.atomic, tt.precision)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, display.String())
	}
}

func TestToDisplayInvalidAmount(t *testing.T) {
	_, err := ToDisplay("not-a-number", 18)
	require.Error(t, err)

	_, err = ToDisplay("1.5", 18)
	require.Error(t, err)
}

func TestToAtomic(t *testing.T) {
	tests := []struct {
		display   string
		precision uint32
		expected  string
	}{
		{"5", 18, "5000000000000000000"},
		{"1.5", 6, "1500000"},
		{"0.0000001", 6, "0"},
		{"1.9999999", 6, "1999999"},
		{"42", 0, "42"},
	}

	for _, tt := range tests {
		display, err := decimal.NewFromString(tt.display)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, ToAtomic(display, tt.precision))
	}
}
