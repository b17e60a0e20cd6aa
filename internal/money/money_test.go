package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStripsNonDigits(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"R$ 0,00", 0},
		{"12,34", 12.34},
		{"12.34", 12.34},
		{"R$ 1.234,56", 1234.56},
		{"abc", 0},
		{"1", 0.01},
		{"100", 1},
		// Fractional separators are discarded, not interpreted.
		{"12.345", 123.45},
		{"12,345", 123.45},
		// Signs are stripped like any other non-digit.
		{"-12,34", 12.34},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Parse(tc.in), "input %q", tc.in)
	}
}

func TestFormat(t *testing.T) {
	require.Equal(t, "R$ 0,00", Format(0))
	require.Equal(t, "R$ 12,34", Format(12.34))
	require.Equal(t, "R$ 1.234,56", Format(1234.56))
	require.Equal(t, "R$ 1.234.567,89", Format(1234567.89))
}

func TestRoundTrip(t *testing.T) {
	values := []float64{0, 0.01, 0.1, 1, 12.34, 76.923076, 96.15, 1234.56, 54321.09}
	for _, v := range values {
		require.Equal(t, Round2(v), Parse(Format(v)), "value %v", v)
	}
}

func TestRound2(t *testing.T) {
	require.Equal(t, 76.92, Round2(76.923076))
	require.Equal(t, 96.15, Round2(96.153846))
	require.Equal(t, 2.35, Round2(2.346))
	require.Equal(t, -2.35, Round2(-2.346))
}
