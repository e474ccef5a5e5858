package convert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoolOld(t *testing.T) {
	require.Equal(t, "111111", FormatBool(true))
	require.Equal(t, "000000", FormatBool(false))

	v, err := ParseBool("111111")
	require.NoError(t, err)
	require.True(t, v)

	_, err = ParseBool("101010")
	require.Error(t, err)
}

func TestUintRange(t *testing.T) {
	s, err := FormatUint(1500)
	require.NoError(t, err)
	require.Equal(t, "001500", s)

	_, err = FormatUint(1000000)
	require.Error(t, err)
	_, err = FormatUint(-1)
	require.Error(t, err)

	v, err := ParseUint("001500")
	require.NoError(t, err)
	require.Equal(t, 1500, v)
}

func TestShortRange(t *testing.T) {
	s, err := FormatShort(42)
	require.NoError(t, err)
	require.Equal(t, "042", s)

	_, err = FormatShort(1000)
	require.Error(t, err)
}

func TestUReal(t *testing.T) {
	require.Equal(t, "002153", FormatUReal(21.53))

	v, err := ParseUReal("002153")
	require.NoError(t, err)
	require.InDelta(t, 21.53, v, 1e-9)
}

func TestExpo(t *testing.T) {
	// 5.2e-3 mbar: mantissa 5200, exponent -3 stored as 17.
	require.Equal(t, "520017", FormatExpo(5.2e-3))

	v, err := ParseExpo("520017")
	require.NoError(t, err)
	require.InDelta(t, 5.2e-3, v, 1e-12)

	// Zero maps to the smallest representable reading.
	require.Equal(t, "100000", FormatExpo(0))
	v, err = ParseExpo("100000")
	require.NoError(t, err)
	require.InDelta(t, 1e-20, v, 1e-30)

	// Rounding at the mantissa ceiling carries into the exponent.
	require.Equal(t, "100021", FormatExpo(9.9996))

	_, err = ParseExpo("12345")
	require.Error(t, err)
	_, err = ParseExpo("12x456")
	require.Error(t, err)
}

func TestStringPayload(t *testing.T) {
	require.Equal(t, "HiScro", FormatString("HiScroll12"))
	require.Equal(t, "abc   ", FormatString("abc"))
	require.Equal(t, "abc", ParseString("abc   "))
}
