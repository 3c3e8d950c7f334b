package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MRAlirad/fundme-go/types"
)

func TestParseEther(t *testing.T) {
	cases := map[string]string{
		"1":                    "1000000000000000000",
		"0.1":                  "100000000000000000",
		" 2.5 ":                "2500000000000000000",
		"0":                    "0",
		"0.000000000000000001": "1",
		"1234.5678":            "1234567800000000000000",
	}
	for in, want := range cases {
		got, err := ParseEther(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got.String(), in)
	}
}

func TestParseEtherRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "-1", "0.0000000000000000001", "1e"} {
		_, err := ParseEther(in)
		require.ErrorIs(t, err, types.ErrInvalidAmount, in)
	}
}

func TestFormatEther(t *testing.T) {
	wei, ok := new(big.Int).SetString("1500000000000000000", 10)
	require.True(t, ok)
	require.Equal(t, "1.5", FormatEther(wei))
	require.Equal(t, "0", FormatEther(nil))
	require.Equal(t, "0", FormatEther(big.NewInt(0)))
	require.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
}

func TestUnitsRoundTripCustomDecimals(t *testing.T) {
	v, err := ParseUnits("12.34", 6)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(12_340_000), v)
	require.Equal(t, "12.34", FormatUnits(v, 6))

	_, err = ParseUnits("1", -1)
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}
