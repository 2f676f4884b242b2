// =============================
// File: internal/curve/curve_test.go
// =============================
package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvlabs/pumpfun-sniper/internal/units"
)

func TestPriceMatchesReserveRatio(t *testing.T) {
	snap := ReserveSnapshot{
		TokenReserves: 1_073_000_000_000_000, // 1.073B tokens at 6 decimals
		SolReserves:   30_000_000_000,        // 30 SOL
		Decimals:      6,
	}

	price, err := snap.Price()
	require.NoError(t, err)

	adjustedTokens, err := units.RawToToken(snap.TokenReserves, snap.Decimals)
	require.NoError(t, err)
	expected := units.RawToSOL(snap.SolReserves) / adjustedTokens

	assert.InDelta(t, expected, price, 1e-18)
	assert.Greater(t, price, 0.0)
}

func TestPriceFailsOnZeroReserves(t *testing.T) {
	cases := []struct {
		name string
		snap ReserveSnapshot
	}{
		{"zero token reserves", ReserveSnapshot{TokenReserves: 0, SolReserves: 1_000_000, Decimals: 6}},
		{"zero sol reserves", ReserveSnapshot{TokenReserves: 1_000_000, SolReserves: 0, Decimals: 6}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.snap.Price()
			assert.ErrorIs(t, err, ErrInvalidReserves)
		})
	}
}

func TestPriceFailsOnUnresolvedDecimals(t *testing.T) {
	snap := ReserveSnapshot{TokenReserves: 1_000_000, SolReserves: 1_000_000, Decimals: -1}
	_, err := snap.Price()
	assert.ErrorIs(t, err, ErrInvalidDecimals)
}

func TestBuyEstimate(t *testing.T) {
	snap := ReserveSnapshot{
		TokenReserves: 1_000_000_000_000,
		SolReserves:   10_000_000_000,
		Decimals:      6,
	}

	price, err := snap.Price()
	require.NoError(t, err)

	tokens, err := snap.TokensForSOL(0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0.05/price, tokens, 1e-9)

	_, err = snap.TokensForSOL(0)
	assert.Error(t, err)
}

func TestSlippageBounds(t *testing.T) {
	assert.InDelta(t, 0.003*1.51, MaxSOLCost(0.003), 1e-15)
	assert.InDelta(t, 1071707.852766*0.0000000466*0.95, MinSOLProceeds(1071707.852766, 0.0000000466), 1e-12)
}
