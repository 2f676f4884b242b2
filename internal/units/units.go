// =============================
// File: internal/units/units.go
// =============================
package units

import (
	"fmt"
	"math"
)

// LamportsPerSOL is the fixed subunit exponent of the native currency.
const LamportsPerSOL = 1_000_000_000

// RawToToken converts a raw on-chain token amount to its decimal-adjusted value.
func RawToToken(raw uint64, decimals int) (float64, error) {
	if decimals < 0 {
		return 0, fmt.Errorf("invalid decimals: %d", decimals)
	}
	return float64(raw) / math.Pow10(decimals), nil
}

// TokenToRaw converts a decimal-adjusted token amount back to raw units,
// rounding to the nearest integer. On-chain instructions accept only integers.
func TokenToRaw(amount float64, decimals int) (uint64, error) {
	if decimals < 0 {
		return 0, fmt.Errorf("invalid decimals: %d", decimals)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("non-finite token amount: %f", amount)
	}
	if amount < 0 {
		return 0, fmt.Errorf("negative token amount: %f", amount)
	}
	return uint64(math.Round(amount * math.Pow10(decimals))), nil
}

// RawToSOL converts lamports to whole SOL.
func RawToSOL(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSOL
}

// SOLToRaw converts whole SOL to lamports, rounding to the nearest integer.
func SOLToRaw(sol float64) (uint64, error) {
	if math.IsNaN(sol) || math.IsInf(sol, 0) {
		return 0, fmt.Errorf("non-finite SOL amount: %f", sol)
	}
	if sol < 0 {
		return 0, fmt.Errorf("negative SOL amount: %f", sol)
	}
	return uint64(math.Round(sol * LamportsPerSOL)), nil
}
