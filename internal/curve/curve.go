// =============================
// File: internal/curve/curve.go
// =============================

// Package curve derives spot prices and slippage-bounded trade limits from a
// point-in-time snapshot of a Pump.fun bonding curve's virtual reserves.
package curve

import (
	"errors"
	"fmt"

	"github.com/rvlabs/pumpfun-sniper/internal/units"
)

var (
	// ErrInvalidReserves is returned when a snapshot carries zero or otherwise
	// unusable reserve values. A zero token reserve means the price is
	// undefined, never Inf or NaN.
	ErrInvalidReserves = errors.New("bonding curve has invalid reserves")

	// ErrInvalidDecimals is returned when mint decimals could not be resolved.
	ErrInvalidDecimals = errors.New("mint decimals unresolved")
)

// Slippage margins applied on top of the linear spot-price estimate. The
// estimate ignores the trade's own price impact, so the buy side tolerates
// cost up to 1.51x the naive figure and the sell side accepts proceeds down
// to 0.95x of it.
const (
	BuySlippageFactor  = 1.51
	SellSlippageFactor = 0.95
)

// ReserveSnapshot is an immutable point-in-time read of both sides of the
// bonding curve. A retry always captures a fresh snapshot instead of mutating
// an old one.
type ReserveSnapshot struct {
	TokenReserves uint64 // raw units, mint decimals apply
	SolReserves   uint64 // lamports
	Decimals      int    // mint decimals, -1 if unresolved
}

// Price returns the spot price in SOL per token:
// (solReserves / 1e9) / (tokenReserves / 10^decimals).
func (s ReserveSnapshot) Price() (float64, error) {
	if s.Decimals < 0 {
		return 0, ErrInvalidDecimals
	}
	if s.TokenReserves == 0 || s.SolReserves == 0 {
		return 0, fmt.Errorf("%w: token=%d sol=%d", ErrInvalidReserves, s.TokenReserves, s.SolReserves)
	}

	adjustedSol := units.RawToSOL(s.SolReserves)
	adjustedTokens, err := units.RawToToken(s.TokenReserves, s.Decimals)
	if err != nil {
		return 0, err
	}
	return adjustedSol / adjustedTokens, nil
}

// TokensForSOL estimates how many tokens a given SOL spend buys at the
// current spot price. This is a linearized estimate, not the integral of the
// curve; callers pair it with MaxSOLCost to absorb the approximation error.
func (s ReserveSnapshot) TokensForSOL(amountSOL float64) (float64, error) {
	if amountSOL <= 0 {
		return 0, fmt.Errorf("buy amount must be positive, got %f", amountSOL)
	}
	price, err := s.Price()
	if err != nil {
		return 0, err
	}
	return amountSOL / price, nil
}

// SOLForTokens estimates the SOL proceeds of selling tokenAmount at the
// current spot price.
func (s ReserveSnapshot) SOLForTokens(tokenAmount float64) (float64, error) {
	if tokenAmount <= 0 {
		return 0, fmt.Errorf("sell amount must be positive, got %f", tokenAmount)
	}
	price, err := s.Price()
	if err != nil {
		return 0, err
	}
	return tokenAmount * price, nil
}

// MaxSOLCost returns the buy-side cost ceiling for a requested SOL spend.
func MaxSOLCost(amountSOL float64) float64 {
	return amountSOL * BuySlippageFactor
}

// MinSOLProceeds returns the sell-side proceeds floor for a token amount at
// the given spot price.
func MinSOLProceeds(tokenAmount, price float64) float64 {
	return tokenAmount * price * SellSlippageFactor
}
