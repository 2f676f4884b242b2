// =============================
// File: internal/engine/types.go
// =============================
package engine

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rvlabs/pumpfun-sniper/internal/chain"
)

// Side is the trade direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeIntent is a single-use request to build one trade. It is not carried
// across attempts; every attempt recomputes amounts from a fresh snapshot.
type TradeIntent struct {
	Mint solana.PublicKey
	Side Side

	// AmountSOL is the SOL to spend on the buy side.
	AmountSOL float64
	// TokenAmount is the decimal-adjusted token amount to sell on the sell side.
	TokenAmount float64

	PriorityFeeSOL float64
}

// SignedTrade is the fully-assembled, signed transaction artifact together
// with the figures recorded in the trade log. Ownership transfers to the
// caller for broadcast; the engine does not track its on-chain fate.
type SignedTrade struct {
	Raw    []byte
	Mint   solana.PublicKey
	Side   Side
	Price  float64
	Amount float64 // decimal-adjusted tokens
}

// ChainClient is the read/simulate surface the engine needs from an RPC
// client. Broadcast is deliberately absent: the caller submits.
type ChainClient interface {
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*chain.AccountInfo, error)
	GetMintDecimals(ctx context.Context, mint solana.PublicKey) (int, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*chain.SimulationResult, error)
}

var _ ChainClient = (*chain.Client)(nil)

// Clock abstracts time so retry delays can be simulated in tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RealClock returns a Clock backed by the system timer.
func RealClock() Clock { return realClock{} }
