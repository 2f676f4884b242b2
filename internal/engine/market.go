// =============================
// File: internal/engine/market.go
// =============================
package engine

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rvlabs/pumpfun-sniper/internal/chain"
	"github.com/rvlabs/pumpfun-sniper/internal/curve"
)

const (
	// DefaultFetchAttempts is the total number of tries the fetcher makes
	// before giving up (1 initial + 4 retries).
	DefaultFetchAttempts = 5
	// DefaultFetchDelay is the fixed pause between fetch attempts.
	DefaultFetchDelay = 2500 * time.Millisecond
)

// MarketState is everything the builder needs that lives on chain: a reserve
// snapshot, mint decimals, and whether the destination token account already
// exists.
type MarketState struct {
	Snapshot               curve.ReserveSnapshot
	ATAExists              bool
	BondingCurve           solana.PublicKey
	AssociatedBondingCurve solana.PublicKey
	UserATA                solana.PublicKey
}

// MarketFetcher assembles a consistent MarketState from three concurrent
// remote reads, retrying only the reads that are still unresolved.
type MarketFetcher struct {
	chain       ChainClient
	clock       Clock
	logger      *zap.Logger
	maxAttempts int
	retryDelay  time.Duration
}

// NewMarketFetcher creates a fetcher with the default retry policy.
func NewMarketFetcher(chainClient ChainClient, clock Clock, logger *zap.Logger) *MarketFetcher {
	if clock == nil {
		clock = RealClock()
	}
	return &MarketFetcher{
		chain:       chainClient,
		clock:       clock,
		logger:      logger.Named("market"),
		maxAttempts: DefaultFetchAttempts,
		retryDelay:  DefaultFetchDelay,
	}
}

// Bonding curve account layout: 8-byte Anchor discriminator, then
// virtual_token_reserves u64 and virtual_sol_reserves u64, little-endian.
const bondingCurveMinLen = 24

func decodeReserves(data []byte) (tokenReserves, solReserves uint64, err error) {
	if len(data) < bondingCurveMinLen {
		return 0, 0, fmt.Errorf("invalid bonding curve data: %d bytes", len(data))
	}
	tokenReserves = binary.LittleEndian.Uint64(data[8:16])
	solReserves = binary.LittleEndian.Uint64(data[16:24])
	return tokenReserves, solReserves, nil
}

// fetchProgress tracks which of the three reads have resolved so that a
// retry re-issues only what is still missing. Progress lives for one Fetch
// call and is discarded when it returns.
type fetchProgress struct {
	curveDone    bool
	decimalsDone bool
	probeDone    bool

	tokenReserves uint64
	solReserves   uint64
	decimals      int
	ataExists     bool
}

func (p *fetchProgress) complete() bool {
	return p.curveDone && p.decimalsDone && p.probeDone
}

// Fetch performs the parallel reads for a trade on mint owned by owner. On a
// partial failure it waits the fixed delay and retries the unresolved subset,
// up to the attempt ceiling, then signals MarketStateUnavailableError.
func (f *MarketFetcher) Fetch(ctx context.Context, mint, owner solana.PublicKey) (*MarketState, error) {
	accounts, err := DeriveTradeAccounts(mint)
	if err != nil {
		return nil, err
	}
	userATA, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive associated token account: %w", err)
	}

	progress := &fetchProgress{}
	attempt := 0
	for attempt = 1; attempt <= f.maxAttempts; attempt++ {
		f.runReads(ctx, accounts.BondingCurve, mint, userATA, progress)

		if progress.complete() {
			return &MarketState{
				Snapshot: curve.ReserveSnapshot{
					TokenReserves: progress.tokenReserves,
					SolReserves:   progress.solReserves,
					Decimals:      progress.decimals,
				},
				ATAExists:              progress.ataExists,
				BondingCurve:           accounts.BondingCurve,
				AssociatedBondingCurve: accounts.AssociatedBondingCurve,
				UserATA:                userATA,
			}, nil
		}

		f.logger.Warn("Failed to assemble market state",
			zap.String("mint", mint.String()),
			zap.Int("attempt", attempt),
			zap.Bool("curve_resolved", progress.curveDone),
			zap.Bool("decimals_resolved", progress.decimalsDone),
			zap.Bool("ata_probe_resolved", progress.probeDone),
			zap.Time("at", f.clock.Now()))

		if attempt == f.maxAttempts {
			break
		}
		if err := f.clock.Sleep(ctx, f.retryDelay); err != nil {
			return nil, err
		}
	}

	return nil, &MarketStateUnavailableError{
		Mint:     mint,
		Attempts: f.maxAttempts,
		At:       f.clock.Now(),
	}
}

// runReads issues the still-unresolved reads concurrently and records their
// results. A failing read does not cancel the others already in flight.
func (f *MarketFetcher) runReads(ctx context.Context, bondingCurve, mint, userATA solana.PublicKey, p *fetchProgress) {
	g := &errgroup.Group{}

	if !p.curveDone {
		g.Go(func() error {
			info, err := f.chain.GetAccountInfo(ctx, bondingCurve)
			if err != nil {
				f.logger.Debug("Bonding curve read failed", zap.Error(err))
				return nil
			}
			tokenReserves, solReserves, err := decodeReserves(info.Data)
			if err != nil {
				f.logger.Debug("Bonding curve decode failed", zap.Error(err))
				return nil
			}
			// Zero token reserves mean the price is undefined; treat the
			// read as unresolved so a fresher snapshot is fetched.
			if tokenReserves == 0 {
				f.logger.Debug("Bonding curve has zero token reserves",
					zap.String("bonding_curve", bondingCurve.String()))
				return nil
			}
			p.tokenReserves = tokenReserves
			p.solReserves = solReserves
			p.curveDone = true
			return nil
		})
	}

	if !p.decimalsDone {
		g.Go(func() error {
			decimals, err := f.chain.GetMintDecimals(ctx, mint)
			if err != nil {
				f.logger.Debug("Mint metadata read failed", zap.Error(err))
				return nil
			}
			p.decimals = decimals
			p.decimalsDone = true
			return nil
		})
	}

	if !p.probeDone {
		g.Go(func() error {
			_, err := f.chain.GetAccountInfo(ctx, userATA)
			switch {
			case err == nil:
				p.ataExists = true
				p.probeDone = true
			case errors.Is(err, chain.ErrAccountNotFound):
				p.ataExists = false
				p.probeDone = true
			default:
				f.logger.Debug("ATA existence probe failed", zap.Error(err))
			}
			return nil
		})
	}

	// Goroutines only log failures, so the join never returns an error; the
	// progress flags decide whether the attempt counts as failed.
	_ = g.Wait()
}
