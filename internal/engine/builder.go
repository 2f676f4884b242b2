// =============================
// File: internal/engine/builder.go
// =============================
package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rvlabs/pumpfun-sniper/internal/curve"
	"github.com/rvlabs/pumpfun-sniper/internal/units"
	"github.com/rvlabs/pumpfun-sniper/internal/wallet"
)

// DefaultTipLamports is the flat relay tip attached to buy transactions.
const DefaultTipLamports = 1_000_000 // 0.001 SOL

// BuildOptions control the parts of assembly that vary per deployment.
type BuildOptions struct {
	// SimulateBuy and SimulateSell gate the pre-return dry run per side.
	// The observed production behavior simulates sells only; the asymmetry
	// is kept as the default but is an explicit choice here.
	SimulateBuy  bool
	SimulateSell bool

	// TipLamports is the buy-path relay transfer; zero disables it.
	TipLamports uint64

	// Tag produces the anti-collision memo tag, uniform in [1, 5000].
	// Injectable for deterministic tests.
	Tag func() int
}

// DefaultBuildOptions matches the observed production behavior.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		SimulateBuy:  false,
		SimulateSell: true,
		TipLamports:  DefaultTipLamports,
		Tag:          func() int { return rand.Intn(5000) + 1 },
	}
}

// Builder assembles, signs, and (on the sell path) simulates trade
// transactions. Key material is borrowed from the wallet only for the
// duration of a Build call.
type Builder struct {
	chain  ChainClient
	wallet *wallet.Wallet
	opts   BuildOptions
	logger *zap.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(chainClient ChainClient, w *wallet.Wallet, opts BuildOptions, logger *zap.Logger) *Builder {
	if opts.Tag == nil {
		opts.Tag = DefaultBuildOptions().Tag
	}
	return &Builder{
		chain:  chainClient,
		wallet: w,
		opts:   opts,
		logger: logger.Named("builder"),
	}
}

// Build turns a TradeIntent plus fetched market state into a signed,
// serialized transaction. Each call fetches a fresh blockhash; a stale
// reference would be rejected on broadcast.
func (b *Builder) Build(ctx context.Context, intent TradeIntent, state *MarketState) (*SignedTrade, error) {
	price, err := state.Snapshot.Price()
	if err != nil {
		return nil, err
	}

	accounts := TradeAccounts{
		Mint:                   intent.Mint,
		BondingCurve:           state.BondingCurve,
		AssociatedBondingCurve: state.AssociatedBondingCurve,
	}

	priorityFee, err := units.SOLToRaw(intent.PriorityFeeSOL)
	if err != nil {
		return nil, fmt.Errorf("invalid priority fee: %w", err)
	}

	var instructions []solana.Instruction
	if !state.ATAExists {
		instructions = append(instructions,
			createATAInstruction(b.wallet.PublicKey, state.UserATA, b.wallet.PublicKey, intent.Mint))
	}

	var tokenAmount float64
	switch intent.Side {
	case SideBuy:
		tokenAmount, err = state.Snapshot.TokensForSOL(intent.AmountSOL)
		if err != nil {
			return nil, err
		}
		if tokenAmount <= 0 || math.IsNaN(tokenAmount) || math.IsInf(tokenAmount, 0) {
			return nil, fmt.Errorf("failed to compute token amount for %s", intent.Mint)
		}
		tokenAmountRaw, err := units.TokenToRaw(tokenAmount, state.Snapshot.Decimals)
		if err != nil {
			return nil, err
		}
		maxCostRaw, err := units.SOLToRaw(curve.MaxSOLCost(intent.AmountSOL))
		if err != nil {
			return nil, err
		}

		instructions = append(instructions,
			buyInstruction(accounts, b.wallet.PublicKey, state.UserATA, tokenAmountRaw, maxCostRaw),
			memoInstruction(b.opts.Tag()),
			priorityFeeInstruction(priorityFee),
		)
		if b.opts.TipLamports > 0 {
			instructions = append(instructions, tipInstruction(b.wallet.PublicKey, b.opts.TipLamports))
		}

	case SideSell:
		tokenAmount = intent.TokenAmount
		tokenAmountRaw, err := units.TokenToRaw(tokenAmount, state.Snapshot.Decimals)
		if err != nil {
			return nil, err
		}
		if tokenAmountRaw == 0 {
			return nil, fmt.Errorf("sell amount rounds to zero for %s", intent.Mint)
		}
		minProceedsRaw, err := units.SOLToRaw(curve.MinSOLProceeds(tokenAmount, price))
		if err != nil {
			return nil, err
		}

		instructions = append(instructions,
			memoInstruction(b.opts.Tag()),
			priorityFeeInstruction(priorityFee),
			sellInstruction(accounts, b.wallet.PublicKey, state.UserATA, tokenAmountRaw, minProceedsRaw),
		)

	default:
		return nil, fmt.Errorf("unknown trade side %q", intent.Side)
	}

	blockhash, err := b.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(b.wallet.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if err := b.wallet.SignTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if b.shouldSimulate(intent.Side) {
		sim, err := b.chain.SimulateTransaction(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("simulation request failed: %w", err)
		}
		if sim.Err != nil {
			return nil, &SimulationFailedError{Mint: intent.Mint, Reason: sim.Err, Logs: sim.Logs}
		}
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	b.logger.Debug("Built trade transaction",
		zap.String("mint", intent.Mint.String()),
		zap.String("side", string(intent.Side)),
		zap.Float64("price", price),
		zap.Float64("token_amount", tokenAmount),
		zap.Int("num_instructions", len(instructions)))

	return &SignedTrade{
		Raw:    raw,
		Mint:   intent.Mint,
		Side:   intent.Side,
		Price:  price,
		Amount: tokenAmount,
	}, nil
}

func (b *Builder) shouldSimulate(side Side) bool {
	if side == SideSell {
		return b.opts.SimulateSell
	}
	return b.opts.SimulateBuy
}
