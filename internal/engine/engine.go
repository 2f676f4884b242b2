// =============================
// File: internal/engine/engine.go
// =============================

// Package engine builds and signs Pump.fun bonding-curve trades: it fetches
// market state, derives price and slippage limits, assembles the instruction
// sequence, and drives the whole flow through a bounded retry loop. Broadcast
// of the returned artifact is the caller's responsibility.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rvlabs/pumpfun-sniper/internal/tradelog"
)

// Attempt states of the build loop.
type State string

const (
	StateAttempting State = "attempting"
	StateRetrying   State = "retrying"
	StateSucceeded  State = "succeeded"
	StateExhausted  State = "exhausted"
)

const (
	// DefaultMaxAttempts is the outer retry ceiling.
	DefaultMaxAttempts = 5
	// DefaultRetryDelay is the fixed pause between attempts.
	DefaultRetryDelay = 2500 * time.Millisecond
)

// Engine is the submission/retry orchestrator. Each invocation owns its own
// snapshot and intent; concurrent trades on different mints share nothing.
type Engine struct {
	fetcher *MarketFetcher
	builder *Builder
	trades  tradelog.Sink
	clock   Clock
	logger  *zap.Logger

	maxAttempts int
	retryDelay  time.Duration
}

// New creates an engine with the default retry policy. A nil clock selects
// the system timer; a nil sink discards trade logs.
func New(fetcher *MarketFetcher, builder *Builder, trades tradelog.Sink, clock Clock, logger *zap.Logger) *Engine {
	if clock == nil {
		clock = RealClock()
	}
	if trades == nil {
		trades = tradelog.Noop{}
	}
	return &Engine{
		fetcher:     fetcher,
		builder:     builder,
		trades:      trades,
		clock:       clock,
		logger:      logger.Named("engine"),
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
}

// Execute drives fetch → price → build through up to maxAttempts attempts.
// Faults inside an attempt are logged and retried after a fixed delay; only
// after the ceiling is reached does the caller see a terminal
// BuildExhaustedError. On success the trade log entry is written (awaited)
// before the signed artifact is returned.
func (e *Engine) Execute(ctx context.Context, intent TradeIntent) (*SignedTrade, error) {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		e.logger.Info("Attempting trade build",
			zap.String("state", string(StateAttempting)),
			zap.String("mint", intent.Mint.String()),
			zap.String("side", string(intent.Side)),
			zap.Int("attempt", attempt))

		trade, err := e.attempt(ctx, intent)
		if err == nil {
			e.logger.Info("Trade build succeeded",
				zap.String("state", string(StateSucceeded)),
				zap.String("mint", intent.Mint.String()),
				zap.Float64("price", trade.Price),
				zap.Float64("token_amount", trade.Amount))
			return trade, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		e.logger.Warn("Trade build attempt failed",
			zap.String("state", string(StateRetrying)),
			zap.String("mint", intent.Mint.String()),
			zap.Int("attempt", attempt),
			zap.Time("at", e.clock.Now()),
			zap.Error(err))

		if attempt == e.maxAttempts {
			break
		}
		if err := e.clock.Sleep(ctx, e.retryDelay); err != nil {
			return nil, err
		}
	}

	e.logger.Error("Trade build exhausted",
		zap.String("state", string(StateExhausted)),
		zap.String("mint", intent.Mint.String()),
		zap.Int("attempts", e.maxAttempts),
		zap.Error(lastErr))

	return nil, &BuildExhaustedError{Mint: intent.Mint, Attempts: e.maxAttempts, LastErr: lastErr}
}

// attempt runs one fetch-and-build cycle and records the trade log entry on
// success. The entry carries no signature: broadcast happens after return.
func (e *Engine) attempt(ctx context.Context, intent TradeIntent) (*SignedTrade, error) {
	state, err := e.fetcher.Fetch(ctx, intent.Mint, e.builder.wallet.PublicKey)
	if err != nil {
		return nil, err
	}

	trade, err := e.builder.Build(ctx, intent, state)
	if err != nil {
		return nil, err
	}

	entry := tradelog.Entry{
		Mint:        trade.Mint.String(),
		Side:        string(trade.Side),
		Price:       trade.Price,
		Amount:      trade.Amount,
		Signature:   nil,
		TimestampMs: e.clock.Now().UnixMilli(),
	}
	if err := e.trades.Insert(ctx, entry); err != nil {
		return nil, err
	}

	return trade, nil
}
