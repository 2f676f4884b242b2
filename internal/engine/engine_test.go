// =============================
// File: internal/engine/engine_test.go
// =============================
package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rvlabs/pumpfun-sniper/internal/chain"
	"github.com/rvlabs/pumpfun-sniper/internal/tradelog"
)

// memSink collects trade log entries in memory.
type memSink struct {
	entries []tradelog.Entry
	err     error
}

func (m *memSink) Insert(_ context.Context, entry tradelog.Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func newTestEngine(t *testing.T, stub *stubChain, sink tradelog.Sink, clock Clock) (*Engine, solana.PublicKey) {
	t.Helper()
	w := newTestWallet(t)
	fetcher := NewMarketFetcher(stub, clock, zap.NewNop())
	builder := NewBuilder(stub, w, fixedTagOptions(99), zap.NewNop())
	return New(fetcher, builder, sink, clock, zap.NewNop()), w.PublicKey
}

func TestEngine_SuccessWritesTradeLog(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	stub := newStubChain()
	sink := &memSink{}
	clock := newFakeClock()

	eng, owner := newTestEngine(t, stub, sink, clock)
	seedHealthy(t, stub, mint, owner, 1_000_000_000_000_000, 30_000_000_000, true)

	trade, err := eng.Execute(context.Background(), TradeIntent{
		Mint:           mint,
		Side:           SideBuy,
		AmountSOL:      0.05,
		PriorityFeeSOL: 0.000011,
	})
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.NotEmpty(t, trade.Raw)

	require.Len(t, sink.entries, 1)
	entry := sink.entries[0]
	assert.Equal(t, mint.String(), entry.Mint)
	assert.Equal(t, "BUY", entry.Side)
	assert.Nil(t, entry.Signature, "signature is unknown before broadcast")
	assert.Equal(t, clock.Now().UnixMilli(), entry.TimestampMs)
	assert.InEpsilon(t, trade.Price, entry.Price, 1e-12)

	assert.Empty(t, clock.sleeps)
}

func TestEngine_RetriesThenExhausts(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	stub := newStubChain()
	sink := &memSink{}
	clock := newFakeClock()

	eng, owner := newTestEngine(t, stub, sink, clock)
	seedHealthy(t, stub, mint, owner, 1_000_000_000_000_000, 30_000_000_000, true)
	// Every sell attempt fails in simulation, blocking all five attempts.
	stub.simResult = &chain.SimulationResult{
		Err:  map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
		Logs: []string{"Program log: slippage exceeded"},
	}

	_, err := eng.Execute(context.Background(), TradeIntent{
		Mint:           mint,
		Side:           SideSell,
		TokenAmount:    1_000_000,
		PriorityFeeSOL: 0.000011,
	})
	require.Error(t, err)

	var exhausted *BuildExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, DefaultMaxAttempts, exhausted.Attempts)

	var simErr *SimulationFailedError
	assert.ErrorAs(t, err, &simErr, "the last attempt's fault is preserved")

	assert.Equal(t, DefaultMaxAttempts, stub.simCalls)
	require.Len(t, clock.sleeps, DefaultMaxAttempts-1)
	for _, d := range clock.sleeps {
		assert.Equal(t, DefaultRetryDelay, d)
	}
	assert.Empty(t, sink.entries, "nothing is logged for failed builds")
}

func TestEngine_InsertFailureFailsAttempt(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	stub := newStubChain()
	sink := &memSink{err: errors.New("connection refused")}
	clock := newFakeClock()

	eng, owner := newTestEngine(t, stub, sink, clock)
	seedHealthy(t, stub, mint, owner, 1_000_000_000_000_000, 30_000_000_000, true)

	_, err := eng.Execute(context.Background(), TradeIntent{
		Mint:           mint,
		Side:           SideBuy,
		AmountSOL:      0.05,
		PriorityFeeSOL: 0.000011,
	})

	var exhausted *BuildExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.ErrorContains(t, err, "connection refused")
}

func TestEngine_ContextCancellationStopsRetries(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	stub := newStubChain()
	stub.decimalsErr = errors.New("rpc unavailable")
	clock := newFakeClock()

	eng, _ := newTestEngine(t, stub, &memSink{}, clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Execute(ctx, TradeIntent{Mint: mint, Side: SideBuy, AmountSOL: 0.05})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var exhausted *BuildExhaustedError
	assert.False(t, errors.As(err, &exhausted), "cancellation is not an exhaustion")
}
