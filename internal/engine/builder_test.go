// =============================
// File: internal/engine/builder_test.go
// =============================
package engine

import (
	"context"
	"encoding/binary"
	"strconv"
	"testing"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rvlabs/pumpfun-sniper/internal/chain"
	"github.com/rvlabs/pumpfun-sniper/internal/curve"
	"github.com/rvlabs/pumpfun-sniper/internal/units"
	"github.com/rvlabs/pumpfun-sniper/internal/wallet"
)

func newTestWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	pk, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := wallet.New(pk.String())
	require.NoError(t, err)
	return w
}

func newTestState(t *testing.T, mint, owner solana.PublicKey, ataExists bool) *MarketState {
	t.Helper()
	accounts, err := DeriveTradeAccounts(mint)
	require.NoError(t, err)
	userATA, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	return &MarketState{
		Snapshot: curve.ReserveSnapshot{
			TokenReserves: 1_000_000_000_000_000,
			SolReserves:   30_000_000_000,
			Decimals:      6,
		},
		ATAExists:              ataExists,
		BondingCurve:           accounts.BondingCurve,
		AssociatedBondingCurve: accounts.AssociatedBondingCurve,
		UserATA:                userATA,
	}
}

func fixedTagOptions(tag int) BuildOptions {
	opts := DefaultBuildOptions()
	opts.Tag = func() int { return tag }
	return opts
}

func decodeTrade(t *testing.T, trade *SignedTrade) *solana.Transaction {
	t.Helper()
	tx, err := solana.TransactionFromBytes(trade.Raw)
	require.NoError(t, err)
	return tx
}

func instructionProgram(t *testing.T, tx *solana.Transaction, i int) solana.PublicKey {
	t.Helper()
	ci := tx.Message.Instructions[i]
	require.Less(t, int(ci.ProgramIDIndex), len(tx.Message.AccountKeys))
	return tx.Message.AccountKeys[ci.ProgramIDIndex]
}

func instructionAccounts(t *testing.T, tx *solana.Transaction, i int) []solana.PublicKey {
	t.Helper()
	ci := tx.Message.Instructions[i]
	keys := make([]solana.PublicKey, 0, len(ci.Accounts))
	for _, idx := range ci.Accounts {
		require.Less(t, int(idx), len(tx.Message.AccountKeys))
		keys = append(keys, tx.Message.AccountKeys[idx])
	}
	return keys
}

func TestBuilder_BuyInstructionSequence(t *testing.T) {
	w := newTestWallet(t)
	mint := solana.NewWallet().PublicKey()
	state := newTestState(t, mint, w.PublicKey, false)
	stub := newStubChain()

	builder := NewBuilder(stub, w, fixedTagOptions(42), zap.NewNop())
	trade, err := builder.Build(context.Background(), TradeIntent{
		Mint:           mint,
		Side:           SideBuy,
		AmountSOL:      0.05,
		PriorityFeeSOL: 0.000011,
	}, state)
	require.NoError(t, err)
	require.Equal(t, SideBuy, trade.Side)

	tx := decodeTrade(t, trade)
	require.Len(t, tx.Message.Instructions, 5)

	// create ATA, buy, memo, compute-unit price, tip.
	assert.Equal(t, AssociatedTokenProgramID, instructionProgram(t, tx, 0))
	assert.Equal(t, PumpFunProgramID, instructionProgram(t, tx, 1))
	assert.Equal(t, MemoProgramID, instructionProgram(t, tx, 2))
	assert.Equal(t, computebudget.ProgramID, instructionProgram(t, tx, 3))
	assert.Equal(t, solana.SystemProgramID, instructionProgram(t, tx, 4))

	buyData := []byte(tx.Message.Instructions[1].Data)
	require.Len(t, buyData, 24)
	assert.Equal(t, buyDiscriminator, buyData[:8])

	expectedTokens, err := state.Snapshot.TokensForSOL(0.05)
	require.NoError(t, err)
	expectedTokensRaw, err := units.TokenToRaw(expectedTokens, state.Snapshot.Decimals)
	require.NoError(t, err)
	expectedMaxCostRaw, err := units.SOLToRaw(curve.MaxSOLCost(0.05))
	require.NoError(t, err)
	assert.Equal(t, expectedTokensRaw, binary.LittleEndian.Uint64(buyData[8:16]))
	assert.Equal(t, expectedMaxCostRaw, binary.LittleEndian.Uint64(buyData[16:24]))

	expectedKeys := []solana.PublicKey{
		PumpFunGlobalState,
		PumpFunFeeRecipient,
		mint,
		state.BondingCurve,
		state.AssociatedBondingCurve,
		state.UserATA,
		w.PublicKey,
		solana.SystemProgramID,
		solana.TokenProgramID,
		solana.SysVarRentPubkey,
		PumpFunEventAuthority,
		PumpFunProgramID,
	}
	assert.Equal(t, expectedKeys, instructionAccounts(t, tx, 1))

	assert.Equal(t, strconv.Itoa(42), string(tx.Message.Instructions[2].Data))

	tipData := []byte(tx.Message.Instructions[4].Data)
	require.Len(t, tipData, 12)
	assert.Equal(t, uint64(DefaultTipLamports), binary.LittleEndian.Uint64(tipData[4:12]))
	assert.Equal(t, []solana.PublicKey{w.PublicKey, TipRecipient}, instructionAccounts(t, tx, 4))

	assert.Equal(t, 0, stub.simCalls, "buys are not simulated by default")
}

func TestBuilder_SellInstructionSequence(t *testing.T) {
	w := newTestWallet(t)
	mint := solana.NewWallet().PublicKey()
	state := newTestState(t, mint, w.PublicKey, true)
	stub := newStubChain()

	builder := NewBuilder(stub, w, fixedTagOptions(7), zap.NewNop())
	trade, err := builder.Build(context.Background(), TradeIntent{
		Mint:           mint,
		Side:           SideSell,
		TokenAmount:    1_000_000,
		PriorityFeeSOL: 0.000011,
	}, state)
	require.NoError(t, err)

	tx := decodeTrade(t, trade)
	// No ATA creation when the account already exists; the sell instruction
	// comes last so the preceding memo and fee settings ride with it.
	require.Len(t, tx.Message.Instructions, 3)
	assert.Equal(t, MemoProgramID, instructionProgram(t, tx, 0))
	assert.Equal(t, computebudget.ProgramID, instructionProgram(t, tx, 1))
	assert.Equal(t, PumpFunProgramID, instructionProgram(t, tx, 2))

	sellData := []byte(tx.Message.Instructions[2].Data)
	require.Len(t, sellData, 24)
	assert.Equal(t, sellDiscriminator, sellData[:8])

	price, err := state.Snapshot.Price()
	require.NoError(t, err)
	expectedAmountRaw, err := units.TokenToRaw(1_000_000, state.Snapshot.Decimals)
	require.NoError(t, err)
	expectedMinProceedsRaw, err := units.SOLToRaw(curve.MinSOLProceeds(1_000_000, price))
	require.NoError(t, err)
	assert.Equal(t, expectedAmountRaw, binary.LittleEndian.Uint64(sellData[8:16]))
	assert.Equal(t, expectedMinProceedsRaw, binary.LittleEndian.Uint64(sellData[16:24]))

	assert.Equal(t, 1, stub.simCalls, "sells are simulated before return")
	assert.InEpsilon(t, price, trade.Price, 1e-12)
}

func TestBuilder_SellSimulationFailure(t *testing.T) {
	w := newTestWallet(t)
	mint := solana.NewWallet().PublicKey()
	state := newTestState(t, mint, w.PublicKey, true)
	stub := newStubChain()
	stub.simResult = &chain.SimulationResult{
		Err:  map[string]interface{}{"InstructionError": []interface{}{2, "Custom"}},
		Logs: []string{"Program log: insufficient funds"},
	}

	builder := NewBuilder(stub, w, fixedTagOptions(1), zap.NewNop())
	_, err := builder.Build(context.Background(), TradeIntent{
		Mint:           mint,
		Side:           SideSell,
		TokenAmount:    1_000_000,
		PriorityFeeSOL: 0.000011,
	}, state)

	var simErr *SimulationFailedError
	require.ErrorAs(t, err, &simErr)
	assert.Equal(t, mint, simErr.Mint)
	assert.NotEmpty(t, simErr.Logs)
}

func TestBuilder_RejectsUnknownSide(t *testing.T) {
	w := newTestWallet(t)
	mint := solana.NewWallet().PublicKey()
	state := newTestState(t, mint, w.PublicKey, true)

	builder := NewBuilder(newStubChain(), w, fixedTagOptions(1), zap.NewNop())
	_, err := builder.Build(context.Background(), TradeIntent{Mint: mint, Side: "HOLD"}, state)
	assert.Error(t, err)
}

func TestBuilder_RejectsZeroSellAmount(t *testing.T) {
	w := newTestWallet(t)
	mint := solana.NewWallet().PublicKey()
	state := newTestState(t, mint, w.PublicKey, true)

	builder := NewBuilder(newStubChain(), w, fixedTagOptions(1), zap.NewNop())
	_, err := builder.Build(context.Background(), TradeIntent{
		Mint:        mint,
		Side:        SideSell,
		TokenAmount: 0,
	}, state)
	assert.Error(t, err)
}
