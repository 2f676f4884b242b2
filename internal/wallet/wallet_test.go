// =============================
// File: internal/wallet/wallet_test.go
// =============================
package wallet

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	pk, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	w, err := New(pk.String())
	require.NoError(t, err)
	assert.Equal(t, pk.PublicKey(), w.PublicKey)
	assert.Equal(t, pk.PublicKey().String(), w.String())
}

func TestNew_RejectsBadKeys(t *testing.T) {
	_, err := New("not-base58-0OIl")
	assert.Error(t, err)

	// Valid base58 but wrong length.
	_, err = New("3yZe7d")
	assert.Error(t, err)
}

func TestFromProvider(t *testing.T) {
	pk, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	secrets := StaticSecrets{"trader_keypair": pk.String()}

	w, err := FromProvider(secrets, "trader_keypair")
	require.NoError(t, err)
	assert.Equal(t, pk.PublicKey(), w.PublicKey)

	_, err = FromProvider(secrets, "missing")
	assert.Error(t, err)
}

func TestSignTransaction(t *testing.T) {
	pk, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := New(pk.String())
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(
			solana.MemoProgramID,
			[]*solana.AccountMeta{{PublicKey: w.PublicKey, IsSigner: true, IsWritable: true}},
			[]byte("ping"),
		)},
		solana.Hash{1},
		solana.TransactionPayer(w.PublicKey),
	)
	require.NoError(t, err)

	require.NoError(t, w.SignTransaction(tx))
	require.Len(t, tx.Signatures, 1)
	assert.NoError(t, tx.VerifySignatures())
}

func TestGetATA_Caches(t *testing.T) {
	pk, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := New(pk.String())
	require.NoError(t, err)

	mint := solana.NewWallet().PublicKey()
	first, err := w.GetATA(mint)
	require.NoError(t, err)

	expected, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, first)

	second, err := w.GetATA(mint)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
