// =============================
// File: internal/engine/instructions.go
// =============================
package engine

import (
	"encoding/binary"
	"strconv"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
)

// Anchor instruction discriminators for the Pump.fun program.
var (
	buyDiscriminator  = []byte{0x66, 0x06, 0x3d, 0x12, 0x01, 0xda, 0xeb, 0xea}
	sellDiscriminator = []byte{0x33, 0xe6, 0x85, 0xa4, 0x01, 0x7f, 0x83, 0xad}
)

// encodeTradeData packs a discriminator followed by two little-endian u64
// arguments, matching the program's wire format.
func encodeTradeData(discriminator []byte, amountRaw, limitRaw uint64) []byte {
	data := make([]byte, len(discriminator), len(discriminator)+16)
	copy(data, discriminator)

	amountBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(amountBytes, amountRaw)
	data = append(data, amountBytes...)

	limitBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(limitBytes, limitRaw)
	data = append(data, limitBytes...)

	return data
}

// buyInstruction builds buy(tokenAmountRaw, maxSolCostRaw). The account list
// must be in the exact order expected by the program.
func buyInstruction(accounts TradeAccounts, user, userATA solana.PublicKey, tokenAmountRaw, maxSolCostRaw uint64) solana.Instruction {
	data := encodeTradeData(buyDiscriminator, tokenAmountRaw, maxSolCostRaw)

	metas := []*solana.AccountMeta{
		{PublicKey: PumpFunGlobalState, IsSigner: false, IsWritable: false},
		{PublicKey: PumpFunFeeRecipient, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.Mint, IsSigner: false, IsWritable: false},
		{PublicKey: accounts.BondingCurve, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.AssociatedBondingCurve, IsSigner: false, IsWritable: true},
		{PublicKey: userATA, IsSigner: false, IsWritable: true},
		{PublicKey: user, IsSigner: true, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SysVarRentPubkey, IsSigner: false, IsWritable: false},
		{PublicKey: PumpFunEventAuthority, IsSigner: false, IsWritable: false},
		{PublicKey: PumpFunProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(PumpFunProgramID, metas, data)
}

// sellInstruction builds sell(tokenAmountRaw, minSolProceedsRaw).
func sellInstruction(accounts TradeAccounts, user, userATA solana.PublicKey, tokenAmountRaw, minSolProceedsRaw uint64) solana.Instruction {
	data := encodeTradeData(sellDiscriminator, tokenAmountRaw, minSolProceedsRaw)

	metas := []*solana.AccountMeta{
		{PublicKey: PumpFunGlobalState, IsSigner: false, IsWritable: false},
		{PublicKey: PumpFunFeeRecipient, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.Mint, IsSigner: false, IsWritable: false},
		{PublicKey: accounts.BondingCurve, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.AssociatedBondingCurve, IsSigner: false, IsWritable: true},
		{PublicKey: userATA, IsSigner: false, IsWritable: true},
		{PublicKey: user, IsSigner: true, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: AssociatedTokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: PumpFunEventAuthority, IsSigner: false, IsWritable: false},
		{PublicKey: PumpFunProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(PumpFunProgramID, metas, data)
}

// createATAInstruction creates the user's associated token account.
func createATAInstruction(payer, ata, owner, mint solana.PublicKey) solana.Instruction {
	metas := []*solana.AccountMeta{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: false, IsWritable: false},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: AssociatedTokenProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(AssociatedTokenProgramID, metas, []byte{})
}

// memoInstruction carries an anti-collision tag so otherwise-identical
// transactions against the same blockhash still produce distinct signatures.
func memoInstruction(tag int) solana.Instruction {
	return solana.NewInstruction(
		MemoProgramID,
		[]*solana.AccountMeta{},
		[]byte(strconv.Itoa(tag)),
	)
}

// priorityFeeInstruction sets the compute-unit price in micro-lamports.
func priorityFeeInstruction(microLamports uint64) solana.Instruction {
	return computebudget.NewSetComputeUnitPriceInstruction(microLamports).Build()
}

// tipInstruction is the flat buy-path transfer to the relay address.
func tipInstruction(from solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewTransferInstruction(lamports, from, TipRecipient).Build()
}
