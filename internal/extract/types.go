// =============================
// File: internal/extract/types.go
// =============================
package extract

// WrappedSOLMint is the native-currency wrapper mint, excluded when scanning
// for the traded token.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// ExtractedTrade is the structured record recovered from a confirmed
// transaction's balance deltas. IsBuy and IsSell are mutually exclusive;
// both false means the direction could not be determined.
type ExtractedTrade struct {
	TokenMint   string
	SolAmount   float64
	TokenAmount float64
	IsBuy       bool
	IsSell      bool
	Price       float64
}

// DirectionalPrice is the price view of a transaction when the caller
// already knows the trade direction.
type DirectionalPrice struct {
	TokenMint     string
	SolAmount     float64
	TokenAmount   float64
	PricePerToken float64
}

// WebhookTransaction is the notification-service shape: per-account signed
// balance deltas, already netted. All fields are optional on the wire; the
// extractor degrades to "no trade found" on anything missing.
type WebhookTransaction struct {
	Signature   string        `json:"signature"`
	FeePayer    string        `json:"feePayer"`
	Timestamp   int64         `json:"timestamp"`
	AccountData []AccountData `json:"accountData"`
}

// AccountData carries one account's balance movement within a transaction.
type AccountData struct {
	Account             string               `json:"account"`
	NativeBalanceChange int64                `json:"nativeBalanceChange"` // lamports, signed
	TokenBalanceChanges []TokenBalanceChange `json:"tokenBalanceChanges"`
}

// TokenBalanceChange is one mint's delta for one owner.
type TokenBalanceChange struct {
	Mint           string         `json:"mint"`
	UserAccount    string         `json:"userAccount"`
	TokenAccount   string         `json:"tokenAccount"`
	RawTokenAmount RawTokenAmount `json:"rawTokenAmount"`
}

// RawTokenAmount is a signed raw-unit amount with its mint decimals.
type RawTokenAmount struct {
	TokenAmount string `json:"tokenAmount"`
	Decimals    int    `json:"decimals"`
}

// ParsedTransaction is the directly-queried shape: pre/post balances indexed
// by account position, plus pre/post token balances.
type ParsedTransaction struct {
	BlockTime   int64                `json:"blockTime,omitempty"`
	Meta        *TransactionMeta     `json:"meta"`
	Transaction *TransactionEnvelope `json:"transaction"`
}

type TransactionEnvelope struct {
	Message TransactionMessage `json:"message"`
}

type TransactionMessage struct {
	AccountKeys []AccountKey `json:"accountKeys"`
}

type AccountKey struct {
	Pubkey string `json:"pubkey"`
	Signer bool   `json:"signer"`
}

// TransactionMeta holds the balance arrays of a confirmed transaction.
type TransactionMeta struct {
	PreBalances       []uint64       `json:"preBalances"`
	PostBalances      []uint64       `json:"postBalances"`
	PreTokenBalances  []TokenBalance `json:"preTokenBalances"`
	PostTokenBalances []TokenBalance `json:"postTokenBalances"`
}

// TokenBalance is one token account's balance at a transaction boundary.
type TokenBalance struct {
	AccountIndex  int           `json:"accountIndex"`
	Mint          string        `json:"mint"`
	Owner         string        `json:"owner,omitempty"`
	UITokenAmount UITokenAmount `json:"uiTokenAmount"`
}

// UITokenAmount mirrors the RPC's stringly-typed token amount.
type UITokenAmount struct {
	Amount   string `json:"amount"`
	Decimals int    `json:"decimals"`
}
