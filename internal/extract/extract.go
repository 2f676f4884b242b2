// =============================
// File: internal/extract/extract.go
// =============================

// Package extract turns confirmed-transaction balance deltas back into
// structured trade records. Input arrives either as a webhook notification
// payload or as a directly-queried parsed transaction; in both cases a
// transaction that carries no qualifying trade yields a nil result, not an
// error. Extraction is pure: the same payload always yields the same record.
package extract

import (
	"math"
	"strconv"

	"github.com/rvlabs/pumpfun-sniper/internal/units"
)

// FromWebhook recovers a trade from a notification payload by pairing the
// fee payer's native balance change with its token balance change on the
// non-wrapper mint. Returns nil when no such pair exists.
func FromWebhook(tx *WebhookTransaction) *ExtractedTrade {
	if tx == nil || len(tx.AccountData) == 0 {
		return nil
	}

	feePayer := tx.FeePayer
	if feePayer == "" {
		feePayer = tx.AccountData[0].Account
	}
	if feePayer == "" {
		return nil
	}

	var solDelta float64
	for _, ad := range tx.AccountData {
		if ad.Account == feePayer {
			solDelta = float64(ad.NativeBalanceChange) / units.LamportsPerSOL
			break
		}
	}

	mint, tokenDelta := webhookTokenDelta(tx.AccountData, feePayer)
	if mint == "" || tokenDelta == 0 {
		return nil
	}

	return classify(mint, solDelta, tokenDelta)
}

// webhookTokenDelta finds the fee payer's first non-zero token balance change
// on a mint other than the native wrapper.
func webhookTokenDelta(accounts []AccountData, feePayer string) (string, float64) {
	for _, ad := range accounts {
		for _, change := range ad.TokenBalanceChanges {
			if change.Mint == "" || change.Mint == WrappedSOLMint {
				continue
			}
			if change.UserAccount != feePayer {
				continue
			}
			raw, err := strconv.ParseInt(change.RawTokenAmount.TokenAmount, 10, 64)
			if err != nil || raw == 0 {
				continue
			}
			if change.RawTokenAmount.Decimals < 0 {
				continue
			}
			delta := float64(raw) / math.Pow10(change.RawTokenAmount.Decimals)
			return change.Mint, delta
		}
	}
	return "", 0
}

// FromTransaction recovers a trade from a directly-queried parsed
// transaction using the fee payer's pre/post balances.
func FromTransaction(tx *ParsedTransaction) *ExtractedTrade {
	meta, feePayer, ok := txParts(tx)
	if !ok {
		return nil
	}

	solDelta, ok := nativeDelta(meta)
	if !ok {
		return nil
	}

	mint := FindTokenMint(tx)
	if mint == "" {
		return nil
	}

	tokenDelta, ok := tokenDeltaFor(meta, feePayer, mint)
	if !ok || tokenDelta == 0 {
		return nil
	}

	return classify(mint, solDelta, tokenDelta)
}

// FindTokenMint returns the traded mint of a parsed transaction: the
// non-wrapper mint whose fee-payer balance moved, or failing that the first
// non-wrapper mint present. Empty string when the transaction touches no
// qualifying mint.
func FindTokenMint(tx *ParsedTransaction) string {
	meta, feePayer, ok := txParts(tx)
	if !ok {
		return ""
	}

	var fallback string
	for _, post := range meta.PostTokenBalances {
		if post.Mint == "" || post.Mint == WrappedSOLMint {
			continue
		}
		if fallback == "" {
			fallback = post.Mint
		}
		if post.Owner != feePayer {
			continue
		}
		if delta, ok := tokenDeltaFor(meta, feePayer, post.Mint); ok && delta != 0 {
			return post.Mint
		}
	}
	return fallback
}

// PriceFromTransaction computes the effective price-per-token of a parsed
// transaction when the caller already knows the direction. Returns nil when
// the balances needed for the computation are absent.
func PriceFromTransaction(tx *ParsedTransaction, isBuy bool) *DirectionalPrice {
	meta, feePayer, ok := txParts(tx)
	if !ok {
		return nil
	}

	mint := FindTokenMint(tx)
	if mint == "" {
		return nil
	}

	solDelta, ok := nativeDelta(meta)
	if !ok {
		return nil
	}

	tokenDelta, ok := tokenDeltaFor(meta, feePayer, mint)
	if !ok || tokenDelta == 0 {
		return nil
	}

	// With a declared direction the magnitudes are what matter; a sign
	// mismatch means the declared direction does not describe this
	// transaction.
	if isBuy && tokenDelta < 0 {
		return nil
	}
	if !isBuy && tokenDelta > 0 {
		return nil
	}

	solAmount := math.Abs(solDelta)
	tokenAmount := math.Abs(tokenDelta)
	return &DirectionalPrice{
		TokenMint:     mint,
		SolAmount:     solAmount,
		TokenAmount:   tokenAmount,
		PricePerToken: solAmount / tokenAmount,
	}
}

func txParts(tx *ParsedTransaction) (*TransactionMeta, string, bool) {
	if tx == nil || tx.Meta == nil || tx.Transaction == nil {
		return nil, "", false
	}
	keys := tx.Transaction.Message.AccountKeys
	if len(keys) == 0 {
		return nil, "", false
	}
	// The fee payer is the first signer, conventionally index 0.
	feePayer := keys[0].Pubkey
	for _, k := range keys {
		if k.Signer {
			feePayer = k.Pubkey
			break
		}
	}
	return tx.Meta, feePayer, true
}

// nativeDelta is the fee payer's SOL movement, taken from account position 0.
func nativeDelta(meta *TransactionMeta) (float64, bool) {
	if len(meta.PreBalances) == 0 || len(meta.PostBalances) == 0 {
		return 0, false
	}
	return (float64(meta.PostBalances[0]) - float64(meta.PreBalances[0])) / units.LamportsPerSOL, true
}

// tokenDeltaFor computes post-pre for owner's balance of mint, decimal
// adjusted. Missing pre or post entries count as zero balance.
func tokenDeltaFor(meta *TransactionMeta, owner, mint string) (float64, bool) {
	post, postOK := sumBalances(meta.PostTokenBalances, owner, mint)
	pre, preOK := sumBalances(meta.PreTokenBalances, owner, mint)
	if !postOK && !preOK {
		return 0, false
	}
	return post - pre, true
}

func sumBalances(balances []TokenBalance, owner, mint string) (float64, bool) {
	total := 0.0
	found := false
	for _, b := range balances {
		if b.Mint != mint || b.Owner != owner {
			continue
		}
		raw, err := strconv.ParseUint(b.UITokenAmount.Amount, 10, 64)
		if err != nil || b.UITokenAmount.Decimals < 0 {
			continue
		}
		adjusted, err := units.RawToToken(raw, b.UITokenAmount.Decimals)
		if err != nil {
			continue
		}
		total += adjusted
		found = true
	}
	return total, found
}

// classify derives direction and price from the two deltas. A combination
// that matches neither buy nor sell still yields a record, just unflagged.
func classify(mint string, solDelta, tokenDelta float64) *ExtractedTrade {
	isBuy := tokenDelta > 0 && solDelta < 0
	isSell := tokenDelta < 0 && solDelta > 0

	solAmount := math.Abs(solDelta)
	tokenAmount := math.Abs(tokenDelta)

	price := 0.0
	if tokenAmount > 0 {
		price = solAmount / tokenAmount
	}

	return &ExtractedTrade{
		TokenMint:   mint,
		SolAmount:   solAmount,
		TokenAmount: tokenAmount,
		IsBuy:       isBuy,
		IsSell:      isSell,
		Price:       price,
	}
}
