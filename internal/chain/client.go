// =============================
// File: internal/chain/client.go
// =============================

// Package chain is a thin adapter over the solana-go RPC client. The engine
// consumes it through a small interface, so the client instance is always
// constructed explicitly and passed in; nothing in this module holds a
// process-wide connection.
package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// ErrAccountNotFound reports that the queried account does not exist on chain.
var ErrAccountNotFound = errors.New("account not found")

// AccountInfo is the subset of on-chain account state the engine reads.
type AccountInfo struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// SimulationResult carries the outcome of a pre-broadcast dry run.
type SimulationResult struct {
	Err           interface{}
	Logs          []string
	UnitsConsumed uint64
}

// Client wraps a solana-go RPC client with logging.
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

// NewClient creates a client for the given RPC endpoint.
func NewClient(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:    rpc.New(rpcURL),
		logger: logger.Named("chain"),
	}
}

// GetAccountInfo fetches account state, returning ErrAccountNotFound for
// absent accounts so callers can distinguish "missing" from transport errors.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*AccountInfo, error) {
	result, err := c.rpc.GetAccountInfo(ctx, pubkey)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
		}
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
	}
	return &AccountInfo{
		Owner:    result.Value.Owner,
		Lamports: result.Value.Lamports,
		Data:     result.Value.Data.GetBinary(),
	}, nil
}

// SPL mint account layout: COption<Pubkey> mint authority (36 bytes),
// supply u64 (8 bytes), then decimals at offset 44.
const (
	mintDecimalsOffset = 44
	mintAccountMinLen  = 45
)

// GetMintDecimals reads the decimals field out of an SPL mint account.
func (c *Client) GetMintDecimals(ctx context.Context, mint solana.PublicKey) (int, error) {
	info, err := c.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to get mint account: %w", err)
	}
	if len(info.Data) < mintAccountMinLen {
		return 0, fmt.Errorf("mint account data too short: %d bytes", len(info.Data))
	}
	return int(info.Data[mintDecimalsOffset]), nil
}

// GetLatestBlockhash returns the most recent confirmed blockhash. Block
// references go stale quickly, so callers must fetch one per build attempt.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return solana.Hash{}, err
	}
	return result.Value.Blockhash, nil
}

// SimulateTransaction dry-runs a signed transaction against current chain state.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error) {
	result, err := c.rpc.SimulateTransaction(ctx, tx)
	if err != nil {
		c.logger.Error("SimulateTransaction error", zap.Error(err))
		return nil, err
	}
	units := uint64(0)
	if result.Value.UnitsConsumed != nil {
		units = *result.Value.UnitsConsumed
	}
	return &SimulationResult{
		Err:           result.Value.Err,
		Logs:          result.Value.Logs,
		UnitsConsumed: units,
	}, nil
}

// SendRawTransaction broadcasts a serialized signed transaction. Broadcast is
// the caller's responsibility; the build engine never invokes this itself.
func (c *Client) SendRawTransaction(ctx context.Context, serialized []byte) (solana.Signature, error) {
	sig, err := c.rpc.SendRawTransactionWithOpts(ctx, serialized, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		c.logger.Error("SendRawTransaction error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// GetTransaction fetches a confirmed transaction in parsed-JSON form for the
// trade event extractor.
func (c *Client) GetTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)
	result, err := c.rpc.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		c.logger.Debug("GetTransaction error",
			zap.String("signature", signature.String()),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}
