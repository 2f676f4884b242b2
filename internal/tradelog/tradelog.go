// =============================
// File: internal/tradelog/tradelog.go
// =============================

// Package tradelog is the durable append-only record of executed trades.
// The engine writes one entry per successful build, optimistically, before
// broadcast confirmation; entries are never updated afterward.
package tradelog

import "context"

// Entry is one trade log record.
type Entry struct {
	Mint        string
	Side        string // "BUY" or "SELL"
	Price       float64
	Amount      float64
	Signature   *string // nil until the caller learns the broadcast signature
	TimestampMs int64
}

// Sink appends trade entries. Implementations own the storage schema.
type Sink interface {
	Insert(ctx context.Context, e Entry) error
}

// Noop discards entries; useful when no storage is configured.
type Noop struct{}

func (Noop) Insert(context.Context, Entry) error { return nil }
