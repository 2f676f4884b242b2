// =============================
// File: internal/engine/errors.go
// =============================
package engine

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
)

// MarketStateUnavailableError reports that the parallel market reads never
// assembled a complete state within the fetcher's retry budget. Terminal for
// the fetch call; the orchestrator decides whether to start over.
type MarketStateUnavailableError struct {
	Mint     solana.PublicKey
	Attempts int
	At       time.Time
}

func (e *MarketStateUnavailableError) Error() string {
	return fmt.Sprintf("market state unavailable for %s after %d attempts at %s",
		e.Mint, e.Attempts, e.At.UTC().Format(time.RFC3339))
}

// SimulationFailedError reports that the sell-path dry run was rejected by
// the simulator. Counted as an attempt failure and retried.
type SimulationFailedError struct {
	Mint   solana.PublicKey
	Reason interface{}
	Logs   []string
}

func (e *SimulationFailedError) Error() string {
	return fmt.Sprintf("simulation failed for %s: %v", e.Mint, e.Reason)
}

// BuildExhaustedError reports that the outer retry ceiling was reached
// without producing a signed artifact. The trade must be treated as not
// executed.
type BuildExhaustedError struct {
	Mint     solana.PublicKey
	Attempts int
	LastErr  error
}

func (e *BuildExhaustedError) Error() string {
	return fmt.Sprintf("trade build exhausted for %s after %d attempts: %v", e.Mint, e.Attempts, e.LastErr)
}

func (e *BuildExhaustedError) Unwrap() error { return e.LastErr }
