// =============================
// File: internal/autosell/autosell.go
// =============================

// Package autosell decides when an open position should be closed, based on
// the entry price and the price recovered from subsequent trade events.
package autosell

// Action is the exit decision for a position.
type Action string

const (
	ActionNone       Action = "NONE"
	ActionStopLoss   Action = "STOP_LOSS"
	ActionTakeProfit Action = "TAKE_PROFIT"
)

// Config holds the exit thresholds. TakeProfitX are gain multiples
// (e.g. [2, 5]); StopLoss is the gain fraction at or below which the
// position is cut (e.g. 0.5 for a 50% drop). Zero values disable a rule.
type Config struct {
	TakeProfitX []float64
	StopLoss    float64
}

// Decision carries the chosen action; Multiple is the take-profit level that
// triggered, when applicable.
type Decision struct {
	Action   Action
	Multiple float64
}

// Evaluate compares the current price against the entry price. Stop loss is
// checked before take profit; among take-profit levels the first configured
// multiple reached wins.
func Evaluate(entryPrice, currentPrice float64, cfg Config) Decision {
	if entryPrice <= 0 || currentPrice <= 0 {
		return Decision{Action: ActionNone}
	}

	gain := currentPrice / entryPrice

	if cfg.StopLoss > 0 && gain <= cfg.StopLoss {
		return Decision{Action: ActionStopLoss}
	}
	for _, x := range cfg.TakeProfitX {
		if x > 0 && gain >= x {
			return Decision{Action: ActionTakeProfit, Multiple: x}
		}
	}
	return Decision{Action: ActionNone}
}
