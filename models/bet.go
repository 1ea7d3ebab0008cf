package models

import (
	"fmt"
	"strings"
)

// Color is a roulette outcome class
type Color string

const (
	ColorRed   Color = "red"
	ColorBlack Color = "black"
	ColorGreen Color = "green"
)

// Colors lists every outcome class in display order
var Colors = []Color{ColorRed, ColorBlack, ColorGreen}

// ParseColor validates a color choice, case-insensitively
func ParseColor(raw string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case ColorRed, ColorBlack, ColorGreen:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidColor, raw)
}

// Outcome is the result of a single spin
type Outcome struct {
	Color  Color
	Pocket int // -1 when the active variant has no numbered pockets
}

// BetResult represents the outcome of a bet (returned to the user)
type BetResult struct {
	BetID      string
	User       string
	Choice     Color
	Outcome    Outcome
	Won        bool
	BetAmount  int64
	Payout     int64 // amount credited back, 0 on loss
	NetProfit  int64 // payout - bet; negative on loss
	NewBalance int64
}

// SettleResult is what the ledger reports after settling a bet
type SettleResult struct {
	BalanceBefore int64
	NewBalance    int64
	Won           bool
	Payout        int64
	Created       bool
}
