package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"sync"

	"roulette/models"
)

// Variant selects how a spin is drawn
type Variant string

const (
	// VariantWeighted draws a color directly from configured weights
	VariantWeighted Variant = "weighted"
	// VariantClassic draws a pocket 0..36; 0 is green, even is red, odd is black
	VariantClassic Variant = "classic"
)

// PayoutMode selects how a win is computed
type PayoutMode string

const (
	// PayoutGross pays bet*multiplier back after the stake was debited
	PayoutGross PayoutMode = "gross"
	// PayoutNet leaves the stake with the player and adds bet*(multiplier-1)
	// winnings on top. A red win nets +bet, a green win +13*bet.
	PayoutNet PayoutMode = "net"
)

const classicPockets = 37

// Config describes the active wheel
type Config struct {
	Variant         Variant
	Weights         map[models.Color]int64
	GreenMultiplier int64
	ColorMultiplier int64
	PayoutMode      PayoutMode
}

// DefaultConfig returns the 47/47/6 weighted wheel paying 2x and 14x gross
func DefaultConfig() Config {
	return Config{
		Variant: VariantWeighted,
		Weights: map[models.Color]int64{
			models.ColorRed:   47,
			models.ColorBlack: 47,
			models.ColorGreen: 6,
		},
		GreenMultiplier: 14,
		ColorMultiplier: 2,
		PayoutMode:      PayoutGross,
	}
}

// Validate checks that the configuration describes a playable wheel
func (c Config) Validate() error {
	switch c.Variant {
	case VariantWeighted:
		var total int64
		for _, color := range models.Colors {
			w := c.Weights[color]
			if w < 0 {
				return fmt.Errorf("weight for %s must not be negative", color)
			}
			total += w
		}
		if total <= 0 {
			return fmt.Errorf("weights must sum to a positive value")
		}
	case VariantClassic:
	default:
		return fmt.Errorf("unknown variant %q", c.Variant)
	}

	if c.GreenMultiplier < 1 || c.ColorMultiplier < 1 {
		return fmt.Errorf("multipliers must be at least 1")
	}

	switch c.PayoutMode {
	case PayoutGross, PayoutNet:
	default:
		return fmt.Errorf("unknown payout mode %q", c.PayoutMode)
	}
	return nil
}

// RandSource yields integers in [0, n)
type RandSource interface {
	Intn(n int) int
}

// CryptoSource draws from crypto/rand
type CryptoSource struct{}

func (CryptoSource) Intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return mrand.IntN(n)
	}
	return int(v.Int64())
}

// Resolution is the result of resolving one bet against a spin
type Resolution struct {
	Outcome    models.Outcome
	Won        bool
	Multiplier int64
	Payout     int64
	Winnings   int64
}

// Engine resolves roulette spins. It has no side effects besides drawing
// from its random source.
type Engine struct {
	cfg Config
	mu  sync.Mutex
	rng RandSource
}

// NewEngine creates an engine; a nil source uses CryptoSource
func NewEngine(cfg Config, rng RandSource) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}
	if rng == nil {
		rng = CryptoSource{}
	}
	return &Engine{cfg: cfg, rng: rng}, nil
}

// Config returns the engine's configuration
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

// Spin draws an outcome
func (e *Engine) Spin() models.Outcome {
	if e.cfg.Variant == VariantClassic {
		pocket := e.intn(classicPockets)
		return models.Outcome{Color: PocketColor(pocket), Pocket: pocket}
	}

	var total int64
	for _, color := range models.Colors {
		total += e.cfg.Weights[color]
	}
	idx := int64(e.intn(int(total)))

	var cum int64
	for _, color := range models.Colors {
		w := e.cfg.Weights[color]
		if w <= 0 {
			continue
		}
		cum += w
		if idx < cum {
			return models.Outcome{Color: color, Pocket: -1}
		}
	}
	return models.Outcome{Color: models.Colors[len(models.Colors)-1], Pocket: -1}
}

// PocketColor maps a classic wheel pocket to its color
func PocketColor(pocket int) models.Color {
	switch {
	case pocket == 0:
		return models.ColorGreen
	case pocket%2 == 0:
		return models.ColorRed
	default:
		return models.ColorBlack
	}
}

// Multiplier returns the gross multiplier paid for a winning choice
func (e *Engine) Multiplier(choice models.Color) int64 {
	if choice == models.ColorGreen {
		return e.cfg.GreenMultiplier
	}
	return e.cfg.ColorMultiplier
}

// Winnings returns what a winning bet earns on top of the stake
func (e *Engine) Winnings(choice models.Color, bet int64) int64 {
	m := e.Multiplier(choice)
	if e.cfg.PayoutMode == PayoutNet {
		return models.MulCoins(bet, m-1)
	}
	return models.AddCoins(models.MulCoins(bet, m), -bet)
}

// Payout returns the amount credited for a winning bet once the stake has
// been debited. Net mode returns the stake plus winnings so the ledger's
// debit-first settle leaves the stake in place.
func (e *Engine) Payout(choice models.Color, bet int64) int64 {
	if e.cfg.PayoutMode == PayoutNet {
		return models.AddCoins(bet, e.Winnings(choice, bet))
	}
	return models.MulCoins(bet, e.Multiplier(choice))
}

// Resolve spins once and settles a bet of amount on choice
func (e *Engine) Resolve(choice models.Color, bet int64) Resolution {
	outcome := e.Spin()
	res := Resolution{
		Outcome:    outcome,
		Won:        outcome.Color == choice,
		Multiplier: e.Multiplier(choice),
	}
	if res.Won {
		res.Payout = e.Payout(choice, bet)
		res.Winnings = e.Winnings(choice, bet)
	}
	return res
}

// WinProbability returns the chance that a spin lands on color
func (e *Engine) WinProbability(color models.Color) float64 {
	if e.cfg.Variant == VariantClassic {
		if color == models.ColorGreen {
			return 1.0 / classicPockets
		}
		return float64(classicPockets-1) / 2 / classicPockets
	}

	var total int64
	for _, c := range models.Colors {
		total += e.cfg.Weights[c]
	}
	return float64(e.cfg.Weights[color]) / float64(total)
}

// HouseEdge returns the expected house take per unit staked on each color
func (e *Engine) HouseEdge() map[models.Color]float64 {
	edges := make(map[models.Color]float64, len(models.Colors))
	for _, c := range models.Colors {
		returned := e.WinProbability(c) * float64(e.Payout(c, 1))
		edges[c] = 1 - returned
	}
	return edges
}

// Resolver settles a bet against a fresh spin
type Resolver interface {
	Resolve(choice models.Color, bet int64) Resolution
}

// Decider adapts r to the ledger's bet decision callback.
// The resolution is written to out so the caller can report the spin.
func Decider(r Resolver, choice models.Color, bet int64, out *Resolution) func(balanceBefore int64) (bool, int64) {
	return func(int64) (bool, int64) {
		*out = r.Resolve(choice, bet)
		return out.Won, out.Payout
	}
}
