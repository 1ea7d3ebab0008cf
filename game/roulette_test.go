package game

import (
	"math"
	"testing"

	"roulette/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource always returns the same draw
type fixedSource int

func (f fixedSource) Intn(n int) int {
	return int(f) % n
}

func TestEngine_WeightedSpin(t *testing.T) {
	tests := []struct {
		draw     int
		expected models.Color
	}{
		{0, models.ColorRed},
		{46, models.ColorRed},
		{47, models.ColorBlack},
		{93, models.ColorBlack},
		{94, models.ColorGreen},
		{99, models.ColorGreen},
	}

	for _, tt := range tests {
		engine, err := NewEngine(DefaultConfig(), fixedSource(tt.draw))
		require.NoError(t, err)

		outcome := engine.Spin()
		assert.Equal(t, tt.expected, outcome.Color, "draw %d", tt.draw)
		assert.Equal(t, -1, outcome.Pocket)
	}
}

func TestEngine_ClassicSpin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Variant = VariantClassic

	for pocket, expected := range map[int]models.Color{
		0:  models.ColorGreen,
		1:  models.ColorBlack,
		2:  models.ColorRed,
		35: models.ColorBlack,
		36: models.ColorRed,
	} {
		engine, err := NewEngine(cfg, fixedSource(pocket))
		require.NoError(t, err)

		outcome := engine.Spin()
		assert.Equal(t, expected, outcome.Color)
		assert.Equal(t, pocket, outcome.Pocket)
	}
}

func TestEngine_Resolve(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), fixedSource(99))
	require.NoError(t, err)

	res := engine.Resolve(models.ColorGreen, 100)
	assert.True(t, res.Won)
	assert.Equal(t, int64(14), res.Multiplier)
	assert.Equal(t, int64(1400), res.Payout)

	res = engine.Resolve(models.ColorRed, 100)
	assert.False(t, res.Won)
	assert.Equal(t, int64(0), res.Payout)
}

func TestEngine_PayoutModes(t *testing.T) {
	gross, err := NewEngine(DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(200), gross.Payout(models.ColorRed, 100))
	assert.Equal(t, int64(1400), gross.Payout(models.ColorGreen, 100))
	assert.Equal(t, int64(1300), gross.Winnings(models.ColorGreen, 100))

	cfg := DefaultConfig()
	cfg.PayoutMode = PayoutNet
	net, err := NewEngine(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100), net.Winnings(models.ColorRed, 100))
	assert.Equal(t, int64(1300), net.Winnings(models.ColorGreen, 100))
	// Stake plus winnings, credited after the stake was debited
	assert.Equal(t, int64(200), net.Payout(models.ColorRed, 100))
	assert.Equal(t, int64(1400), net.Payout(models.ColorGreen, 100))

	for color, edge := range gross.HouseEdge() {
		assert.InDelta(t, edge, net.HouseEdge()[color], 1e-9, "%s", color)
	}
}

func TestEngine_ClassicNetMatchesLegacyBot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Variant = VariantClassic
	cfg.PayoutMode = PayoutNet

	tests := []struct {
		name    string
		pocket  int
		choice  models.Color
		bet     int64
		balance int64
	}{
		{"red win", 2, models.ColorRed, 100, 1100},
		{"black win", 7, models.ColorBlack, 250, 1250},
		{"green win", 0, models.ColorGreen, 100, 2300},
		{"red loss", 7, models.ColorRed, 100, 900},
		{"green loss", 36, models.ColorGreen, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(cfg, fixedSource(tt.pocket))
			require.NoError(t, err)

			// Debit first, then credit the payout on a win
			res := engine.Resolve(tt.choice, tt.bet)
			balance := int64(1000) - tt.bet + res.Payout
			assert.Equal(t, tt.balance, balance)
			assert.Equal(t, tt.pocket, res.Outcome.Pocket)
			if res.Won {
				assert.Equal(t, tt.balance-1000, res.Winnings)
			}
		})
	}
}

func TestEngine_PayoutSaturates(t *testing.T) {
	for _, mode := range []PayoutMode{PayoutGross, PayoutNet} {
		cfg := DefaultConfig()
		cfg.PayoutMode = mode
		engine, err := NewEngine(cfg, nil)
		require.NoError(t, err)

		assert.Equal(t, int64(math.MaxInt64), engine.Payout(models.ColorGreen, math.MaxInt64/10), "%s", mode)
		assert.Equal(t, int64(math.MaxInt64), engine.Payout(models.ColorRed, math.MaxInt64), "%s", mode)
		assert.Greater(t, engine.Winnings(models.ColorGreen, math.MaxInt64/10), int64(0), "%s", mode)
	}
}

func TestEngine_HouseEdge(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.47, engine.WinProbability(models.ColorRed), 1e-9)
	assert.InDelta(t, 0.06, engine.WinProbability(models.ColorGreen), 1e-9)

	edges := engine.HouseEdge()
	assert.InDelta(t, 0.06, edges[models.ColorRed], 1e-9)
	assert.InDelta(t, 0.06, edges[models.ColorBlack], 1e-9)
	assert.InDelta(t, 0.16, edges[models.ColorGreen], 1e-9)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative weight", func(c *Config) { c.Weights[models.ColorGreen] = -1 }},
		{"zero weights", func(c *Config) { c.Weights = map[models.Color]int64{} }},
		{"unknown variant", func(c *Config) { c.Variant = "european" }},
		{"zero multiplier", func(c *Config) { c.ColorMultiplier = 0 }},
		{"unknown payout mode", func(c *Config) { c.PayoutMode = "double" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewEngine(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestCryptoSource_Range(t *testing.T) {
	var src CryptoSource
	for i := 0; i < 1000; i++ {
		v := src.Intn(37)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 37)
	}
}

func TestDecider(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), fixedSource(47))
	require.NoError(t, err)

	var res Resolution
	decide := Decider(engine, models.ColorBlack, 25, &res)
	won, payout := decide(1000)

	assert.True(t, won)
	assert.Equal(t, int64(50), payout)
	assert.Equal(t, models.ColorBlack, res.Outcome.Color)
}
