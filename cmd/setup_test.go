package cmd

import (
	"testing"

	"roulette/config"
	"roulette/game"
	"roulette/models"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameConfig(t *testing.T) {
	cfg, err := GameConfig(config.GameConfig{
		Variant:         "Weighted",
		PayoutMode:      "gross",
		Weights:         map[string]int64{"red": 45, "black": 45, "green": 10},
		GreenMultiplier: 10,
		ColorMultiplier: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, game.VariantWeighted, cfg.Variant)
	assert.Equal(t, game.PayoutGross, cfg.PayoutMode)
	assert.Equal(t, int64(10), cfg.Weights[models.ColorGreen])
	assert.Equal(t, int64(10), cfg.GreenMultiplier)
}

func TestGameConfig_Invalid(t *testing.T) {
	_, err := GameConfig(config.GameConfig{
		Variant:         "weighted",
		PayoutMode:      "gross",
		Weights:         map[string]int64{"purple": 5},
		GreenMultiplier: 14,
		ColorMultiplier: 2,
	})
	assert.ErrorIs(t, err, models.ErrInvalidColor)

	_, err = GameConfig(config.GameConfig{
		Variant:         "european",
		PayoutMode:      "gross",
		GreenMultiplier: 14,
		ColorMultiplier: 2,
	})
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.GetLevel())
	defer log.SetFormatter(log.StandardLogger().Formatter)

	SetupLogging(&config.Config{Environment: "production", LogLevel: "debug"})
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	SetupLogging(&config.Config{Environment: "development", LogLevel: "nonsense"})
	assert.Equal(t, log.InfoLevel, log.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, log.StandardLogger().Formatter)
}
