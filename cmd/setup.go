package cmd

import (
	"fmt"
	"strings"

	"roulette/config"
	"roulette/game"
	"roulette/models"

	log "github.com/sirupsen/logrus"
)

// SetupLogging configures the global logger from cfg
func SetupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// GameConfig converts the file/env wheel settings into an engine config
func GameConfig(c config.GameConfig) (game.Config, error) {
	cfg := game.Config{
		Variant:         game.Variant(strings.ToLower(c.Variant)),
		PayoutMode:      game.PayoutMode(strings.ToLower(c.PayoutMode)),
		GreenMultiplier: c.GreenMultiplier,
		ColorMultiplier: c.ColorMultiplier,
		Weights:         make(map[models.Color]int64, len(c.Weights)),
	}

	for name, weight := range c.Weights {
		color, err := models.ParseColor(name)
		if err != nil {
			return game.Config{}, fmt.Errorf("invalid game weights: %w", err)
		}
		cfg.Weights[color] = weight
	}

	if err := cfg.Validate(); err != nil {
		return game.Config{}, fmt.Errorf("invalid game config: %w", err)
	}
	return cfg, nil
}
