package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string // "development", "production" or "test"
	LogLevel    string

	// Ledger configuration
	DataFile        string
	StartingBalance int64
	LockTimeout     time.Duration
	AdminUsers      []string

	// Game configuration
	Game GameConfig

	// Reward configuration
	ActivityInterval time.Duration
	ActivityReward   int64
	DailyInterval    time.Duration
	DailyReward      int64

	// HTTP dispatcher address
	HTTPAddr string

	// Discord configuration; an empty token disables the bot
	DiscordToken   string
	DiscordGuildID string

	// Postgres mirror; an empty URL disables it
	DatabaseURL    string
	MirrorInterval time.Duration

	// NATS event publishing; an empty URL disables it
	NATSURL           string
	NATSSubjectPrefix string
}

// GameConfig describes the wheel. It can be loaded from the YAML file named
// by GAME_CONFIG; GAME_VARIANT and GAME_PAYOUT_MODE override the file.
type GameConfig struct {
	Variant         string           `yaml:"variant"`
	PayoutMode      string           `yaml:"payout_mode"`
	Weights         map[string]int64 `yaml:"weights"`
	GreenMultiplier int64            `yaml:"green_multiplier"`
	ColorMultiplier int64            `yaml:"color_multiplier"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		// A missing .env file is fine, the environment is used as is
		if err := godotenv.Load(); err == nil {
			log.Debug("Loaded environment from .env")
		}

		var err error
		instance, err = Load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Environment:       getEnvString("ENVIRONMENT", "development"),
		LogLevel:          getEnvString("LOG_LEVEL", "info"),
		DataFile:          getEnvString("DATA_FILE", "data/balances.json"),
		StartingBalance:   getEnvInt64("STARTING_BALANCE", 1000),
		AdminUsers:        getEnvList("ADMIN_USERS"),
		ActivityReward:    getEnvInt64("ACTIVITY_REWARD", 50),
		DailyReward:       getEnvInt64("DAILY_REWARD", 500),
		HTTPAddr:          getEnvString("HTTP_ADDR", ":8080"),
		DiscordToken:      os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID:    os.Getenv("DISCORD_GUILD_ID"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: getEnvString("NATS_SUBJECT_PREFIX", "roulette.events"),
	}

	var err error
	if config.LockTimeout, err = getEnvDuration("LOCK_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if config.ActivityInterval, err = getEnvDuration("ACTIVITY_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if config.DailyInterval, err = getEnvDuration("DAILY_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	if config.MirrorInterval, err = getEnvDuration("MIRROR_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	config.Game = defaultGameConfig()
	if path := os.Getenv("GAME_CONFIG"); path != "" {
		if config.Game, err = LoadGameConfig(path); err != nil {
			return nil, err
		}
	}
	config.Game.Variant = getEnvString("GAME_VARIANT", config.Game.Variant)
	config.Game.PayoutMode = getEnvString("GAME_PAYOUT_MODE", config.Game.PayoutMode)

	// Validate configuration
	if config.StartingBalance < 0 {
		return nil, fmt.Errorf("STARTING_BALANCE must not be negative")
	}
	if config.ActivityReward <= 0 || config.DailyReward <= 0 {
		return nil, fmt.Errorf("reward amounts must be positive")
	}
	if config.ActivityInterval <= 0 || config.DailyInterval <= 0 {
		return nil, fmt.Errorf("reward intervals must be positive")
	}
	if config.DataFile == "" {
		return nil, fmt.Errorf("DATA_FILE is required")
	}

	return config, nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func defaultGameConfig() GameConfig {
	return GameConfig{
		Variant:    "weighted",
		PayoutMode: "gross",
		Weights: map[string]int64{
			"red":   47,
			"black": 47,
			"green": 6,
		},
		GreenMultiplier: 14,
		ColorMultiplier: 2,
	}
}

// LoadGameConfig reads a YAML wheel definition. Fields missing from the file
// keep their defaults.
func LoadGameConfig(path string) (GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GameConfig{}, fmt.Errorf("unable to read %s: %w", path, err)
	}

	game := defaultGameConfig()
	game.Weights = nil
	if err := yaml.Unmarshal(data, &game); err != nil {
		return GameConfig{}, fmt.Errorf("unable to parse %s: %w", path, err)
	}
	if game.Weights == nil {
		game.Weights = defaultGameConfig().Weights
	}
	return game, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		log.WithFields(log.Fields{
			"key":   key,
			"value": value,
		}).Warn("Ignoring invalid integer, using default")
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
