package service

import (
	"context"
	"time"

	"roulette/events"
	"roulette/game"
	"roulette/ledger"
	"roulette/models"
)

// AccountLedger defines the ledger operations the services rely on
type AccountLedger interface {
	// GetOrCreate returns the user's account, creating it on first reference
	GetOrCreate(ctx context.Context, user string) (models.Account, bool, error)

	// Mutate atomically applies fn to the user's account and persists the result
	Mutate(ctx context.Context, user string, fn func(acc *models.Account) error) (models.Account, bool, error)

	// TrySettleBet debits, resolves and credits a bet in one critical section
	TrySettleBet(ctx context.Context, user string, amount int64, decide ledger.Decision) (*models.SettleResult, error)

	// Snapshot returns every account ordered by balance descending
	Snapshot(ctx context.Context) ([]models.AccountEntry, error)

	// StartingBalance returns the balance given to new accounts
	StartingBalance() int64
}

// GameEngine resolves a bet against a spin
type GameEngine interface {
	Resolve(choice models.Color, bet int64) game.Resolution
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// CasinoService is the call contract offered to command dispatchers
type CasinoService interface {
	// CheckBalance returns the user's balance, creating the account if needed
	CheckBalance(ctx context.Context, user string) (int64, error)

	// PlaceBet stakes amount on color and settles it against one spin
	PlaceBet(ctx context.Context, user string, color string, amount int64) (*models.BetResult, error)

	// ClaimBonus grants a cooldown-gated reward
	ClaimBonus(ctx context.Context, user string, kind models.RewardKind) (*models.GrantResult, error)

	// Leaderboard returns the top accounts by balance
	Leaderboard(ctx context.Context, topN int) ([]models.LeaderboardEntry, error)

	// AdminAdjust adds, removes or sets a balance on behalf of an admin
	AdminAdjust(ctx context.Context, caller, target string, action models.AdminAction, amount int64) (int64, error)

	// Stats returns the user's account including win/loss counters
	Stats(ctx context.Context, user string) (models.Account, error)

	// IsAdmin checks if a user is in the admin allow-list
	IsAdmin(user string) bool
}

// RewardService defines the cooldown reward policy
type RewardService interface {
	// TryGrant credits amount if interval has elapsed since the last grant of kind
	TryGrant(ctx context.Context, user string, kind models.RewardKind, interval time.Duration, amount int64) (*models.GrantResult, error)

	// ClaimBonus applies the configured rule for kind
	ClaimBonus(ctx context.Context, user string, kind models.RewardKind) (*models.GrantResult, error)
}

// SnapshotSource provides immutable copies of the ledger
type SnapshotSource interface {
	Export(ctx context.Context) (models.Snapshot, error)
}

// SnapshotExporter replicates a snapshot somewhere outside the hot path
type SnapshotExporter interface {
	Export(ctx context.Context, snapshot models.Snapshot) error
}
