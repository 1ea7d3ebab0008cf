package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roulette/events"
	"roulette/game"
	"roulette/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const defaultLeaderboardSize = 10

// CasinoOptions holds the service's tunables
type CasinoOptions struct {
	Admins      []string
	LockTimeout time.Duration
}

type casinoService struct {
	ledger      AccountLedger
	engine      GameEngine
	rewards     RewardService
	bus         *events.Bus
	admins      map[string]struct{}
	lockTimeout time.Duration
	newBetID    func() string
}

// NewCasinoService creates a new casino service
func NewCasinoService(ledger AccountLedger, engine GameEngine, rewards RewardService, bus *events.Bus, opts CasinoOptions) CasinoService {
	admins := make(map[string]struct{}, len(opts.Admins))
	for _, a := range opts.Admins {
		if a = models.NormalizeUser(a); a != "" {
			admins[a] = struct{}{}
		}
	}

	return &casinoService{
		ledger:      ledger,
		engine:      engine,
		rewards:     rewards,
		bus:         bus,
		admins:      admins,
		lockTimeout: opts.LockTimeout,
		newBetID:    func() string { return uuid.New().String() },
	}
}

// withTimeout bounds how long a request may wait for the ledger
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// checkPersistence separates a persistence warning from a real failure.
// It returns the error to hand back to the caller and whether the in-memory
// result is usable.
func checkPersistence(err error, operation, user string, publisher EventPublisher) (bool, error) {
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, models.ErrPersistence) {
		return false, err
	}

	log.WithFields(log.Fields{
		"operation": operation,
		"user":      user,
		"error":     err,
	}).Warn("Ledger change applied in memory but not persisted")
	publisher.Publish(events.PersistenceFailedEvent{
		Operation: operation,
		User:      user,
		Error:     err.Error(),
	})
	return true, err
}

func (s *casinoService) CheckBalance(ctx context.Context, user string) (int64, error) {
	acc, err := s.Stats(ctx, user)
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return 0, err
	}
	return acc.Balance, err
}

func (s *casinoService) Stats(ctx context.Context, user string) (models.Account, error) {
	user = models.NormalizeUser(user)
	if user == "" {
		return models.Account{}, models.ErrInvalidUser
	}

	ctx, cancel := withTimeout(ctx, s.lockTimeout)
	defer cancel()

	tx := events.NewTransactionalBus(s.bus)
	defer tx.Flush()

	acc, created, err := s.ledger.GetOrCreate(ctx, user)
	ok, err := checkPersistence(err, "get_or_create", user, tx)
	if !ok {
		return models.Account{}, fmt.Errorf("failed to get account: %w", err)
	}

	if created {
		tx.Publish(events.AccountCreatedEvent{User: user, InitialBalance: acc.Balance})
	}
	return acc, err
}

func (s *casinoService) PlaceBet(ctx context.Context, user string, color string, amount int64) (*models.BetResult, error) {
	// Validate inputs
	user = models.NormalizeUser(user)
	if user == "" {
		return nil, models.ErrInvalidUser
	}
	choice, err := models.ParseColor(color)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	ctx, cancel := withTimeout(ctx, s.lockTimeout)
	defer cancel()

	tx := events.NewTransactionalBus(s.bus)
	defer tx.Flush()

	// The spin happens inside the ledger's critical section, after the stake
	// has been debited
	var res game.Resolution
	settle, err := s.ledger.TrySettleBet(ctx, user, amount, game.Decider(s.engine, choice, amount, &res))
	ok, err := checkPersistence(err, "place_bet", user, tx)
	if !ok {
		if errors.Is(err, models.ErrInsufficientFunds) {
			log.WithFields(log.Fields{
				"user":   user,
				"amount": amount,
			}).Debug("Bet rejected for insufficient funds")
			return nil, err
		}
		return nil, fmt.Errorf("failed to settle bet: %w", err)
	}

	result := &models.BetResult{
		BetID:      s.newBetID(),
		User:       user,
		Choice:     choice,
		Outcome:    res.Outcome,
		Won:        settle.Won,
		BetAmount:  amount,
		Payout:     settle.Payout,
		NetProfit:  settle.Payout - amount,
		NewBalance: settle.NewBalance,
	}

	if settle.Created {
		tx.Publish(events.AccountCreatedEvent{User: user, InitialBalance: settle.BalanceBefore})
	}

	transactionType := models.TransactionTypeBetLoss
	if result.Won {
		transactionType = models.TransactionTypeBetWin
	}
	tx.Publish(events.BalanceChangeEvent{
		User:            user,
		OldBalance:      settle.BalanceBefore,
		NewBalance:      settle.NewBalance,
		ChangeAmount:    settle.NewBalance - settle.BalanceBefore,
		TransactionType: transactionType,
	})
	tx.Publish(events.BetSettledEvent{
		BetID:      result.BetID,
		User:       user,
		Choice:     choice,
		Outcome:    result.Outcome.Color,
		Pocket:     result.Outcome.Pocket,
		Amount:     amount,
		Won:        result.Won,
		Payout:     result.Payout,
		NewBalance: result.NewBalance,
	})

	log.WithFields(log.Fields{
		"betId":      result.BetID,
		"user":       user,
		"choice":     choice,
		"outcome":    result.Outcome.Color,
		"amount":     amount,
		"won":        result.Won,
		"newBalance": result.NewBalance,
	}).Info("Bet settled")

	return result, err
}

func (s *casinoService) ClaimBonus(ctx context.Context, user string, kind models.RewardKind) (*models.GrantResult, error) {
	ctx, cancel := withTimeout(ctx, s.lockTimeout)
	defer cancel()
	return s.rewards.ClaimBonus(ctx, user, kind)
}

func (s *casinoService) Leaderboard(ctx context.Context, topN int) ([]models.LeaderboardEntry, error) {
	if topN <= 0 {
		topN = defaultLeaderboardSize
	}

	ctx, cancel := withTimeout(ctx, s.lockTimeout)
	defer cancel()

	accounts, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot ledger: %w", err)
	}

	if len(accounts) > topN {
		accounts = accounts[:topN]
	}

	entries := make([]models.LeaderboardEntry, 0, len(accounts))
	for i, a := range accounts {
		entries = append(entries, models.LeaderboardEntry{
			Rank:    i + 1,
			User:    a.User,
			Balance: a.Account.Balance,
			Wins:    a.Account.Wins,
			Losses:  a.Account.Losses,
		})
	}
	return entries, nil
}

func (s *casinoService) IsAdmin(user string) bool {
	_, ok := s.admins[models.NormalizeUser(user)]
	return ok
}

func (s *casinoService) AdminAdjust(ctx context.Context, caller, target string, action models.AdminAction, amount int64) (int64, error) {
	if !s.IsAdmin(caller) {
		log.WithFields(log.Fields{
			"caller": caller,
			"target": target,
			"action": action,
		}).Warn("Rejected admin adjustment from non-admin")
		return 0, models.ErrNotAuthorized
	}

	target = models.NormalizeUser(target)
	if target == "" {
		return 0, models.ErrInvalidUser
	}

	switch action {
	case models.AdminActionAdd, models.AdminActionRemove:
		if amount <= 0 {
			return 0, models.ErrInvalidAmount
		}
	case models.AdminActionSet:
		if amount < 0 {
			return 0, models.ErrInvalidAmount
		}
	default:
		return 0, models.ErrInvalidAction
	}

	ctx, cancel := withTimeout(ctx, s.lockTimeout)
	defer cancel()

	tx := events.NewTransactionalBus(s.bus)
	defer tx.Flush()

	var before int64
	acc, created, err := s.ledger.Mutate(ctx, target, func(acc *models.Account) error {
		before = acc.Balance
		switch action {
		case models.AdminActionAdd:
			acc.Balance = models.AddCoins(acc.Balance, amount)
		case models.AdminActionRemove:
			acc.Balance = models.AddCoins(acc.Balance, -amount)
		case models.AdminActionSet:
			acc.Balance = amount
		}
		return nil
	})
	ok, err := checkPersistence(err, "admin_adjust", target, tx)
	if !ok {
		return 0, fmt.Errorf("failed to adjust balance: %w", err)
	}

	if created {
		tx.Publish(events.AccountCreatedEvent{User: target, InitialBalance: before})
	}
	tx.Publish(events.BalanceChangeEvent{
		User:            target,
		OldBalance:      before,
		NewBalance:      acc.Balance,
		ChangeAmount:    acc.Balance - before,
		TransactionType: models.TransactionTypeAdminAdjust,
	})

	log.WithFields(log.Fields{
		"caller":     models.NormalizeUser(caller),
		"target":     target,
		"action":     action,
		"amount":     amount,
		"newBalance": acc.Balance,
	}).Info("Admin adjusted balance")

	return acc.Balance, err
}
