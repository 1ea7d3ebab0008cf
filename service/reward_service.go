package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roulette/events"
	"roulette/models"

	log "github.com/sirupsen/logrus"
)

// RewardRule is the cooldown and amount for one reward kind
type RewardRule struct {
	Interval time.Duration
	Amount   int64
}

// DefaultRewardRules returns a 15 minute activity reward and a daily bonus
func DefaultRewardRules() map[models.RewardKind]RewardRule {
	return map[models.RewardKind]RewardRule{
		models.RewardActivity: {Interval: 15 * time.Minute, Amount: 50},
		models.RewardDaily:    {Interval: 24 * time.Hour, Amount: 500},
	}
}

type rewardService struct {
	ledger AccountLedger
	bus    *events.Bus
	rules  map[models.RewardKind]RewardRule
	now    func() time.Time
}

// NewRewardService creates the cooldown reward policy. A nil clock uses time.Now.
func NewRewardService(ledger AccountLedger, bus *events.Bus, rules map[models.RewardKind]RewardRule, now func() time.Time) RewardService {
	if now == nil {
		now = time.Now
	}
	if rules == nil {
		rules = DefaultRewardRules()
	}
	return &rewardService{
		ledger: ledger,
		bus:    bus,
		rules:  rules,
		now:    now,
	}
}

// timestampField returns the account field tracking the last grant of kind
func timestampField(acc *models.Account, kind models.RewardKind) (*int64, error) {
	switch kind {
	case models.RewardActivity:
		return &acc.LastActivityAt, nil
	case models.RewardDaily:
		return &acc.LastBonusAt, nil
	}
	return nil, fmt.Errorf("%w: unknown reward %q", models.ErrInvalidInput, kind)
}

func (s *rewardService) TryGrant(ctx context.Context, user string, kind models.RewardKind, interval time.Duration, amount int64) (*models.GrantResult, error) {
	user = models.NormalizeUser(user)
	if user == "" {
		return nil, models.ErrInvalidUser
	}
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	tx := events.NewTransactionalBus(s.bus)
	defer tx.Flush()

	// Timestamps are stored at second resolution
	now := time.Unix(s.now().Unix(), 0)

	var before int64
	acc, created, err := s.ledger.Mutate(ctx, user, func(acc *models.Account) error {
		field, err := timestampField(acc, kind)
		if err != nil {
			return err
		}
		if remaining := CooldownRemaining(*field, now, interval); remaining > 0 {
			return &models.CooldownError{Kind: kind, Remaining: remaining}
		}

		before = acc.Balance
		acc.Balance = models.AddCoins(acc.Balance, amount)
		*field = now.Unix()
		return nil
	})

	var cooldown *models.CooldownError
	if errors.As(err, &cooldown) {
		return &models.GrantResult{
			Kind:       kind,
			Granted:    false,
			Remaining:  cooldown.Remaining,
			NewBalance: acc.Balance,
		}, nil
	}

	ok, err := checkPersistence(err, "grant_"+string(kind), user, tx)
	if !ok {
		return nil, fmt.Errorf("failed to grant reward: %w", err)
	}

	if created {
		tx.Publish(events.AccountCreatedEvent{User: user, InitialBalance: before})
	}
	tx.Publish(events.BalanceChangeEvent{
		User:            user,
		OldBalance:      before,
		NewBalance:      acc.Balance,
		ChangeAmount:    acc.Balance - before,
		TransactionType: models.TransactionTypeBonus,
	})
	tx.Publish(events.BonusGrantedEvent{User: user, Kind: kind, Amount: amount})

	log.WithFields(log.Fields{
		"user":       user,
		"kind":       kind,
		"amount":     amount,
		"newBalance": acc.Balance,
	}).Info("Reward granted")

	return &models.GrantResult{
		Kind:       kind,
		Granted:    true,
		Amount:     amount,
		NewBalance: acc.Balance,
	}, err
}

func (s *rewardService) ClaimBonus(ctx context.Context, user string, kind models.RewardKind) (*models.GrantResult, error) {
	rule, ok := s.rules[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown reward %q", models.ErrInvalidInput, kind)
	}

	result, err := s.TryGrant(ctx, user, kind, rule.Interval, rule.Amount)
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return nil, err
	}
	if !result.Granted {
		return result, &models.CooldownError{Kind: kind, Remaining: result.Remaining}
	}
	return result, err
}
