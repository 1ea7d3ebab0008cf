package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"roulette/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Store persists full ledger snapshots
type Store interface {
	// Load returns the last committed snapshot
	Load(ctx context.Context) (models.Snapshot, error)

	// Save atomically replaces the committed snapshot
	Save(ctx context.Context, snapshot models.Snapshot) error
}

// Decision resolves a bet after the stake has been debited.
// It receives the balance before the bet and reports whether the bet won and
// the gross payout to credit.
type Decision func(balanceBefore int64) (won bool, payout int64)

// Ledger is the authoritative in-memory view of all accounts.
// Every operation runs inside a single critical section guarding the whole
// ledger, and the resulting snapshot is persisted before the lock is released.
type Ledger struct {
	sem             *semaphore.Weighted
	store           Store
	startingBalance int64
	accounts        map[string]models.Account
}

// New creates a ledger backed by store. Call Open to load persisted state.
func New(store Store, startingBalance int64) *Ledger {
	return &Ledger{
		sem:             semaphore.NewWeighted(1),
		store:           store,
		startingBalance: startingBalance,
		accounts:        make(map[string]models.Account),
	}
}

// StartingBalance returns the balance given to new accounts
func (l *Ledger) StartingBalance() int64 {
	return l.startingBalance
}

// Open replaces the in-memory state with the store's snapshot
func (l *Ledger) Open(ctx context.Context) error {
	if err := l.lock(ctx); err != nil {
		return err
	}
	defer l.unlock()

	snapshot, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	l.accounts = make(map[string]models.Account, len(snapshot))
	for user, acc := range snapshot {
		l.accounts[user] = acc
	}
	return nil
}

func (l *Ledger) lock(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %v", models.ErrLockTimeout, err)
	}
	return nil
}

func (l *Ledger) unlock() {
	l.sem.Release(1)
}

// account returns the user's account, creating it in memory if needed.
// Caller must hold the lock.
func (l *Ledger) account(user string) (models.Account, bool) {
	if acc, ok := l.accounts[user]; ok {
		return acc, false
	}
	return models.Account{Balance: l.startingBalance}, true
}

// persist saves the current state. Caller must hold the lock.
// A failure is wrapped in ErrPersistence; the in-memory state is kept.
// The write is not tied to the caller's deadline once the lock is held.
func (l *Ledger) persist(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	snapshot := make(models.Snapshot, len(l.accounts))
	for user, acc := range l.accounts {
		snapshot[user] = acc
	}
	if err := l.store.Save(ctx, snapshot); err != nil {
		log.WithFields(log.Fields{
			"accounts": len(snapshot),
			"error":    err,
		}).Warn("Failed to persist ledger snapshot, keeping in-memory state")
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return nil
}

// Mutate atomically applies fn to the user's account and persists the result.
// If fn returns an error nothing is applied. The returned bool reports whether
// the account was created by this call.
func (l *Ledger) Mutate(ctx context.Context, user string, fn func(acc *models.Account) error) (models.Account, bool, error) {
	user = models.NormalizeUser(user)
	if user == "" {
		return models.Account{}, false, models.ErrInvalidUser
	}

	if err := l.lock(ctx); err != nil {
		return models.Account{}, false, err
	}
	defer l.unlock()

	acc, created := l.account(user)
	updated := acc
	if err := fn(&updated); err != nil {
		return acc, false, err
	}
	if updated.Balance < 0 {
		updated.Balance = 0
	}
	if updated.Wins < acc.Wins || updated.Losses < acc.Losses {
		return acc, false, fmt.Errorf("win/loss counters cannot decrease for %s", user)
	}

	l.accounts[user] = updated
	return updated, created, l.persist(ctx)
}

// GetOrCreate returns the user's account, creating it with the starting
// balance on first reference.
func (l *Ledger) GetOrCreate(ctx context.Context, user string) (models.Account, bool, error) {
	user = models.NormalizeUser(user)
	if user == "" {
		return models.Account{}, false, models.ErrInvalidUser
	}

	if err := l.lock(ctx); err != nil {
		return models.Account{}, false, err
	}
	defer l.unlock()

	acc, created := l.account(user)
	if !created {
		return acc, false, nil
	}
	l.accounts[user] = acc
	return acc, true, l.persist(ctx)
}

// ApplyDelta adds delta to the user's balance, clamping at zero and
// saturating at math.MaxInt64
func (l *Ledger) ApplyDelta(ctx context.Context, user string, delta int64) (int64, error) {
	acc, _, err := l.Mutate(ctx, user, func(acc *models.Account) error {
		acc.Balance = models.AddCoins(acc.Balance, delta)
		return nil
	})
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return 0, err
	}
	return acc.Balance, err
}

// Set overwrites the user's balance
func (l *Ledger) Set(ctx context.Context, user string, balance int64) (int64, error) {
	if balance < 0 {
		return 0, models.ErrInvalidAmount
	}
	acc, _, err := l.Mutate(ctx, user, func(acc *models.Account) error {
		acc.Balance = balance
		return nil
	})
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return 0, err
	}
	return acc.Balance, err
}

// TrySettleBet debits amount, resolves the bet with decide, credits the payout
// on a win and bumps the win/loss counters, all within one critical section.
func (l *Ledger) TrySettleBet(ctx context.Context, user string, amount int64, decide Decision) (*models.SettleResult, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	result := &models.SettleResult{}
	_, created, err := l.Mutate(ctx, user, func(acc *models.Account) error {
		// Re-read under the lock; this is the balance the bet commits against
		if amount > acc.Balance {
			return &models.InsufficientFundsError{Balance: acc.Balance, Amount: amount}
		}

		result.BalanceBefore = acc.Balance
		acc.Balance -= amount

		won, payout := decide(result.BalanceBefore)
		if won {
			if payout < 0 {
				payout = 0
			}
			acc.Balance = models.AddCoins(acc.Balance, payout)
			acc.Wins++
		} else {
			payout = 0
			acc.Losses++
		}

		result.Won = won
		result.Payout = payout
		result.NewBalance = acc.Balance
		return nil
	})
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return nil, err
	}
	result.Created = created
	return result, err
}

// Get returns the user's account without creating it
func (l *Ledger) Get(ctx context.Context, user string) (models.Account, bool, error) {
	user = models.NormalizeUser(user)
	if err := l.lock(ctx); err != nil {
		return models.Account{}, false, err
	}
	defer l.unlock()

	acc, ok := l.accounts[user]
	return acc, ok, nil
}

// Snapshot returns every account ordered by balance descending, ties broken
// by user id so the order is deterministic.
func (l *Ledger) Snapshot(ctx context.Context) ([]models.AccountEntry, error) {
	if err := l.lock(ctx); err != nil {
		return nil, err
	}
	entries := make([]models.AccountEntry, 0, len(l.accounts))
	for user, acc := range l.accounts {
		entries = append(entries, models.AccountEntry{User: user, Account: acc})
	}
	l.unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Account.Balance != entries[j].Account.Balance {
			return entries[i].Account.Balance > entries[j].Account.Balance
		}
		return entries[i].User < entries[j].User
	})
	return entries, nil
}

// Export returns an immutable copy of every account for replication
func (l *Ledger) Export(ctx context.Context) (models.Snapshot, error) {
	if err := l.lock(ctx); err != nil {
		return nil, err
	}
	defer l.unlock()

	snapshot := make(models.Snapshot, len(l.accounts))
	for user, acc := range l.accounts {
		snapshot[user] = acc
	}
	return snapshot, nil
}

// Replace swaps the whole ledger state, used when restoring from a mirror
func (l *Ledger) Replace(ctx context.Context, snapshot models.Snapshot) error {
	if err := l.lock(ctx); err != nil {
		return err
	}
	defer l.unlock()

	l.accounts = make(map[string]models.Account, len(snapshot))
	for user, acc := range snapshot {
		if user = models.NormalizeUser(user); user != "" {
			l.accounts[user] = acc
		}
	}
	return l.persist(ctx)
}
