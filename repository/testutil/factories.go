package testutil

import (
	"fmt"

	"roulette/models"
)

// CreateTestAccount creates an account with the given balance and no history
func CreateTestAccount(balance int64) models.Account {
	return models.Account{Balance: balance}
}

// CreateTestSnapshot creates n accounts named user-0..user-n-1 with
// descending balances starting at top
func CreateTestSnapshot(n int, top int64) models.Snapshot {
	snapshot := make(models.Snapshot, n)
	for i := 0; i < n; i++ {
		snapshot[fmt.Sprintf("user-%d", i)] = models.Account{
			Balance:        top - int64(i)*10,
			Wins:           int64(i),
			Losses:         int64(n - i),
			LastBonusAt:    1792238400,
			LastActivityAt: 1792238400 + int64(i),
		}
	}
	return snapshot
}
