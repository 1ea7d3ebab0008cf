package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"roulette/events"
	"roulette/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewardService_TryGrant_OncePerWindow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, new(MockGameEngine))

	first, err := env.rewards.TryGrant(ctx, "ana", models.RewardActivity, 15*time.Minute, 50)
	require.NoError(t, err)
	assert.True(t, first.Granted)
	assert.Equal(t, int64(50), first.Amount)
	assert.Equal(t, int64(1050), first.NewBalance)

	env.clock.Advance(10 * time.Minute)
	second, err := env.rewards.TryGrant(ctx, "ana", models.RewardActivity, 15*time.Minute, 50)
	require.NoError(t, err)
	assert.False(t, second.Granted)
	assert.Equal(t, 5*time.Minute, second.Remaining)
	assert.Equal(t, int64(1050), second.NewBalance)

	env.clock.Advance(5 * time.Minute)
	third, err := env.rewards.TryGrant(ctx, "ana", models.RewardActivity, 15*time.Minute, 50)
	require.NoError(t, err)
	assert.True(t, third.Granted)
	assert.Equal(t, int64(1100), third.NewBalance)

	assert.Len(t, env.eventsOfType(events.EventTypeBonusGranted), 2)
}

func TestRewardService_KindsAreIndependent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, new(MockGameEngine))

	daily, err := env.casino.ClaimBonus(ctx, "ana", models.RewardDaily)
	require.NoError(t, err)
	assert.True(t, daily.Granted)

	activity, err := env.casino.ClaimBonus(ctx, "ana", models.RewardActivity)
	require.NoError(t, err)
	assert.True(t, activity.Granted)
	assert.Equal(t, int64(1550), activity.NewBalance)

	stats, err := env.casino.Stats(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now().Unix(), stats.LastBonusAt)
	assert.Equal(t, env.clock.Now().Unix(), stats.LastActivityAt)

	// Activity becomes available again long before the daily bonus
	env.clock.Advance(20 * time.Minute)
	activity, err = env.casino.ClaimBonus(ctx, "ana", models.RewardActivity)
	require.NoError(t, err)
	assert.True(t, activity.Granted)

	_, err = env.casino.ClaimBonus(ctx, "ana", models.RewardDaily)
	var cooldown *models.CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.ErrorIs(t, err, models.ErrCooldownActive)
	assert.Equal(t, models.RewardDaily, cooldown.Kind)
	assert.Equal(t, 24*time.Hour-20*time.Minute, cooldown.Remaining)
}

func TestRewardService_ConcurrentClaimsGrantOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, new(MockGameEngine))

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := env.rewards.TryGrant(ctx, "ana", models.RewardDaily, 24*time.Hour, 500)
			if assert.NoError(t, err) && result.Granted {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), granted.Load())
	balance, err := env.casino.CheckBalance(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), balance)
}

func TestRewardService_InvalidInput(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, new(MockGameEngine))

	_, err := env.rewards.TryGrant(ctx, "", models.RewardDaily, time.Hour, 10)
	assert.ErrorIs(t, err, models.ErrInvalidUser)

	_, err = env.rewards.TryGrant(ctx, "ana", models.RewardDaily, time.Hour, 0)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	_, err = env.rewards.TryGrant(ctx, "ana", models.RewardKind("weekly"), time.Hour, 10)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = env.rewards.ClaimBonus(ctx, "ana", models.RewardKind("weekly"))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCooldownRemaining(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Duration(0), CooldownRemaining(0, now, time.Hour))
	assert.Equal(t, 45*time.Minute, CooldownRemaining(now.Add(-15*time.Minute).Unix(), now, time.Hour))
	assert.Equal(t, time.Duration(0), CooldownRemaining(now.Add(-time.Hour).Unix(), now, time.Hour))
	// A timestamp from the future keeps the full cooldown
	assert.Equal(t, time.Hour, CooldownRemaining(now.Add(time.Minute).Unix(), now, time.Hour))

	assert.Equal(t, now.Add(45*time.Minute), NextAvailableTime(now.Add(-15*time.Minute).Unix(), now, time.Hour))
}
