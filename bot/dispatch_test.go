package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"roulette/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCasinoService is a mock implementation of service.CasinoService
type MockCasinoService struct {
	mock.Mock
}

func (m *MockCasinoService) CheckBalance(ctx context.Context, user string) (int64, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCasinoService) PlaceBet(ctx context.Context, user string, color string, amount int64) (*models.BetResult, error) {
	args := m.Called(ctx, user, color, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetResult), args.Error(1)
}

func (m *MockCasinoService) ClaimBonus(ctx context.Context, user string, kind models.RewardKind) (*models.GrantResult, error) {
	args := m.Called(ctx, user, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GrantResult), args.Error(1)
}

func (m *MockCasinoService) Leaderboard(ctx context.Context, topN int) ([]models.LeaderboardEntry, error) {
	args := m.Called(ctx, topN)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LeaderboardEntry), args.Error(1)
}

func (m *MockCasinoService) AdminAdjust(ctx context.Context, caller, target string, action models.AdminAction, amount int64) (int64, error) {
	args := m.Called(ctx, caller, target, action, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCasinoService) Stats(ctx context.Context, user string) (models.Account, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.Account), args.Error(1)
}

func (m *MockCasinoService) IsAdmin(user string) bool {
	return m.Called(user).Bool(0)
}

func newCommand(name, user string) command {
	return command{
		name:    name,
		user:    user,
		strings: map[string]string{},
		ints:    map[string]int64{},
	}
}

func TestDispatch_Roulette(t *testing.T) {
	ctx := context.Background()
	casino := new(MockCasinoService)

	casino.On("PlaceBet", ctx, "ana", "green", int64(100)).Return(&models.BetResult{
		User:       "ana",
		Outcome:    models.Outcome{Color: models.ColorGreen, Pocket: -1},
		Won:        true,
		BetAmount:  100,
		Payout:     1400,
		NetProfit:  1300,
		NewBalance: 2300,
	}, nil)
	casino.On("PlaceBet", ctx, "ana", "red", int64(1500)).
		Return(nil, &models.InsufficientFundsError{Balance: 1000, Amount: 1500})

	cmd := newCommand("roulette", "ana")
	cmd.strings["color"] = "green"
	cmd.ints["bet"] = 100

	r := dispatch(ctx, casino, cmd)
	assert.Equal(t, "ana, the ball landed on green. You won 1,300! Balance: 2,300", r.content)
	assert.False(t, r.ephemeral)

	cmd.strings["color"] = "red"
	cmd.ints["bet"] = 1500
	r = dispatch(ctx, casino, cmd)
	assert.Equal(t, "ana, your bet exceeds your balance (1,000).", r.content)
	assert.True(t, r.ephemeral)
}

func TestDispatch_Bonus(t *testing.T) {
	ctx := context.Background()
	casino := new(MockCasinoService)

	casino.On("ClaimBonus", ctx, "ana", models.RewardDaily).Return(&models.GrantResult{
		Kind:       models.RewardDaily,
		Granted:    true,
		Amount:     500,
		NewBalance: 1500,
	}, fmt.Errorf("%w: disk full", models.ErrPersistence))
	casino.On("ClaimBonus", ctx, "ana", models.RewardActivity).Return(
		&models.GrantResult{Kind: models.RewardActivity, Remaining: 42 * time.Second},
		&models.CooldownError{Kind: models.RewardActivity, Remaining: 42 * time.Second},
	)

	r := dispatch(ctx, casino, newCommand("bonus", "ana"))
	assert.Equal(t, "ana, you received a daily bonus of 500! Balance: 1,500", r.content)

	r = dispatch(ctx, casino, newCommand("activity", "ana"))
	assert.Equal(t, "ana, your activity bonus is available again in 42s.", r.content)
	assert.True(t, r.ephemeral)
}

func TestDispatch_Admin(t *testing.T) {
	ctx := context.Background()
	casino := new(MockCasinoService)

	casino.On("AdminAdjust", ctx, "ana", "bob", models.AdminActionAdd, int64(50)).Return(int64(0), models.ErrNotAuthorized)
	casino.On("AdminAdjust", ctx, "streamer", "bob", models.AdminActionSet, int64(0)).Return(int64(0), nil)

	cmd := newCommand("admin", "ana")
	cmd.strings["action"] = "add"
	cmd.strings["user"] = "bob"
	cmd.ints["amount"] = 50

	r := dispatch(ctx, casino, cmd)
	assert.Equal(t, "ana, you are not allowed to do that.", r.content)

	cmd.user = "streamer"
	cmd.strings["action"] = "set"
	cmd.ints["amount"] = 0
	r = dispatch(ctx, casino, cmd)
	assert.Equal(t, "Done: set 0 for bob. New balance: 0", r.content)
}

func TestDispatch_StatsAndTop(t *testing.T) {
	ctx := context.Background()
	casino := new(MockCasinoService)

	casino.On("Stats", ctx, "bob").Return(models.Account{Balance: 40, Losses: 3}, nil)
	casino.On("Leaderboard", ctx, 0).Return([]models.LeaderboardEntry{{Rank: 1, User: "cid", Balance: 2000}}, nil)
	casino.On("CheckBalance", ctx, "ana").Return(int64(1000), nil)

	cmd := newCommand("stats", "ana")
	cmd.strings["user"] = "bob"
	assert.Equal(t, "bob: balance 40, 0 wins, 3 losses.", dispatch(ctx, casino, cmd).content)
	assert.Equal(t, "1. cid: 2,000", dispatch(ctx, casino, newCommand("top", "ana")).content)
	assert.Equal(t, "ana, your balance: 1,000.", dispatch(ctx, casino, newCommand("balance", "ana")).content)
}

func TestDispatch_InternalError(t *testing.T) {
	ctx := context.Background()
	casino := new(MockCasinoService)
	casino.On("Leaderboard", ctx, 0).Return(nil, errors.New("boom"))

	r := dispatch(ctx, casino, newCommand("top", "ana"))
	assert.Equal(t, "Something went wrong, try again later.", r.content)
	assert.True(t, r.ephemeral)
}

func TestCommandDefinitions(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range commandDefinitions() {
		names[cmd.Name] = true
	}
	for _, name := range []string{"roulette", "balance", "bonus", "activity", "top", "stats", "admin"} {
		require.True(t, names[name], name)
	}
}
