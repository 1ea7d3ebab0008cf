package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"roulette/events"
	"roulette/game"
	"roulette/ledger"
	"roulette/models"

	"github.com/stretchr/testify/require"
)

const testStartingBalance = 1000

// testEnv bundles a real ledger over an in-memory store
type testEnv struct {
	store   *memoryStore
	ledger  *ledger.Ledger
	bus     *events.Bus
	clock   *fakeClock
	rewards RewardService
	casino  CasinoService

	mu       sync.Mutex
	received []events.Event
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestEnv(t *testing.T, engine GameEngine, admins ...string) *testEnv {
	t.Helper()

	store := &memoryStore{snapshot: models.Snapshot{}}
	l := ledger.New(store, testStartingBalance)
	require.NoError(t, l.Open(context.Background()))

	env := &testEnv{
		store:  store,
		ledger: l,
		bus:    events.NewSyncBus(),
		clock:  &fakeClock{now: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)},
	}
	env.bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.received = append(env.received, event)
	})

	env.rewards = NewRewardService(l, env.bus, DefaultRewardRules(), env.clock.Now)
	env.casino = NewCasinoService(l, engine, env.rewards, env.bus, CasinoOptions{
		Admins:      admins,
		LockTimeout: 2 * time.Second,
	})
	return env
}

func (e *testEnv) eventsOfType(t events.EventType) []events.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []events.Event
	for _, ev := range e.received {
		if ev.Type() == t {
			out = append(out, ev)
		}
	}
	return out
}

// forcedEngine builds a real weighted engine whose spins always land on color
func forcedEngine(t *testing.T, color models.Color) *game.Engine {
	t.Helper()

	draw := map[models.Color]int{
		models.ColorRed:   0,
		models.ColorBlack: 47,
		models.ColorGreen: 99,
	}[color]
	engine, err := game.NewEngine(game.DefaultConfig(), &sequenceSource{values: []int{draw}})
	require.NoError(t, err)
	return engine
}
