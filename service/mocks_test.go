package service

import (
	"context"
	"errors"
	"sync"

	"roulette/game"
	"roulette/models"

	"github.com/stretchr/testify/mock"
)

// MockGameEngine is a mock implementation of GameEngine
type MockGameEngine struct {
	mock.Mock
}

func (m *MockGameEngine) Resolve(choice models.Color, bet int64) game.Resolution {
	args := m.Called(choice, bet)
	return args.Get(0).(game.Resolution)
}

// MockSnapshotSource is a mock implementation of SnapshotSource
type MockSnapshotSource struct {
	mock.Mock
}

func (m *MockSnapshotSource) Export(ctx context.Context) (models.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.Snapshot), args.Error(1)
}

// MockSnapshotExporter is a mock implementation of SnapshotExporter
type MockSnapshotExporter struct {
	mock.Mock
}

func (m *MockSnapshotExporter) Export(ctx context.Context, snapshot models.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// memoryStore keeps the last saved snapshot in memory
type memoryStore struct {
	mu       sync.Mutex
	snapshot models.Snapshot
	saves    int
	fail     bool
}

func (s *memoryStore) Load(ctx context.Context) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone(), nil
}

func (s *memoryStore) Save(ctx context.Context, snapshot models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("disk full")
	}
	s.snapshot = snapshot.Clone()
	s.saves++
	return nil
}

func (s *memoryStore) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *memoryStore) saved(user string) (models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.snapshot[user]
	return acc, ok
}

// sequenceSource returns the queued values in order, then repeats the last one
type sequenceSource struct {
	mu     sync.Mutex
	values []int
}

func (s *sequenceSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[0]
	if len(s.values) > 1 {
		s.values = s.values[1:]
	}
	return v % n
}
