package models

import (
	"fmt"
	"strings"
	"time"
)

// RewardKind identifies an independent cooldown-gated reward
type RewardKind string

const (
	RewardActivity RewardKind = "activity"
	RewardDaily    RewardKind = "daily"
)

// ParseRewardKind validates a reward kind; "bonus" is accepted as an alias for daily
func ParseRewardKind(raw string) (RewardKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "activity":
		return RewardActivity, nil
	case "daily", "bonus", "":
		return RewardDaily, nil
	}
	return "", fmt.Errorf("%w: unknown reward %q", ErrInvalidInput, raw)
}

// GrantResult represents the outcome of a reward claim
type GrantResult struct {
	Kind       RewardKind
	Granted    bool
	Amount     int64
	Remaining  time.Duration
	NewBalance int64
}

// AdminAction is an admin balance adjustment
type AdminAction string

const (
	AdminActionAdd    AdminAction = "add"
	AdminActionRemove AdminAction = "remove"
	AdminActionSet    AdminAction = "set"
)

// ParseAdminAction validates an admin action
func ParseAdminAction(raw string) (AdminAction, error) {
	a := AdminAction(strings.ToLower(strings.TrimSpace(raw)))
	switch a {
	case AdminActionAdd, AdminActionRemove, AdminActionSet:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, raw)
}
