package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidUser       = fmt.Errorf("%w: user is required", ErrInvalidInput)
	ErrInvalidColor      = fmt.Errorf("%w: color must be red, black or green", ErrInvalidInput)
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be a positive whole number", ErrInvalidInput)
	ErrInvalidAction     = fmt.Errorf("%w: action must be add, remove or set", ErrInvalidInput)
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrCooldownActive    = errors.New("cooldown active")
	ErrPersistence       = errors.New("persistence failure")
	ErrLockTimeout       = errors.New("ledger busy")
)

// InsufficientFundsError carries the balance seen at commit time
type InsufficientFundsError struct {
	Balance int64
	Amount  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d, need %d", e.Balance, e.Amount)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// CooldownError is returned when a reward is claimed before its interval elapsed
type CooldownError struct {
	Kind      RewardKind
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s reward on cooldown for another %s", e.Kind, e.Remaining)
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

// IsUserFacing reports whether err is an expected outcome that should become a reply
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrCooldownActive) ||
		errors.Is(err, ErrLockTimeout)
}
