package models

import "math"

// AddCoins returns a+b, saturating at the int64 bounds instead of wrapping
func AddCoins(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}

// MulCoins returns amount*m for non-negative operands, saturating at math.MaxInt64
func MulCoins(amount, m int64) int64 {
	if amount <= 0 || m <= 0 {
		return 0
	}
	if amount > math.MaxInt64/m {
		return math.MaxInt64
	}
	return amount * m
}
