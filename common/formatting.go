package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"roulette/models"
)

// FormatBalance formats a balance amount with thousand separators
func FormatBalance(balance int64) string {
	// Magnitude goes through uint64 so math.MinInt64 has a positive form
	magnitude := uint64(balance)
	sign := ""
	if balance < 0 {
		magnitude = -magnitude
		sign = "-"
	}
	return sign + groupThousands(strconv.FormatUint(magnitude, 10))
}

func groupThousands(str string) string {
	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}
	return result.String()
}

// FormatDuration renders a cooldown as "1h 5m" or "42s"
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Second {
		d = time.Second
	}

	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// ParseAmount parses a bet or adjustment amount. Thousand separators are allowed.
func ParseAmount(raw string) (int64, error) {
	cleaned := strings.NewReplacer(",", "", "_", "").Replace(strings.TrimSpace(raw))
	amount, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || amount <= 0 {
		return 0, models.ErrInvalidAmount
	}
	return amount, nil
}

// FormatBetResult formats the reply to a settled bet
func FormatBetResult(r *models.BetResult) string {
	landed := string(r.Outcome.Color)
	if r.Outcome.Pocket >= 0 {
		landed = fmt.Sprintf("%s (%d)", r.Outcome.Color, r.Outcome.Pocket)
	}

	if r.Won {
		return fmt.Sprintf("%s, the ball landed on %s. You won %s! Balance: %s",
			r.User, landed, FormatBalance(r.NetProfit), FormatBalance(r.NewBalance))
	}
	return fmt.Sprintf("%s, the ball landed on %s. You lost %s. Balance: %s",
		r.User, landed, FormatBalance(r.BetAmount), FormatBalance(r.NewBalance))
}

// FormatBalanceReply formats a balance check
func FormatBalanceReply(user string, balance int64) string {
	return fmt.Sprintf("%s, your balance: %s.", models.NormalizeUser(user), FormatBalance(balance))
}

// FormatGrantResult formats a granted reward
func FormatGrantResult(user string, r *models.GrantResult) string {
	return fmt.Sprintf("%s, you received a %s bonus of %s! Balance: %s",
		models.NormalizeUser(user), r.Kind, FormatBalance(r.Amount), FormatBalance(r.NewBalance))
}

// FormatStats formats a user's balance and record
func FormatStats(user string, acc models.Account) string {
	return fmt.Sprintf("%s: balance %s, %d wins, %d losses.",
		models.NormalizeUser(user), FormatBalance(acc.Balance), acc.Wins, acc.Losses)
}

// FormatLeaderboard renders one line per entry
func FormatLeaderboard(entries []models.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "Nobody has played yet."
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%d. %s: %s", e.Rank, e.User, FormatBalance(e.Balance)))
	}
	return strings.Join(lines, "\n")
}

// FormatAdminResult formats an admin adjustment
func FormatAdminResult(target string, action models.AdminAction, amount, balance int64) string {
	return fmt.Sprintf("Done: %s %s for %s. New balance: %s",
		action, FormatBalance(amount), models.NormalizeUser(target), FormatBalance(balance))
}

// FormatError turns an expected error into a reply.
// The second return value is false for internal errors, which get a generic reply.
func FormatError(user string, err error) (string, bool) {
	user = models.NormalizeUser(user)

	var insufficient *models.InsufficientFundsError
	var cooldown *models.CooldownError
	switch {
	case errors.As(err, &insufficient):
		if insufficient.Balance <= 0 {
			return fmt.Sprintf("%s, you have 0 balance. Wait for a bonus!", user), true
		}
		return fmt.Sprintf("%s, your bet exceeds your balance (%s).", user, FormatBalance(insufficient.Balance)), true
	case errors.As(err, &cooldown):
		return fmt.Sprintf("%s, your %s bonus is available again in %s.", user, cooldown.Kind, FormatDuration(cooldown.Remaining)), true
	case errors.Is(err, models.ErrInvalidColor):
		return "Color must be red, black or green!", true
	case errors.Is(err, models.ErrInvalidAmount):
		return "The amount must be a positive number!", true
	case errors.Is(err, models.ErrInvalidAction):
		return "Action must be add, remove or set.", true
	case errors.Is(err, models.ErrInvalidUser):
		return "A user name is required.", true
	case errors.Is(err, models.ErrInvalidInput):
		return "Invalid input.", true
	case errors.Is(err, models.ErrNotAuthorized):
		return fmt.Sprintf("%s, you are not allowed to do that.", user), true
	case errors.Is(err, models.ErrLockTimeout):
		return "The casino is busy, try again in a moment.", true
	}
	return "Something went wrong, try again later.", false
}
