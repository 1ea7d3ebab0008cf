package models

import "strings"

// Account is a viewer's ledger record keyed by normalized user id
type Account struct {
	Balance        int64 `json:"balance"`
	Wins           int64 `json:"wins"`
	Losses         int64 `json:"losses"`
	LastBonusAt    int64 `json:"last_bonus_at"`    // unix seconds, 0 when never claimed
	LastActivityAt int64 `json:"last_activity_at"` // unix seconds, 0 when never claimed
}

// Snapshot is the full mapping of accounts persisted as a unit
type Snapshot map[string]Account

// Clone returns a deep copy that can be handed to another goroutine
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, acc := range s {
		out[id] = acc
	}
	return out
}

// NormalizeUser lowercases and trims a user identifier.
// Chat bots often pass mentions, so a leading "@" is dropped as well.
func NormalizeUser(user string) string {
	user = strings.TrimSpace(user)
	user = strings.TrimPrefix(user, "@")
	return strings.ToLower(strings.TrimSpace(user))
}

// AccountEntry pairs an account with its user id
type AccountEntry struct {
	User    string
	Account Account
}

// LeaderboardEntry represents a user's entry in the leaderboard
type LeaderboardEntry struct {
	Rank    int
	User    string
	Balance int64
	Wins    int64
	Losses  int64
}
