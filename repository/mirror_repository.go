package repository

import (
	"context"
	"fmt"

	"roulette/database"
	"roulette/models"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// MirrorRepository replicates ledger snapshots to Postgres.
// It is never on the request path; the file store stays authoritative.
type MirrorRepository struct {
	db *database.DB
}

// NewMirrorRepository creates a new mirror repository
func NewMirrorRepository(db *database.DB) *MirrorRepository {
	return &MirrorRepository{db: db}
}

// Export makes the accounts table match snapshot in one transaction
func (r *MirrorRepository) Export(ctx context.Context, snapshot models.Snapshot) error {
	users := make([]string, 0, len(snapshot))
	for user := range snapshot {
		users = append(users, user)
	}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO accounts (user_id, balance, wins, losses, last_bonus_at, last_activity_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (user_id) DO UPDATE SET
				balance = EXCLUDED.balance,
				wins = EXCLUDED.wins,
				losses = EXCLUDED.losses,
				last_bonus_at = EXCLUDED.last_bonus_at,
				last_activity_at = EXCLUDED.last_activity_at,
				updated_at = NOW()
		`

		batch := &pgx.Batch{}
		for _, user := range users {
			acc := snapshot[user]
			batch.Queue(query, user, acc.Balance, acc.Wins, acc.Losses, acc.LastBonusAt, acc.LastActivityAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert accounts: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM accounts WHERE NOT (user_id = ANY($1))`, users); err != nil {
			return fmt.Errorf("failed to prune accounts: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.WithField("accounts", len(snapshot)).Debug("Exported snapshot to mirror")
	return nil
}

// Load reads every mirrored account back into a snapshot
func (r *MirrorRepository) Load(ctx context.Context) (models.Snapshot, error) {
	query := `
		SELECT user_id, balance, wins, losses, last_bonus_at, last_activity_at
		FROM accounts
		ORDER BY user_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	snapshot := make(models.Snapshot)
	for rows.Next() {
		var user string
		var acc models.Account
		if err := rows.Scan(&user, &acc.Balance, &acc.Wins, &acc.Losses, &acc.LastBonusAt, &acc.LastActivityAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		snapshot[user] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return snapshot, nil
}
