package cmd

import (
	"context"
	"fmt"

	"roulette/config"
	"roulette/database"
	"roulette/ledger"
	"roulette/repository"

	log "github.com/sirupsen/logrus"
)

func openMirror(ctx context.Context, cfg *config.Config) (*database.DB, *repository.MirrorRepository, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
		return nil, nil, err
	}
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, repository.NewMirrorRepository(db), nil
}

// Export copies the ledger file into the Postgres mirror once
func Export(ctx context.Context) error {
	cfg := config.Get()
	SetupLogging(cfg)

	db, mirror, err := openMirror(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	snapshot, err := repository.NewFileStore(cfg.DataFile).Load(ctx)
	if err != nil {
		return err
	}
	if err := mirror.Export(ctx, snapshot); err != nil {
		return err
	}

	log.WithField("accounts", len(snapshot)).Info("Exported ledger to mirror")
	return nil
}

// Restore replaces the ledger file with the Postgres mirror's contents.
// Run it while the service is stopped.
func Restore(ctx context.Context) error {
	cfg := config.Get()
	SetupLogging(cfg)

	db, mirror, err := openMirror(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	snapshot, err := mirror.Load(ctx)
	if err != nil {
		return err
	}

	l := ledger.New(repository.NewFileStore(cfg.DataFile), cfg.StartingBalance)
	if err := l.Replace(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to restore ledger: %w", err)
	}

	log.WithFields(log.Fields{
		"accounts": len(snapshot),
		"path":     cfg.DataFile,
	}).Info("Restored ledger from mirror")
	return nil
}
