package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"roulette/cmd"
	"roulette/config"
	"roulette/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		if err := handleSubcommand(os.Args[1:]); err != nil {
			log.Fatalf("%s error: %v", os.Args[1], err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func handleSubcommand(args []string) error {
	ctx := context.Background()

	switch args[0] {
	case "migrate":
		return handleMigrationCommand(args[1:])
	case "export":
		return cmd.Export(ctx)
	case "restore":
		return cmd.Restore(ctx)
	}
	return fmt.Errorf("usage: roulette [migrate up|down [steps]|status | export | restore]")
}

func handleMigrationCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: roulette migrate [up|down|status] [args...]")
	}

	cfg := config.Get()
	cmd.SetupLogging(cfg)
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch args[0] {
	case "up":
		return database.MigrateUp(cfg.DatabaseURL)
	case "down":
		steps := "1"
		if len(args) > 1 {
			steps = args[1]
		}
		return database.MigrateDown(cfg.DatabaseURL, steps)
	case "status":
		return database.MigrateStatus(cfg.DatabaseURL)
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}
