package cmd

import (
	"context"
	"fmt"
	"time"

	"roulette/bot"
	"roulette/config"
	"roulette/database"
	"roulette/events"
	"roulette/game"
	"roulette/infrastructure"
	"roulette/ledger"
	"roulette/models"
	"roulette/observability"
	"roulette/repository"
	"roulette/server"
	"roulette/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	SetupLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting roulette...")

	// Load the ledger from disk
	store := repository.NewFileStore(cfg.DataFile)
	l := ledger.New(store, cfg.StartingBalance)
	if err := l.Open(ctx); err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}

	// Initialize the wheel
	gameCfg, err := GameConfig(cfg.Game)
	if err != nil {
		return err
	}
	engine, err := game.NewEngine(gameCfg, nil)
	if err != nil {
		return fmt.Errorf("failed to create game engine: %w", err)
	}
	edges := engine.HouseEdge()
	log.WithFields(log.Fields{
		"variant":    gameCfg.Variant,
		"payoutMode": gameCfg.PayoutMode,
		"edgeRed":    edges[models.ColorRed],
		"edgeBlack":  edges[models.ColorBlack],
		"edgeGreen":  edges[models.ColorGreen],
	}).Info("Game engine initialized")

	// Initialize event bus and its subscribers
	eventBus := events.NewBus()
	metrics := observability.NewMetrics()
	metrics.Subscribe(eventBus)

	// Initialize services
	rules := map[models.RewardKind]service.RewardRule{
		models.RewardActivity: {Interval: cfg.ActivityInterval, Amount: cfg.ActivityReward},
		models.RewardDaily:    {Interval: cfg.DailyInterval, Amount: cfg.DailyReward},
	}
	rewards := service.NewRewardService(l, eventBus, rules, nil)
	casino := service.NewCasinoService(l, engine, rewards, eventBus, service.CasinoOptions{
		Admins:      cfg.AdminUsers,
		LockTimeout: cfg.LockTimeout,
	})
	if len(cfg.AdminUsers) == 0 {
		log.Warn("ADMIN_USERS is empty, admin adjustments are disabled")
	}

	// Cleanups are registered as each component starts
	stack := &shutdownStack{}
	defer func() {
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		stack.run(shutdownCtx)
		log.Info("Shutdown completed")
	}()

	// Optional Postgres mirror
	if cfg.DatabaseURL != "" {
		if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to migrate mirror database: %w", err)
		}
		db, err := database.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		stack.push("database", func(context.Context) error {
			db.Close()
			return nil
		})

		worker := service.NewMirrorWorker(l, repository.NewMirrorRepository(db), cfg.MirrorInterval)
		worker.Subscribe(eventBus)
		stopMirror := worker.Start(ctx)
		stack.push("mirror", func(context.Context) error {
			stopMirror()
			return nil
		})
	}

	// Optional NATS event stream
	if cfg.NATSURL != "" {
		natsClient := infrastructure.NewNATSClient(cfg.NATSURL)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := natsClient.Connect(connectCtx)
		cancel()
		if err != nil {
			return err
		}
		stack.push("nats", func(context.Context) error {
			return natsClient.Close()
		})
		infrastructure.NewNATSEventPublisher(natsClient, cfg.NATSSubjectPrefix).Subscribe(eventBus)
	}

	// HTTP dispatcher
	httpServer := server.New(server.DefaultConfig(cfg.HTTPAddr), casino, metrics.Handler())
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()
	stack.push("http", httpServer.Shutdown)

	// Optional Discord dispatcher
	if cfg.DiscordToken != "" {
		discordBot, err := bot.New(bot.Config{
			Token:          cfg.DiscordToken,
			GuildID:        cfg.DiscordGuildID,
			CommandTimeout: cfg.LockTimeout + 5*time.Second,
		}, casino)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord bot: %w", err)
		}
		stack.push("discord", func(context.Context) error {
			return discordBot.Close()
		})
	}

	log.Info("Roulette is running")

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		return err
	}
}
