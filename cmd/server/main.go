package main

import (
	"MTLAJoin/internal/adapters/eventbus"
	"MTLAJoin/internal/adapters/memory"
	"MTLAJoin/internal/adapters/metrics"
	"MTLAJoin/internal/adapters/ops"
	"MTLAJoin/internal/adapters/postgres"
	"MTLAJoin/internal/adapters/stellar"
	"MTLAJoin/internal/adapters/telegram"
	"MTLAJoin/internal/core/onboarding"
	"MTLAJoin/internal/core/operator"
	"MTLAJoin/internal/core/ports"
	"MTLAJoin/internal/shared/config"
	"MTLAJoin/internal/shared/logger"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "MTLAJoin/internal/bot/customer" // Registers the applicant handlers

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	baseLogger := logger.New(cfg.IsDev(), cfg.LogLevel)
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Str("bot_mode", cfg.Bot.Mode).
		Str("storage", cfg.Storage.Driver).
		Str("network", cfg.Ledger.Network).
		Int("admins", len(cfg.Operator.AdminIDs)).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, &baseLogger); err != nil {
		stop()
		baseLogger.Fatal().Err(err).Msg("Application stopped with error")
	}
	baseLogger.Info().Msg("Application stopped")
}

// run wires every component and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, baseLogger *zerolog.Logger) error {
	// 3. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	checks := map[string]ops.HealthCheck{}

	// 4. Initialize Repository
	var repo ports.ApplicantRepository
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Storage.DatabaseURL, cfg.Storage.MaxConns, baseLogger)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		repo = postgres.NewApplicantRepository(db, baseLogger)
		checks["postgres"] = db.Ping
	default:
		baseLogger.Warn().Msg("Using in-memory storage; applicants are lost on restart")
		repo = memory.NewApplicantRepository(baseLogger)
	}

	// 5. Ledger gateway
	horizonURL := cfg.Ledger.HorizonURL
	if horizonURL == "" {
		horizonURL = stellar.HorizonURLFor(cfg.Ledger.Network)
	}
	gateway, err := stellar.NewGateway(stellar.Config{
		HorizonURL:        horizonURL,
		FeedURL:           cfg.Ledger.FeedURL,
		RecommendTag:      cfg.Ledger.RecommendTag,
		Asset:             cfg.Ledger.Asset,
		VerifiedThreshold: cfg.Ledger.VerifiedThreshold,
		Timeout:           cfg.Ledger.Timeout,
	}, m, baseLogger)
	if err != nil {
		return fmt.Errorf("initialize ledger gateway: %w", err)
	}

	// 6. Core services
	bus := eventbus.NewInMemoryEventBus(baseLogger)
	m.Subscribe(bus)
	onboardingSvc := onboarding.NewService(repo, onboarding.NewEvaluator(gateway, baseLogger), bus, m, baseLogger)
	operatorSvc := operator.NewService(repo, onboardingSvc, operator.Config{
		IncompleteLimit: cfg.Operator.ReportLimit,
		ReminderDays:    cfg.Operator.ReminderDays,
	}, baseLogger)

	baseLogger.Info().Msg("All services initialized successfully")

	// 7. Run the bot and the ops server until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		opsServer := ops.NewServer(cfg.MetricsAddr, ops.NewRouter(reg, checks), baseLogger)
		g.Go(func() error { return opsServer.Start(gctx) })
	}
	g.Go(func() error {
		return telegram.NewOrchestrator(cfg, onboardingSvc, operatorSvc, bus, baseLogger).Start(gctx)
	})

	runErr := g.Wait()

	// 8. Let in-flight notifications finish
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bus.Close(closeCtx); err != nil {
		baseLogger.Warn().Err(err).Msg("Event handlers did not finish in time")
	}
	return runErr
}
