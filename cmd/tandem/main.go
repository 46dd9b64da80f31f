package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tandem/internal/api"
	"github.com/terraincognita07/tandem/internal/cli"
	"github.com/terraincognita07/tandem/internal/config"
	"github.com/terraincognita07/tandem/internal/db"
	"github.com/terraincognita07/tandem/internal/i18n"
	"github.com/terraincognita07/tandem/internal/logging"
	"github.com/terraincognita07/tandem/internal/realtime"
	"github.com/terraincognita07/tandem/internal/services"
	"github.com/terraincognita07/tandem/internal/telegram"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	invocation, err := cli.Parse(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	location, err := cfg.Location()
	if err != nil {
		return err
	}
	time.Local = location

	database, err := db.Open(db.Options{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		URL:    cfg.Database.URL,
		Logger: logging.NewGormLogger(logger, gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			logger.Warn("database close failed", zap.Error(err))
		}
	}()
	repos := db.NewRepositories(database)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch invocation.Command {
	case cli.CommandSweep:
		days := invocation.Days
		if days == 0 {
			days = cfg.Notifications.RetentionDays
		}
		_, err := cli.RunSweepCommand(ctx, services.NewNotificationService(repos.Notifications), days, os.Stdout)
		return err
	case cli.CommandSeed:
		_, err := cli.RunSeedCommand(ctx, services.NewQuestionService(repos.Questions), os.Stdout)
		return err
	case cli.CommandResetPassword:
		return cli.RunResetPasswordCommand(ctx, services.NewAuthService(repos.Users), invocation.Email, os.Stdout)
	default:
		return serve(ctx, cfg, location, repos, logger)
	}
}

func serve(ctx context.Context, cfg config.Config, location *time.Location, repos *db.Repositories, logger *zap.Logger) error {
	srv, err := newServer(ctx, cfg, location, repos, logger)
	if err != nil {
		return err
	}
	srv.sweeper.Start(ctx)
	srv.reminder.Start(ctx)

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("tandem listening",
			zap.String("port", cfg.Port),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("tz", location.String()),
		)
		listenErr <- srv.app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		_ = srv.hub.Shutdown(context.Background())
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	srv.shutdown(shutdownCtx, logger)
	return <-listenErr
}

type server struct {
	app      *fiber.App
	hub      *realtime.Hub
	sweeper  *services.RetentionSweeper
	reminder *services.DDayReminder
}

// shutdown closes the realtime sessions before the HTTP server: an open
// websocket keeps its handler running until the hub lets go of it.
func (srv *server) shutdown(ctx context.Context, logger *zap.Logger) {
	if err := srv.hub.Shutdown(ctx); err != nil {
		logger.Warn("realtime shutdown failed", zap.Error(err))
	}
	if err := srv.app.ShutdownWithContext(ctx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}

// newServer wires the ledger, the notifier, the couple registry, the hub and
// the background tickers.
// The notifier only learns about the hub after the hub exists, which breaks
// the construction cycle between them.
func newServer(ctx context.Context, cfg config.Config, location *time.Location, repos *db.Repositories, logger *zap.Logger) (*server, error) {
	translator, err := i18n.NewManager(cfg.DefaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("i18n init failed: %w", err)
	}

	ledger := services.NewNotificationService(repos.Notifications)
	notifier := services.NewNotifier(ledger, repos.Users, translator, logger)
	couples := services.NewCoupleService(repos.Couples, repos.Users, notifier, logger)
	questions := services.NewQuestionService(repos.Questions)
	inserted, err := questions.EnsureCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed question catalog: %w", err)
	}
	if inserted > 0 {
		logger.Info("question catalog seeded", zap.Int64("inserted", inserted))
	}

	var metrics *realtime.Metrics
	if cfg.MetricsEnabled {
		metrics = realtime.NewMetrics("tandem")
	}
	relay, err := newRelay(cfg, logger)
	if err != nil {
		return nil, err
	}
	hub := realtime.NewHub(couples, ledger, realtime.HubOptions{
		SendBuffer:       cfg.Realtime.SendBuffer,
		PresenceInterval: cfg.Realtime.PresenceInterval,
		Relay:            relay,
		Metrics:          metrics,
		Logger:           logger,
	})
	if err := hub.Start(); err != nil {
		_ = relay.Close()
		return nil, fmt.Errorf("start realtime hub: %w", err)
	}
	notifier.UsePublisher(hub)

	if token := cfg.Telegram.BotToken; token != "" {
		sender, err := telegram.New(token, logger)
		if err != nil {
			_ = hub.Shutdown(context.Background())
			return nil, err
		}
		notifier.UseOfflineDelivery(sender)
		logger.Info("telegram offline delivery enabled")
	}

	ddays := services.NewDDayService(repos.DDays, couples, notifier, location, logger)
	handler, err := api.NewHandler(api.Services{
		Auth:          services.NewAuthService(repos.Users),
		Couples:       couples,
		Questions:     questions,
		Assignments:   services.NewAssignmentService(repos.Assignments, repos.Questions),
		Answers:       services.NewAnswerService(repos.Answers, repos.Questions, repos.Users, couples, notifier, location, logger),
		Notifications: ledger,
		Moods:         services.NewMoodService(repos.Moods, repos.Users, couples, notifier, location, logger),
		Memories:      services.NewMemoryService(repos.Memories, repos.Users, couples, notifier, location, logger),
		DDays:         ddays,
	}, api.Options{
		SecretKey:    cfg.SecretKey,
		Location:     location,
		CookieSecure: cfg.CookieSecure,
		Languages:    translator,
		Hub:          hub,
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		_ = hub.Shutdown(context.Background())
		return nil, fmt.Errorf("handler init failed: %w", err)
	}

	return &server{
		app:      api.NewApp(handler),
		hub:      hub,
		sweeper:  services.NewRetentionSweeper(ledger, cfg.RetentionAge(), cfg.Notifications.SweepInterval, logger),
		reminder: services.NewDDayReminder(ddays, cfg.Notifications.ReminderInterval, logger),
	}, nil
}

// newRelay connects to NATS when NATS_URL is set. Without it the instance
// runs alone and pushes never leave the process.
func newRelay(cfg config.Config, logger *zap.Logger) (realtime.Relay, error) {
	if cfg.Realtime.NATSURL == "" {
		return realtime.NewLocalRelay(), nil
	}
	relay, err := realtime.ConnectNATSRelay(cfg.Realtime.NATSURL, cfg.Realtime.NATSSubject, logger)
	if err != nil {
		return nil, err
	}
	return relay, nil
}
