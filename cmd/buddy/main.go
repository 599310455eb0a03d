package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/alexanderramin/focusbuddy/internal/cli"
	"github.com/alexanderramin/focusbuddy/internal/config"
	"github.com/alexanderramin/focusbuddy/internal/db"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/logging"
	"github.com/alexanderramin/focusbuddy/internal/metrics"
	"github.com/alexanderramin/focusbuddy/internal/repository"
	"github.com/alexanderramin/focusbuddy/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := config.DefaultPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logging.Sync(logger) }()

	database, err := db.OpenDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	categoryRepo := repository.NewSQLiteCategoryRepo(database)
	taskRepo := repository.NewSQLiteTaskRepo(database)
	sessionRepo := repository.NewSQLiteSessionRepo(database)
	eventRepo := repository.NewSQLiteEventRepo(database)
	reminderRepo := repository.NewSQLiteReminderRepo(database)
	modelRepo := repository.NewSQLiteModelVersionRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)
	m := metrics.New()

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithObserver(service.NewZapUseCaseObserver(logger, m)),
	}

	tracker := service.NewTrackerService(sessionRepo, eventRepo, uow, opts...)
	forecast := service.NewForecastService(sessionRepo, eventRepo, modelRepo, uow, cfg.Forecast, opts...)
	tracker.OnSessionEnd(func(domain.Session) { forecast.Invalidate() })

	// The companion drains prompts; one-shot commands never read them, so
	// a full channel drops the prompt rather than blocking the timer.
	prompts := make(chan service.Prompt, 4)
	notify := func(p service.Prompt) {
		select {
		case prompts <- p:
		default:
			logger.Debug("reminder prompt dropped", zap.String("kind", string(p.Kind)))
		}
	}
	reminders := service.NewReminderService(tracker, forecast, reminderRepo, cfg.Reminders, notify, opts...)

	state, err := tracker.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}
	logger.Debug("tracker restored", zap.String("state", string(state)))

	app := &cli.App{
		Tracker:    tracker,
		Forecast:   forecast,
		Catalog:    service.NewCatalogService(categoryRepo, taskRepo, uow, opts...),
		Stats:      service.NewStatsService(sessionRepo, eventRepo, taskRepo, reminderRepo),
		Data:       service.NewDataService(sessionRepo, uow, tracker, forecast, opts...),
		Reminders:  reminders,
		Prompts:    prompts,
		Logger:     logger,
		Metrics:    m,
		Config:     cfg,
		ConfigPath: configPath,
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}
