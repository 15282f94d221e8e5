package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheikh-saqib/double-entry-balancer/internal/accounts"
	"github.com/sheikh-saqib/double-entry-balancer/internal/auth"
	"github.com/sheikh-saqib/double-entry-balancer/internal/balancer"
	"github.com/sheikh-saqib/double-entry-balancer/internal/config"
	"github.com/sheikh-saqib/double-entry-balancer/internal/events"
	"github.com/sheikh-saqib/double-entry-balancer/internal/events/kafka"
	"github.com/sheikh-saqib/double-entry-balancer/internal/http/controller"
	"github.com/sheikh-saqib/double-entry-balancer/internal/http/router"
	interfaces "github.com/sheikh-saqib/double-entry-balancer/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-balancer/internal/ledger"
	"github.com/sheikh-saqib/double-entry-balancer/internal/logger"
	"github.com/sheikh-saqib/double-entry-balancer/internal/storage/memory"
	"github.com/sheikh-saqib/double-entry-balancer/internal/storage/postgres"
	"github.com/sheikh-saqib/double-entry-balancer/internal/storage/sqlite"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", err, nil)
		os.Exit(1)
	}
	logger.Setup(os.Stdout, cfg.Debug)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", err, nil)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("server stopped with error", err, nil)
		os.Exit(1)
	}
	logger.Info("server stopped", nil)
}

func run(ctx context.Context, cfg *config.Config) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, closePublisher := newPublisher(cfg)
	defer closePublisher()

	chart, err := loadChart(cfg.ChartPath)
	if err != nil {
		return err
	}

	registry, err := auth.ParseRegistry(cfg.AuthUsers)
	if err != nil {
		return err
	}
	if registry.Len() == 0 {
		logger.Warn("authentication disabled, every request is treated as admin", logger.Fields{"authDisabled": cfg.AuthDisabled})
	}

	b := balancer.New(balancer.Options{Tolerance: cfg.Tolerance, Policy: cfg.TriggerPolicy})
	opts := []ledger.Option{
		ledger.WithTopic(cfg.KafkaTopic),
		ledger.WithDefaultCurrency(cfg.DefaultCurrency),
	}
	if chart.Len() > 0 {
		opts = append(opts, ledger.WithDirectory(chart))
	}
	ledgerService := ledger.NewLedger(store, publisher, b, opts...)

	handler := router.New(ledgerService, auth.Authenticate(registry),
		controller.NewDocumentController(ledgerService, cfg.Locale),
		controller.NewAccountController(chart, ledgerService, cfg.Locale, cfg.DefaultCurrency),
	)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", logger.Fields{
			"addr":    cfg.HTTPAddr,
			"storage": cfg.StorageDriver,
			"policy":  b.Policy().String(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (interfaces.BatchStore, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("postgres store ready", logger.Fields{"dsn": cfg.DatabaseDSN})
		return store, closer("postgres store", store), nil
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite store ready", logger.Fields{"path": store.Path()})
		return store, closer("sqlite store", store), nil
	default:
		return memory.NewMemoryBatchStore(), func() {}, nil
	}
}

func newPublisher(cfg *config.Config) (interfaces.EventPublisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NopPublisher{}, func() {}
	}
	p := kafka.NewPublisher(cfg.KafkaBrokers)
	logger.Info("kafka publisher ready", logger.Fields{"brokers": cfg.KafkaBrokers, "topic": cfg.KafkaTopic})
	return p, closer("kafka publisher", p)
}

// loadChart reads the chart of accounts. Without a path the chart is empty
// and account refs are not checked.
func loadChart(path string) (*accounts.Directory, error) {
	if path == "" {
		return accounts.NewDirectory(nil)
	}
	chart, err := accounts.LoadChart(path)
	if err != nil {
		return nil, err
	}
	logger.Info("chart of accounts loaded", logger.Fields{"path": path, "accounts": chart.Len()})
	return chart, nil
}

func closer(name string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Error("failed to close "+name, err, nil)
		}
	}
}
