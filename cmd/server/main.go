package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kjannette/trahn-ladder/internal/api"
	"github.com/kjannette/trahn-ladder/internal/config"
	"github.com/kjannette/trahn-ladder/internal/db"
	"github.com/kjannette/trahn-ladder/internal/ethereum"
	"github.com/kjannette/trahn-ladder/internal/external"
	"github.com/kjannette/trahn-ladder/internal/logging"
	"github.com/kjannette/trahn-ladder/internal/metrics"
	"github.com/kjannette/trahn-ladder/internal/notifications"
	"github.com/kjannette/trahn-ladder/internal/repository"
	"github.com/kjannette/trahn-ladder/internal/risk"
	"github.com/kjannette/trahn-ladder/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║      TRAHN Grid Ladder Service       ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Init(cfg.Logging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(logger); err != nil {
		logger.Fatal(err)
	}
	cfg.Print(logger)

	// Store
	dbLog := logging.Component(logger, "db")
	store, err := openStore(cfg, dbLog)
	if err != nil {
		dbLog.WithError(err).Fatal("store unavailable")
	}
	defer func() {
		store.Close()
		dbLog.Info("store closed")
	}()

	// Price source
	priceLog := logging.Component(logger, "price")
	prices, closePrices, err := openPriceSource(cfg, priceLog)
	if err != nil {
		priceLog.WithError(err).Fatal("price source unavailable")
	}
	defer closePrices()

	m := metrics.New()
	guardian := risk.NewGuardian(risk.Limits{
		MaxTotalCapital: cfg.MaxTotalCapital,
		MaxLevelAmount:  cfg.MaxLevelAmount,
	})
	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName, logging.Component(logger, "notify"))

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. API server
	apiLog := logging.Component(logger, "api")
	srv := api.NewServer(api.Options{
		Port:        cfg.APIPort,
		APIKey:      cfg.APIKey,
		CORSOrigin:  cfg.CORSAllowOrigin,
		Store:       store,
		Prices:      prices,
		PriceSource: cfg.PriceSource,
		Defaults:    cfg.LadderDefaults(),
		Guardian:    guardian,
		Metrics:     m,
		Log:         apiLog,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			apiLog.WithError(err).Fatal("server error")
		}
	}()

	// 2. Refresher
	var refresher *scheduler.LadderRefresher
	schedLog := logging.Component(logger, "scheduler")
	if cfg.RefreshIntervalMinutes > 0 {
		refresher = scheduler.NewLadderRefresher(prices, store, guardian, notify, m, schedLog,
			scheduler.RefresherConfig{
				Interval:        time.Duration(cfg.RefreshIntervalMinutes) * time.Minute,
				ChangeThreshold: cfg.RefreshChangePercent,
				Params:          cfg.LadderDefaults(),
				SourceName:      cfg.PriceSource,
			})
		refresher.Start()
	} else {
		schedLog.Info("refresher disabled (REFRESH_INTERVAL_MINUTES=0)")
	}

	logger.Info("all services started")

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutting down gracefully")

	if refresher != nil {
		refresher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		apiLog.WithError(err).Error("shutdown error")
	}
	apiLog.Info("server closed")
	logger.Info("shutdown complete")
}

func openStore(cfg *config.Config, log logrus.FieldLogger) (repository.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case "postgres":
		log.WithField("target", fmt.Sprintf("%s:%d/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)).Info("connecting to postgres")
		pool, err := db.Connect(cfg.DSN())
		if err != nil {
			return nil, err
		}
		if err := db.TestConnection(pool, log); err != nil {
			pool.Close()
			return nil, err
		}
		if err := db.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return repository.NewPGStore(pool), nil
	default:
		log.WithField("path", cfg.SQLitePath).Info("opening sqlite")
		d, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.MigrateSQLite(ctx, d); err != nil {
			d.Close()
			return nil, err
		}
		return repository.NewSQLiteStore(d), nil
	}
}

func openPriceSource(cfg *config.Config, log logrus.FieldLogger) (external.PriceSource, func(), error) {
	noop := func() {}
	switch cfg.PriceSource {
	case "coingecko":
		log.WithFields(logrus.Fields{"coin": cfg.CoinGeckoCoinID, "vs": cfg.CoinGeckoVsCurrency}).Info("using coingecko")
		return external.NewCoinGeckoClient(cfg.CoinGeckoBaseURL, cfg.CoinGeckoCoinID, cfg.CoinGeckoVsCurrency, log), noop, nil
	case "uniswap":
		client, err := ethereum.Dial(cfg.EthereumAPIEndpoint)
		if err != nil {
			return nil, noop, err
		}
		q, err := ethereum.NewUniswapQuoter(client, cfg.UniswapRouter, cfg.UniswapBaseToken, cfg.UniswapQuoteToken,
			cfg.UniswapBaseDecimals, cfg.UniswapQuoteDecimal)
		if err != nil {
			client.Close()
			return nil, noop, err
		}
		log.WithField("router", cfg.UniswapRouter).Info("using uniswap v2 quotes")
		return q, client.Close, nil
	default:
		log.WithField("price", cfg.LadderPrice).Info("using static price")
		return external.StaticPrice(cfg.LadderPrice), noop, nil
	}
}
