package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"stockpulse/internal/application/port"
	"stockpulse/internal/application/service"
	"stockpulse/internal/domain"
	"stockpulse/internal/infrastructure/config"
	"stockpulse/internal/infrastructure/logger"
	"stockpulse/internal/infrastructure/quote"
	"stockpulse/internal/infrastructure/storage/postgres"
	"stockpulse/internal/infrastructure/storage/redispub"
	"stockpulse/internal/infrastructure/storage/sqlite"
	"stockpulse/internal/infrastructure/ws"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger.Setup(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	universe := domain.NewUniverse(cfg.Universe.Symbols)
	loc, _ := time.LoadLocation(cfg.App.Timezone)

	ledger := openLedger(cfg)
	defer ledger.Close()

	var mirror port.PriceMirror
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		mirror = redispub.New(rdb, cfg.Redis.Prefix, time.Duration(cfg.Redis.TTLSec)*time.Second)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis price mirror enabled")
	}

	source := quote.NewClient(cfg.Quote.PriceURL, cfg.Quote.HistoryURL)
	cache := service.NewQuoteCache()
	index := service.NewTriggerIndex()
	hub := ws.NewHub()

	// An incomplete trigger set makes matching unsafe, so a failed load is
	// fatal to startup.
	if err := index.Load(ctx, ledger); err != nil {
		log.Fatal().Err(err).Msg("trigger index load failed")
	}
	log.Info().Int("pending_orders", index.Count()).Msg("trigger index loaded")

	engine := service.NewEngine(service.EngineDeps{
		Fetcher:   service.NewFetcher(source, universe, cfg.App.FetchWorkers, cfg.FetchTimeout()),
		Cache:     cache,
		RefClose:  service.NewRefCloseResolver(source, universe, loc, cfg.App.MarketOpenHour),
		Matcher:   service.NewMatcher(index, ledger, hub),
		Publisher: hub,
		Mirror:    mirror,
		Universe:  universe,
		Interval:  cfg.RefreshInterval(),
	})
	engine.Start(ctx)

	orders := service.NewOrderService(index, ledger)
	server := ws.NewServer(ctx, hub, engine, cache, orders)

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: server.Routes(),
	}

	go func() {
		log.Info().Str("addr", cfg.Server.ListenAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server exited")
			stop()
		}
	}()

	<-ctx.Done()

	log.Info().Msg("shutting down")
	engine.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func openLedger(cfg *config.Config) port.Ledger {
	switch cfg.Storage.Driver {
	case "postgres":
		ledger, err := postgres.New(cfg.Storage.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres ledger failed")
		}
		log.Info().Msg("using postgres ledger")
		return ledger
	default:
		ledger, err := sqlite.New(cfg.Storage.DSN)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Storage.DSN).Msg("open sqlite ledger failed")
		}
		log.Info().Str("path", cfg.Storage.DSN).Msg("using sqlite ledger")
		return ledger
	}
}
