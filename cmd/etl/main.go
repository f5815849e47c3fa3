package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	eneaadapter "github.com/eneamap/outage-data-etl/internal/adapter/enea"
	httpadapter "github.com/eneamap/outage-data-etl/internal/adapter/http"
	kafkaadapter "github.com/eneamap/outage-data-etl/internal/adapter/kafka"
	"github.com/eneamap/outage-data-etl/internal/adapter/nominatim"
	"github.com/eneamap/outage-data-etl/internal/config"
	"github.com/eneamap/outage-data-etl/internal/domain"
	"github.com/eneamap/outage-data-etl/internal/geocode"
	"github.com/eneamap/outage-data-etl/internal/observability"
	"github.com/eneamap/outage-data-etl/internal/pipeline"
	"github.com/eneamap/outage-data-etl/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Older data directories predate the region field; bring them up to
	// date before merging anything new.
	migrator := store.NewMigrator(cfg.DaysDir(), domain.LegacyRegion, clock, logger, metrics)
	migrated, err := migrator.Run()
	if err != nil {
		logger.Error("schema migration failed", "error", err)
		return 1
	}
	if migrated > 0 {
		logger.Info("schema migration complete", "files", migrated)
	}

	cache := geocode.OpenCache(cfg.CachePath(), logger)

	geocoder := nominatim.NewRateLimiter(
		nominatim.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, cfg.GeocoderLanguage, cfg.GeocoderTimeout, metrics, logger),
		cfg.GeocodeMinDelay,
		cfg.GeocodeErrorDelay,
		clock,
	)
	resolver := geocode.NewResolver(cache, geocoder, logger, metrics)

	feed := eneaadapter.NewClient(cfg.FeedBaseURL, cfg.FeedTimeout, cfg.Regions, logger)
	extractor := domain.NewAddressExtractor(cfg.BareStreetFallback)
	days := store.NewDayStore(cfg.DaysDir(), clock, logger)
	index := store.NewIndex(cfg.IndexPath(), logger)

	var publisher pipeline.RecordPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = kp
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(feed, extractor, resolver, days, index, publisher, clock, logger, metrics)

	// The listener is optional; a geocoding run over a cold cache can take
	// minutes, and /progressz plus /metrics make that observable.
	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx)

	// The cache is saved even after a failed run: every geocoding answer
	// already paid for is kept for the next attempt.
	if err := cache.Save(); err != nil {
		logger.Error("saving geocoding cache failed", "error", err)
		if runErr == nil {
			runErr = err
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		return 1
	}
	return 0
}
