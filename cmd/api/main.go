package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"ean_hotel/internal/adapters/ean"
	server "ean_hotel/internal/adapters/http_server"
	"ean_hotel/internal/adapters/observability"
	redisad "ean_hotel/internal/adapters/redis"
	"ean_hotel/internal/app"
	"ean_hotel/internal/domain"
	"ean_hotel/internal/shared"
	mysqlrepo "ean_hotel/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger on stderr (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	client, err := ean.New(cfg.EANBase, cfg.EANKey, cfg.EANCID, cfg.EANRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize EAN client")
	}

	// failure log is optional
	var (
		failures domain.FailureLog
		lister   domain.FailureLister
	)
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo := mysqlrepo.New(db)
		failures, lister = repo, repo
	}

	// destination lookups, cached when redis is configured and reachable
	var lookup domain.DestinationLookup = app.NewRemoteLookup(client, failures)
	if cfg.RedisAddr != "" {
		cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := cache.Ping(ctx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, destination cache disabled")
			_ = cache.Close()
		} else {
			lookup = app.NewCachedLookup(lookup, cache, cfg.CacheTTL)
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("destination cache enabled")
		}
	}
	bookings := app.NewBookingService(client, failures)

	// http
	srv := server.New(log.Logger, cfg.RequestTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Lookup: lookup, Bookings: bookings, Failures: lister})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
