// Command suggest is an interactive destination picker: every line typed is a
// new query, and the list is redrawn with the cities of the latest query only.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"ean_hotel/internal/adapters/ean"
	"ean_hotel/internal/adapters/observability"
	redisad "ean_hotel/internal/adapters/redis"
	"ean_hotel/internal/app"
	"ean_hotel/internal/async"
	"ean_hotel/internal/domain"
	"ean_hotel/internal/shared"
)

// listView prints the current suggestion list. Replace only runs on the
// dispatcher goroutine, so it needs no locking.
type listView struct {
	out   io.Writer
	items []domain.Destination
}

func (v *listView) Replace(ds []domain.Destination) {
	v.items = ds
	if len(ds) == 0 {
		fmt.Fprintln(v.out, "  (no cities)")
		return
	}
	for i, d := range ds {
		fmt.Fprintf(v.out, "  %d. %s\n", i+1, d.Name)
	}
}

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	client, err := ean.New(cfg.EANBase, cfg.EANKey, cfg.EANCID, cfg.EANRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize EAN client")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lookup domain.DestinationLookup = app.NewRemoteLookup(client, nil)
	if cfg.RedisAddr != "" {
		cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer cache.Close()
		if err := cache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, lookups are not cached")
		} else {
			lookup = app.NewCachedLookup(lookup, cache, cfg.CacheTTL)
		}
	}

	disp := async.NewDispatcher(16)
	svc := app.NewSuggestionService(lookup, &listView{out: os.Stdout}, disp, log.Logger)

	// read queries off the main goroutine; the main goroutine runs deliveries
	go func() {
		defer stop()
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			svc.Suggest(ctx, sc.Text(), cfg.SuggestLimit)
		}
		if err := sc.Err(); err != nil {
			log.Error().Err(err).Msg("read stdin failed")
		}
		svc.Kill()
	}()

	fmt.Fprintln(os.Stdout, "type a destination, one query per line (Ctrl-D to quit)")
	if err := disp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("dispatcher stopped")
	}
}
