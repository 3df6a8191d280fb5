package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"ean_hotel/internal/domain"
)

// sharedLookupTimeout bounds a collapsed remote call, which no single caller owns.
const sharedLookupTimeout = 20 * time.Second

// LookupClient is the remote side of destination suggestions.
type LookupClient interface {
	SuggestDestinations(ctx context.Context, query string) (any, error)
}

// RemoteLookup maps raw lookup payloads to destinations. Failed lookups are
// recorded when a failure log is set.
type RemoteLookup struct {
	client   LookupClient
	failures domain.FailureLog
}

// NewRemoteLookup builds the lookup; failures may be nil.
func NewRemoteLookup(c LookupClient, failures domain.FailureLog) *RemoteLookup {
	return &RemoteLookup{client: c, failures: failures}
}

func (l *RemoteLookup) Lookup(ctx context.Context, query string) ([]domain.Destination, error) {
	payload, err := l.client.SuggestDestinations(ctx, query)
	if err != nil {
		l.record(ctx, query, err)
		return nil, err
	}
	return ParseDestinations(payload), nil
}

// record skips cancellations: a superseded query is not a failure.
func (l *RemoteLookup) record(ctx context.Context, query string, err error) {
	if l.failures == nil || ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return
	}
	if lerr := l.failures.Record(ctx, "lookup", normalizeQuery(query), err.Error()); lerr != nil {
		log.Warn().Err(lerr).Str("q", query).Msg("record failure failed")
	}
}

// CachedLookup serves repeated queries from cache and collapses concurrent
// misses for the same query into one remote call. Errors are never cached.
//
// The collapsed call runs detached from its callers, so one caller going away
// never fails the others; each caller still returns as soon as its own ctx
// is done.
type CachedLookup struct {
	inner    domain.DestinationLookup
	cache    domain.Cache
	cacheTTL time.Duration
	group    singleflight.Group
}

func NewCachedLookup(inner domain.DestinationLookup, c domain.Cache, ttl time.Duration) *CachedLookup {
	return &CachedLookup{inner: inner, cache: c, cacheTTL: ttl}
}

func normalizeQuery(query string) string { return strings.ToLower(strings.TrimSpace(query)) }

func lookupKey(query string) string { return "dest:" + normalizeQuery(query) }

func (l *CachedLookup) Lookup(ctx context.Context, query string) ([]domain.Destination, error) {
	key := lookupKey(query)
	var out []domain.Destination
	ok, err := l.cache.Get(ctx, key, &out)
	switch {
	case ok && err == nil:
		return out, nil
	case ok:
		// unreadable entry: drop it and refetch
		log.Warn().Err(err).Str("key", key).Msg("destination cache entry corrupt")
		if derr := l.cache.Del(ctx, key); derr != nil {
			log.Warn().Err(derr).Str("key", key).Msg("destination cache delete failed")
		}
	case err != nil:
		log.Warn().Err(err).Str("key", key).Msg("destination cache read failed")
	}

	ch := l.group.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		ds, err := l.inner.Lookup(sctx, query)
		if err != nil {
			return nil, err
		}
		if err := l.cache.Set(sctx, key, ds, int(l.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("destination cache write failed")
		}
		return ds, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// copy to avoid aliasing the slice shared with collapsed callers
		ds := res.Val.([]domain.Destination)
		return append([]domain.Destination(nil), ds...), nil
	}
}
