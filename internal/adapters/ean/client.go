// internal/adapters/ean/client.go
package ean

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ean_hotel/internal/adapters/observability"
	"ean_hotel/internal/domain"
)

type Client struct {
	base string
	hc   *http.Client
	key  string
	cid  string
	rl   *rate.Limiter
}

func New(base, key, cid string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc: &http.Client{
			Timeout: 20 * time.Second,
			// redirects are reported, never followed
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		key: key,
		cid: cid,
		rl:  rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API (tries modern endpoints first, falls back to legacy variants) ----

// SuggestDestinations returns the raw lookup payload for a free-text query.
func (c *Client) SuggestDestinations(ctx context.Context, query string) (any, error) {
	q := url.Values{"query": {query}}
	var out any
	if err := c.get(ctx, "destinations", c.endpoint("/destinations", q), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetReservation returns the reservation document of an itinerary, unwrapped
// from its HotelRoomReservationResponse envelope when present.
func (c *Client) GetReservation(ctx context.Context, itineraryID int64) (map[string]any, error) {
	id := strconv.FormatInt(itineraryID, 10)
	candidates := []string{
		c.endpoint("/itineraries/"+id+"/reservation", nil),   // preferred
		c.endpoint("/itin", url.Values{"itineraryId": {id}}), // legacy
	}
	var raw any
	if err := c.getFirst(ctx, "reservation", candidates, &raw); err != nil {
		return nil, err
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("reservation %d: unexpected payload %T", itineraryID, raw)
	}
	if inner, ok := doc["HotelRoomReservationResponse"].(map[string]any); ok {
		doc = inner
	}
	return doc, nil
}

// ---- Internals ----

var (
	ErrNotFound     = domain.ErrNotFound
	ErrUnauthorized = errors.New("ean: unauthorized")
	ErrForbidden    = errors.New("ean: forbidden")
)

func (c *Client) endpoint(path string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	q.Set("apiKey", c.key)
	if c.cid != "" {
		q.Set("cid", c.cid)
	}
	return c.base + path + "?" + q.Encode()
}

func (c *Client) getFirst(ctx context.Context, name string, urls []string, out any) error {
	var last error
	for _, u := range urls {
		if err := c.get(ctx, name, u, out); err != nil {
			if errors.Is(err, ErrNotFound) {
				last = err
				continue // try next pattern
			}
			return err // non-404: stop early
		}
		return nil // success
	}
	if last != nil {
		return last
	}
	return errors.New("no candidate URL succeeded")
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
// A redirect is a *domain.RedirectError; a body carrying EanWsError is a *domain.ServiceError.
func (c *Client) get(ctx context.Context, name, url string, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "ean-hotel/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("ean", name, 0, time.Since(start))
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			// context-aware sleep before retry
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			// no more retries or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("ean", name, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusCreated, resp.StatusCode == http.StatusAccepted:
			err := decode(resp.Body, out)
			resp.Body.Close()
			return err

		case resp.StatusCode >= 300 && resp.StatusCode < 400 && resp.StatusCode != http.StatusNotModified:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return &domain.RedirectError{URL: redact(url), Location: resp.Header.Get("Location"), StatusCode: resp.StatusCode}

		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusInternalServerError,
			resp.StatusCode == http.StatusBadGateway, resp.StatusCode == http.StatusServiceUnavailable,
			resp.StatusCode == http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// business errors can arrive with a 4xx; otherwise keep a small body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			var v any
			var se *domain.ServiceError
			if err := decode(bytes.NewReader(b), &v); errors.As(err, &se) {
				return se
			}
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// decode reads JSON keeping numbers as json.Number, then surfaces an
// embedded EanWsError as a *domain.ServiceError.
func decode(r io.Reader, out any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if p, ok := out.(*any); ok {
		if se := serviceError(*p); se != nil {
			return se
		}
	}
	return nil
}

// serviceError finds EanWsError at the root or one envelope below it.
func serviceError(v any) *domain.ServiceError {
	root, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	ws, ok := root["EanWsError"].(map[string]any)
	if !ok {
		for _, inner := range root {
			if im, isObj := inner.(map[string]any); isObj {
				if ws, ok = im["EanWsError"].(map[string]any); ok {
					break
				}
			}
		}
	}
	if !ok {
		return nil
	}
	str := func(k string) string { s, _ := ws[k].(string); return s }
	se := &domain.ServiceError{
		Handling:            str("handling"),
		Category:            str("category"),
		PresentationMessage: str("presentationMessage"),
		VerboseMessage:      str("verboseMessage"),
	}
	switch id := ws["itineraryId"].(type) {
	case json.Number:
		se.ItineraryID, _ = id.Int64()
	case string:
		se.ItineraryID, _ = strconv.ParseInt(id, 10, 64)
	}
	return se
}

// redact drops credentials from a URL before it ends up in an error.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("apiKey") {
		q.Set("apiKey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	// concurrency-safe jitter using crypto/rand
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0                  // 0..1
	j := time.Duration(0.5 * f * float64(base)) // up to +50%
	return base + j
}
