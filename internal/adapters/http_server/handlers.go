// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"ean_hotel/internal/app"
	"ean_hotel/internal/domain"
)

// ReservationGetter is the booking side used by the reservation endpoint.
type ReservationGetter interface {
	GetReservation(ctx context.Context, itineraryID int64) (domain.Reservation, error)
}

type Handlers struct {
	Lookup   domain.DestinationLookup
	Bookings ReservationGetter
	Failures domain.FailureLister // optional; /v1/failures is mounted only when set
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type destinationsResponse struct {
	Query        string               `json:"query"`
	Destinations []domain.Destination `json:"destinations"`
}

type failuresResponse struct {
	Kind     string           `json:"kind"`
	Failures []domain.Failure `json:"failures"`
}

const (
	maxSuggestionLimit  = 50
	defaultFailureLimit = 20
	maxFailureLimit     = 100
)

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/destinations", h.listDestinations)
	s.mux.Get("/v1/reservations/{id}", h.getReservation)
	if h.Failures != nil {
		s.mux.Get("/v1/failures", h.listFailures)
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON sends v with an ETag, answering 304 when the client already has it.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) listDestinations(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeProblem(w, http.StatusBadRequest, "Missing query", "q must not be empty")
		return
	}

	limit := app.DefaultSuggestionLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > maxSuggestionLimit {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 50")
			return
		}
		limit = l
	}

	ds, err := h.Lookup.Lookup(r.Context(), q)
	if err != nil {
		if domain.IsLookupError(err) {
			writeProblem(w, http.StatusBadGateway, "Lookup failed", "destination service rejected the query")
			return
		}
		log.Error().Err(err).Str("q", q).Msg("destination lookup failed")
		writeProblem(w, http.StatusBadGateway, "Lookup failed", "destination service unavailable")
		return
	}

	writeJSON(w, r, destinationsResponse{Query: q, Destinations: app.FilterCities(ds, limit)})
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "itinerary id must be a positive number")
		return
	}

	res, err := h.Bookings.GetReservation(r.Context(), id)
	if err != nil {
		var be *domain.BookingError
		if !errors.As(err, &be) {
			writeProblem(w, http.StatusBadGateway, "Reservation unavailable", "")
			return
		}
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeProblem(w, status, "Reservation unavailable", be.Message)
		return
	}

	writeJSON(w, r, res)
}

func (h *Handlers) listFailures(w http.ResponseWriter, r *http.Request) {
	kind := strings.TrimSpace(r.URL.Query().Get("kind"))
	if kind == "" {
		writeProblem(w, http.StatusBadRequest, "Missing kind", "kind must not be empty (e.g. lookup, reservation:fetch)")
		return
	}
	limit := defaultFailureLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > maxFailureLimit {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
			return
		}
		limit = l
	}

	fs, err := h.Failures.Recent(r.Context(), kind, limit)
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("list failures failed")
		writeProblem(w, http.StatusInternalServerError, "Failure log unavailable", "")
		return
	}
	if fs == nil {
		fs = []domain.Failure{}
	}
	writeJSON(w, r, failuresResponse{Kind: kind, Failures: fs})
}
