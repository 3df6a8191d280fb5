package domain

import (
	"context"
	"time"
)

// DestinationLookup resolves a free-text query to destination records.
type DestinationLookup interface {
	Lookup(ctx context.Context, query string) ([]Destination, error)
}

// BookingClient returns the raw reservation document for an itinerary.
type BookingClient interface {
	GetReservation(ctx context.Context, itineraryID int64) (map[string]any, error)
}

// SuggestionSink is the presentation side of the suggestion pipeline. Replace
// is only ever called from the delivery sequence.
type SuggestionSink interface {
	Replace(ds []Destination)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// FailureLog records failed remote operations for support follow-up.
type FailureLog interface {
	Record(ctx context.Context, kind, subject, reason string) error
}

// Failure is one recorded failed remote operation. Repeats of the same kind
// and subject bump Hits.
type Failure struct {
	Kind    string    `json:"kind"`
	Subject string    `json:"subject"`
	Reason  string    `json:"reason"`
	Hits    int       `json:"hits"`
	SeenAt  time.Time `json:"seenAt"`
}

// FailureLister reads back recorded failures, newest first.
type FailureLister interface {
	Recent(ctx context.Context, kind string, limit int) ([]Failure, error)
}
