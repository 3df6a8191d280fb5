package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ean_hotel/internal/domain"
)

type fakeBookingClient struct {
	doc map[string]any
	err error
}

func (f *fakeBookingClient) GetReservation(ctx context.Context, id int64) (map[string]any, error) {
	return f.doc, f.err
}

type failure struct{ kind, subject, reason string }

type memFailureLog struct {
	mu   sync.Mutex
	recs []failure
	err  error
}

func (m *memFailureLog) Record(ctx context.Context, kind, subject, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, failure{kind, subject, reason})
	return m.err
}

func TestBookingService_OK(t *testing.T) {
	client := &fakeBookingClient{doc: map[string]any{
		"itineraryId":         "42",
		"confirmationNumbers": "12345",
		"arrivalDate":         "06/01/2013",
		"departureDate":       "06/05/2013",
	}}
	failures := &memFailureLog{}
	r, err := NewBookingService(client, failures).GetReservation(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if r.ItineraryID != 42 || r.ConfirmationNumbers()[0] != 12345 {
		t.Fatalf("unexpected reservation %+v", r)
	}
	if len(failures.recs) != 0 {
		t.Fatalf("unexpected failure records %v", failures.recs)
	}
}

func TestBookingService_Failures(t *testing.T) {
	badDate := map[string]any{"arrivalDate": "13/99/2013", "departureDate": "06/05/2013"}
	cases := []struct {
		name    string
		client  *fakeBookingClient
		kind    string
		message string
		is      error
	}{
		{"bad date", &fakeBookingClient{doc: badDate}, "reservation:parse", msgBadDate, nil},
		{"not found", &fakeBookingClient{err: domain.ErrNotFound}, "reservation:fetch", msgNotFound, domain.ErrNotFound},
		{
			"service message",
			&fakeBookingClient{err: &domain.ServiceError{Category: "DATA_VALIDATION", PresentationMessage: "Itinerary is cancelled."}},
			"reservation:fetch", "Itinerary is cancelled.", nil,
		},
		{"service without message", &fakeBookingClient{err: &domain.ServiceError{Category: "UNKNOWN"}}, "reservation:fetch", msgUnavailable, nil},
		{"redirect", &fakeBookingClient{err: &domain.RedirectError{StatusCode: 301}}, "reservation:fetch", msgRedirected, nil},
		{"transport", &fakeBookingClient{err: errors.New("dial tcp: refused")}, "reservation:fetch", msgUnavailable, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			failures := &memFailureLog{}
			_, err := NewBookingService(tc.client, failures).GetReservation(context.Background(), 7)

			var be *domain.BookingError
			if !errors.As(err, &be) {
				t.Fatalf("expected BookingError, got %v", err)
			}
			if be.ItineraryID != 7 || be.Message != tc.message {
				t.Fatalf("unexpected booking error %+v", be)
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("expected %v in chain", tc.is)
			}
			if len(failures.recs) != 1 || failures.recs[0].kind != tc.kind || failures.recs[0].subject != "7" {
				t.Fatalf("unexpected failure records %v", failures.recs)
			}
		})
	}
}

func TestBookingService_DateErrorKeepsCause(t *testing.T) {
	client := &fakeBookingClient{doc: map[string]any{"arrivalDate": "06/01/2013", "departureDate": "bad"}}
	_, err := NewBookingService(client, nil).GetReservation(context.Background(), 1)
	var de *domain.DateFormatError
	if !errors.As(err, &de) || de.Field != "departureDate" || de.Value != "bad" {
		t.Fatalf("expected departure DateFormatError, got %v", err)
	}
}

func TestBookingService_CancelledCallIsNotRecorded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	failures := &memFailureLog{}
	_, err := NewBookingService(&fakeBookingClient{err: context.Canceled}, failures).GetReservation(ctx, 3)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation in chain, got %v", err)
	}
	if len(failures.recs) != 0 {
		t.Fatalf("cancelled call recorded: %v", failures.recs)
	}
}

func TestBookingService_FailureLogErrorDoesNotMaskResult(t *testing.T) {
	failures := &memFailureLog{err: errors.New("db down")}
	_, err := NewBookingService(&fakeBookingClient{err: domain.ErrNotFound}, failures).GetReservation(context.Background(), 9)
	var be *domain.BookingError
	if !errors.As(err, &be) || be.Message != msgNotFound {
		t.Fatalf("expected not-found booking error, got %v", err)
	}
}
