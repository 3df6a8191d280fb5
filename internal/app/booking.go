package app

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"

	"ean_hotel/internal/domain"
)

// end-user messages for failed reservation retrievals
const (
	msgBadDate     = "The booking service returned an unreadable stay date. Please contact customer support with your itinerary number."
	msgNotFound    = "We could not find a reservation for this itinerary number. Please check the number and try again."
	msgRedirected  = "The booking service is temporarily unreachable. Please try again in a few minutes."
	msgUnavailable = "We could not retrieve your reservation right now. Please try again later or contact customer support with your itinerary number."
)

type BookingService struct {
	client   domain.BookingClient
	failures domain.FailureLog
}

// NewBookingService builds the service; failures may be nil.
func NewBookingService(c domain.BookingClient, failures domain.FailureLog) *BookingService {
	return &BookingService{client: c, failures: failures}
}

// GetReservation retrieves and decodes the reservation of an itinerary. Every
// failure is a *domain.BookingError carrying text for the end user.
func (s *BookingService) GetReservation(ctx context.Context, itineraryID int64) (domain.Reservation, error) {
	doc, err := s.client.GetReservation(ctx, itineraryID)
	if err != nil {
		return domain.Reservation{}, s.fail(ctx, itineraryID, "fetch", err)
	}
	r, err := ParseReservation(doc)
	if err != nil {
		return domain.Reservation{}, s.fail(ctx, itineraryID, "parse", err)
	}
	return r, nil
}

func (s *BookingService) fail(ctx context.Context, itineraryID int64, stage string, err error) error {
	be := &domain.BookingError{ItineraryID: itineraryID, Message: userMessage(err), Err: err}

	// cancellation by the caller is not a failure worth recording
	if ctx.Err() == nil && s.failures != nil {
		if lerr := s.failures.Record(ctx, "reservation:"+stage, strconv.FormatInt(itineraryID, 10), err.Error()); lerr != nil {
			log.Warn().Err(lerr).Int64("itinerary", itineraryID).Msg("record failure failed")
		}
	}
	log.Warn().Err(err).Int64("itinerary", itineraryID).Str("stage", stage).Msg("reservation retrieval failed")
	return be
}

func userMessage(err error) string {
	var (
		de *domain.DateFormatError
		se *domain.ServiceError
		re *domain.RedirectError
	)
	switch {
	case errors.As(err, &de):
		return msgBadDate
	case errors.As(err, &se) && se.PresentationMessage != "":
		return se.PresentationMessage
	case errors.Is(err, domain.ErrNotFound):
		return msgNotFound
	case errors.As(err, &re):
		return msgRedirected
	}
	return msgUnavailable
}
