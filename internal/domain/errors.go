package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// ServiceError is a structured business error returned by the remote service
// (its EanWsError element).
type ServiceError struct {
	ItineraryID         int64
	Handling            string
	Category            string
	PresentationMessage string
	VerboseMessage      string
}

func (e *ServiceError) Error() string {
	msg := e.VerboseMessage
	if msg == "" {
		msg = e.PresentationMessage
	}
	if e.Category != "" {
		return fmt.Sprintf("service error (%s): %s", e.Category, msg)
	}
	return "service error: " + msg
}

// RedirectError means a remote call was answered with a redirect, which the
// client never follows.
type RedirectError struct {
	URL        string
	Location   string
	StatusCode int
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("unexpected redirect %d from %s to %q", e.StatusCode, e.URL, e.Location)
}

// DateFormatError aborts a reservation parse.
type DateFormatError struct {
	Field string
	Value string
	Err   error
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("%s: invalid date %q (want MM/DD/YYYY)", e.Field, e.Value)
}

func (e *DateFormatError) Unwrap() error { return e.Err }

// BookingError is a failed reservation retrieval. Message is safe to show to
// the end user.
type BookingError struct {
	ItineraryID int64
	Message     string
	Err         error
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("reservation %d: %v", e.ItineraryID, e.Err)
}

func (e *BookingError) Unwrap() error { return e.Err }

// IsLookupError reports whether err is one of the remote service's own
// failure kinds (business error or redirect).
func IsLookupError(err error) bool {
	var se *ServiceError
	var re *RedirectError
	return errors.As(err, &se) || errors.As(err, &re)
}
