package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// Reservation is the decoded booking response for one itinerary. Values are
// built once by the parser; slices are only reachable through copying
// accessors so a Reservation cannot be changed after construction.
type Reservation struct {
	ItineraryID               int64
	ProcessedWithConfirmation bool
	ErrorText                 string
	HotelReplyText            string
	SupplierType              SupplierType
	ReservationStatusCode     ConfirmationStatus
	ExistingItinerary         bool
	CheckInInstructions       string
	ArrivalDate               Date
	DepartureDate             Date
	HotelName                 string
	HotelAddress              Address
	RoomDescription           string
	NonRefundable             bool
	RateOccupancyPerRoom      int
	CancellationPolicy        CancellationPolicy

	confirmationNumbers []int64
	rates               []Rate
}

// NewReservation copies confirmations and rates into r. confirmations must
// hold at least one element.
func NewReservation(r Reservation, confirmations []int64, rates []Rate) Reservation {
	r.confirmationNumbers = append([]int64(nil), confirmations...)
	r.rates = append(make([]Rate, 0, len(rates)), rates...)
	return r
}

// ConfirmationNumbers holds one number per booked room.
func (r Reservation) ConfirmationNumbers() []int64 {
	return append([]int64(nil), r.confirmationNumbers...)
}

func (r Reservation) RateInformations() []Rate {
	return append(make([]Rate, 0, len(r.rates)), r.rates...)
}

func (r Reservation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ItineraryID               int64              `json:"itineraryId"`
		ConfirmationNumbers       []int64            `json:"confirmationNumbers"`
		ProcessedWithConfirmation bool               `json:"processedWithConfirmation"`
		ErrorText                 string             `json:"errorText"`
		HotelReplyText            string             `json:"hotelReplyText"`
		SupplierType              SupplierType       `json:"supplierType"`
		ReservationStatusCode     ConfirmationStatus `json:"reservationStatus"`
		ExistingItinerary         bool               `json:"existingItinerary"`
		CheckInInstructions       string             `json:"checkInInstructions"`
		ArrivalDate               Date               `json:"arrivalDate"`
		DepartureDate             Date               `json:"departureDate"`
		HotelName                 string             `json:"hotelName"`
		HotelAddress              Address            `json:"hotelAddress"`
		RoomDescription           string             `json:"roomDescription"`
		NonRefundable             bool               `json:"nonRefundable"`
		RateOccupancyPerRoom      int                `json:"rateOccupancyPerRoom"`
		CancellationPolicy        CancellationPolicy `json:"cancellationPolicy"`
		RateInformations          []Rate             `json:"rateInformations"`
	}{
		r.ItineraryID, r.ConfirmationNumbers(), r.ProcessedWithConfirmation, r.ErrorText,
		r.HotelReplyText, r.SupplierType, r.ReservationStatusCode, r.ExistingItinerary,
		r.CheckInInstructions, r.ArrivalDate, r.DepartureDate, r.HotelName, r.HotelAddress,
		r.RoomDescription, r.NonRefundable, r.RateOccupancyPerRoom, r.CancellationPolicy,
		r.RateInformations(),
	})
}

type Address struct {
	Line1             string `json:"line1"`
	City              string `json:"city"`
	StateProvinceCode string `json:"stateProvinceCode"`
	CountryCode       string `json:"countryCode"`
	PostalCode        string `json:"postalCode"`
}

// CancellationEntry is one penalty window of a cancellation policy.
// Cancelling at or after Deadline incurs the entry's penalty.
type CancellationEntry struct {
	VersionID           int64     `json:"versionId"`
	CancelTime          string    `json:"cancelTime"`
	StartWindowHours    int       `json:"startWindowHours"`
	NightCount          int       `json:"nightCount"`
	Amount              float64   `json:"amount"`
	Percent             float64   `json:"percent"`
	CurrencyCode        string    `json:"currencyCode"`
	TimeZoneDescription string    `json:"timeZoneDescription"`
	Deadline            time.Time `json:"deadline"`
}

// CancellationPolicy is anchored to the reservation's arrival date.
type CancellationPolicy struct {
	Text string

	entries []CancellationEntry
}

// NewCancellationPolicy copies entries and orders them by deadline.
func NewCancellationPolicy(text string, entries []CancellationEntry) CancellationPolicy {
	es := append(make([]CancellationEntry, 0, len(entries)), entries...)
	sort.SliceStable(es, func(i, j int) bool { return es[i].Deadline.Before(es[j].Deadline) })
	return CancellationPolicy{Text: text, entries: es}
}

func (p CancellationPolicy) Entries() []CancellationEntry {
	return append(make([]CancellationEntry, 0, len(p.entries)), p.entries...)
}

// ActiveAt returns the entry whose penalty applies to a cancellation at t.
func (p CancellationPolicy) ActiveAt(t time.Time) (CancellationEntry, bool) {
	var (
		out   CancellationEntry
		found bool
	)
	for _, e := range p.entries {
		if e.Deadline.After(t) {
			break
		}
		out, found = e, true
	}
	return out, found
}

// FreeCancellationUntil is the earliest penalty deadline, zero when the
// policy has no entries.
func (p CancellationPolicy) FreeCancellationUntil() time.Time {
	if len(p.entries) == 0 {
		return time.Time{}
	}
	return p.entries[0].Deadline
}

func (p CancellationPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Text    string              `json:"text"`
		Entries []CancellationEntry `json:"entries"`
	}{p.Text, p.Entries()})
}

type NightlyRate struct {
	BaseRate float64 `json:"baseRate"`
	Rate     float64 `json:"rate"`
	Promo    bool    `json:"promo"`
}

type Surcharge struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

// Rate is one chargeable rate of a booked room.
type Rate struct {
	Promo            bool
	PriceBreakdown   bool
	RateChange       bool
	CurrencyCode     string
	Total            float64
	AverageRate      float64
	AverageBaseRate  float64
	NightlyRateTotal float64
	SurchargeTotal   float64

	nightly    []NightlyRate
	surcharges []Surcharge
}

func NewRate(r Rate, nightly []NightlyRate, surcharges []Surcharge) Rate {
	r.nightly = append(make([]NightlyRate, 0, len(nightly)), nightly...)
	r.surcharges = append(make([]Surcharge, 0, len(surcharges)), surcharges...)
	return r
}

func (r Rate) NightlyRates() []NightlyRate {
	return append(make([]NightlyRate, 0, len(r.nightly)), r.nightly...)
}

func (r Rate) Surcharges() []Surcharge {
	return append(make([]Surcharge, 0, len(r.surcharges)), r.surcharges...)
}

func (r Rate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Promo            bool          `json:"promo"`
		PriceBreakdown   bool          `json:"priceBreakdown"`
		RateChange       bool          `json:"rateChange"`
		CurrencyCode     string        `json:"currencyCode"`
		Total            float64       `json:"total"`
		AverageRate      float64       `json:"averageRate"`
		AverageBaseRate  float64       `json:"averageBaseRate"`
		NightlyRateTotal float64       `json:"nightlyRateTotal"`
		SurchargeTotal   float64       `json:"surchargeTotal"`
		NightlyRates     []NightlyRate `json:"nightlyRates"`
		Surcharges       []Surcharge   `json:"surcharges"`
	}{
		r.Promo, r.PriceBreakdown, r.RateChange, r.CurrencyCode, r.Total, r.AverageRate,
		r.AverageBaseRate, r.NightlyRateTotal, r.SurchargeTotal, r.NightlyRates(), r.Surcharges(),
	})
}
