package app

import (
	"strings"
	"time"

	"ean_hotel/internal/domain"
)

/********** alias registries (single source of truth) **********/

var destinationAliases = map[string][]string{
	"list":     {"destinations", "suggestions", "LocationInfos.LocationInfo", "LocationInfo"},
	"name":     {"name", "city", "code"},
	"category": {"category", "type"},
	"id":       {"id", "destinationId", "destinationID"},
}

// policy text and entry lists live at the root or under the first rate
const (
	policyTextKey  = "cancellationPolicy"
	cancelInfoPath = "CancelPolicyInfoList.CancelPolicyInfo"
	rateInfoPath   = "RateInfos.RateInfo"
)

/********** reservation mapper **********/

// confirmationField is the raw confirmationNumbers value: the service sends a
// bare number for a single room and an array otherwise.
type confirmationField struct {
	scalar   int64
	sequence []int64
	isSeq    bool
}

func decodeConfirmations(doc map[string]any) confirmationField {
	if arr, ok := optArray(doc, "confirmationNumbers"); ok {
		seq := make([]int64, 0, len(arr))
		for _, v := range arr {
			seq = append(seq, asInt64(v))
		}
		return confirmationField{sequence: seq, isSeq: true}
	}
	return confirmationField{scalar: optInt64(doc, "confirmationNumbers")}
}

// numbers always has at least one element.
func (c confirmationField) numbers() []int64 {
	if c.isSeq && len(c.sequence) > 0 {
		return c.sequence
	}
	return []int64{c.scalar}
}

// ParseReservation builds a Reservation from a booking response document.
// Missing or malformed optional fields take their defaults; the only failure
// is a *domain.DateFormatError for an unreadable arrival or departure date.
func ParseReservation(doc map[string]any) (domain.Reservation, error) {
	arrival, err := domain.ParseAPIDate("arrivalDate", optString(doc, "arrivalDate"))
	if err != nil {
		return domain.Reservation{}, err
	}
	departure, err := domain.ParseAPIDate("departureDate", optString(doc, "departureDate"))
	if err != nil {
		return domain.Reservation{}, err
	}

	r := domain.Reservation{
		ItineraryID:               optInt64(doc, "itineraryId"),
		ProcessedWithConfirmation: optBool(doc, "processedWithConfirmation"),
		ErrorText:                 optString(doc, "errorText"),
		HotelReplyText:            optString(doc, "hotelReplyText"),
		SupplierType:              domain.SupplierTypeFromCode(optString(doc, "supplierType")),
		ReservationStatusCode:     domain.ConfirmationStatusFromCode(optString(doc, "reservationStatusCode")),
		ExistingItinerary:         optBool(doc, "existingItinerary"),
		CheckInInstructions:       optString(doc, "checkInInstructions"),
		ArrivalDate:               arrival,
		DepartureDate:             departure,
		HotelName:                 optString(doc, "hotelName"),
		HotelAddress:              mapAddress(doc),
		RoomDescription:           optString(doc, "roomDescription"),
		NonRefundable:             optBool(doc, "nonRefundable"),
		RateOccupancyPerRoom:      optInt(doc, "rateOccupancyPerRoom"),
		CancellationPolicy:        mapCancellationPolicy(doc, arrival),
	}
	return domain.NewReservation(r, decodeConfirmations(doc).numbers(), mapRates(doc)), nil
}

func mapAddress(doc map[string]any) domain.Address {
	return domain.Address{
		Line1:             optString(doc, "hotelAddress"),
		City:              optString(doc, "hotelCity"),
		StateProvinceCode: optString(doc, "hotelStateProvinceCode"),
		CountryCode:       optString(doc, "hotelCountryCode"),
		PostalCode:        optString(doc, "hotelPostalCode"),
	}
}

/********** cancellation policy mapper **********/

func mapCancellationPolicy(doc map[string]any, arrival domain.Date) domain.CancellationPolicy {
	var firstRate map[string]any
	if rates := objects(optList(doc, rateInfoPath)); len(rates) > 0 {
		firstRate = rates[0]
	}

	text := optString(doc, policyTextKey)
	if text == "" && firstRate != nil {
		text = optString(firstRate, policyTextKey)
	}
	infos := objects(optList(doc, cancelInfoPath))
	if len(infos) == 0 && firstRate != nil {
		infos = objects(optList(firstRate, cancelInfoPath))
	}

	entries := make([]domain.CancellationEntry, 0, len(infos))
	for _, in := range infos {
		entries = append(entries, mapCancellationEntry(in, arrival))
	}
	return domain.NewCancellationPolicy(text, entries)
}

func mapCancellationEntry(in map[string]any, arrival domain.Date) domain.CancellationEntry {
	cancelTime := strings.TrimSpace(optString(in, "cancelTime"))
	h, m, s := clock(cancelTime)
	if cancelTime == "" {
		cancelTime = "00:00:00"
	}
	hours := optInt(in, "startWindowHours")

	return domain.CancellationEntry{
		VersionID:           optInt64(in, "versionId"),
		CancelTime:          cancelTime,
		StartWindowHours:    hours,
		NightCount:          optInt(in, "nightCount"),
		Amount:              optFloat(in, "amount"),
		Percent:             optFloat(in, "percent"),
		CurrencyCode:        optString(in, "currencyCode"),
		TimeZoneDescription: optString(in, "timeZoneDescription"),
		Deadline:            arrival.At(h, m, s).Add(-time.Duration(hours) * time.Hour),
	}
}

// clock parses "HH:MM:SS" or "HH:MM"; anything else is midnight.
func clock(s string) (h, m, sec int) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), t.Second()
		}
	}
	return 0, 0, 0
}

/********** rate mapper **********/

func mapRates(doc map[string]any) []domain.Rate {
	infos := objects(optList(doc, rateInfoPath))
	out := make([]domain.Rate, 0, len(infos))
	for _, in := range infos {
		out = append(out, mapRate(in))
	}
	return out
}

func mapRate(in map[string]any) domain.Rate {
	r := domain.Rate{
		Promo:          asBool(attr(in, "promo")),
		PriceBreakdown: asBool(attr(in, "priceBreakdown")),
		RateChange:     asBool(attr(in, "rateChange")),
	}

	charge, ok := optObject(in, "ChargeableRateInfo")
	if !ok {
		return domain.NewRate(r, nil, nil)
	}
	r.CurrencyCode = asString(attr(charge, "currencyCode"))
	r.Total = asFloat(attr(charge, "total"))
	r.AverageRate = asFloat(attr(charge, "averageRate"))
	r.AverageBaseRate = asFloat(attr(charge, "averageBaseRate"))
	r.NightlyRateTotal = asFloat(attr(charge, "nightlyRateTotal"))
	r.SurchargeTotal = asFloat(attr(charge, "surchargeTotal"))

	var nightly []domain.NightlyRate
	for _, n := range objects(optList(charge, "NightlyRatesPerRoom.NightlyRate")) {
		nightly = append(nightly, domain.NightlyRate{
			BaseRate: asFloat(attr(n, "baseRate")),
			Rate:     asFloat(attr(n, "rate")),
			Promo:    asBool(attr(n, "promo")),
		})
	}

	var surcharges []domain.Surcharge
	for _, s := range objects(optList(charge, "Surcharges.Surcharge")) {
		surcharges = append(surcharges, domain.Surcharge{
			Type:   asString(attr(s, "type")),
			Amount: asFloat(attr(s, "amount")),
		})
	}
	return domain.NewRate(r, nightly, surcharges)
}

/********** destination mapper **********/

// ParseDestinations maps a lookup payload (a bare array, or an object holding
// one under a known key) to destinations. Entries without a name are dropped.
func ParseDestinations(payload any) []domain.Destination {
	var list []any
	switch p := payload.(type) {
	case []any:
		list = p
	case map[string]any:
		for _, path := range destinationAliases["list"] {
			if list = optList(p, path); list != nil {
				break
			}
		}
	}

	out := make([]domain.Destination, 0, len(list))
	for _, it := range objects(list) {
		name := strings.TrimSpace(asString(firstPresent(it, destinationAliases["name"]...)))
		if name == "" {
			continue
		}
		out = append(out, domain.Destination{
			ID:       asString(firstPresent(it, destinationAliases["id"]...)),
			Name:     name,
			Category: domain.CategoryFromString(asString(firstPresent(it, destinationAliases["category"]...))),
		})
	}
	return out
}
