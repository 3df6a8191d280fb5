package domain

import "strings"

type Category string

const (
	CategoryCity     Category = "CITY"
	CategoryAirport  Category = "AIRPORT"
	CategoryLandmark Category = "LANDMARK"
	CategoryHotel    Category = "HOTEL"
	CategoryUnknown  Category = "UNKNOWN"
)

// CategoryFromString is case-insensitive and falls back to CategoryUnknown.
func CategoryFromString(s string) Category {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case CategoryCity, CategoryAirport, CategoryLandmark, CategoryHotel:
		return c
	}
	return CategoryUnknown
}

// Destination is one entry of a destination suggestion lookup.
type Destination struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
}
