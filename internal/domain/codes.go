package domain

import "strings"

// SupplierType identifies the downstream system that processed a booking.
type SupplierType string

const (
	SupplierExpedia   SupplierType = "E" // Expedia collect
	SupplierVenere    SupplierType = "V"
	SupplierSabre     SupplierType = "S" // hotel collect
	SupplierWorldspan SupplierType = "W" // hotel collect
	SupplierUnknown   SupplierType = ""
)

// SupplierTypeFromCode never fails: unrecognized codes map to SupplierUnknown.
func SupplierTypeFromCode(code string) SupplierType {
	switch s := SupplierType(strings.ToUpper(strings.TrimSpace(code))); s {
	case SupplierExpedia, SupplierVenere, SupplierSabre, SupplierWorldspan:
		return s
	}
	return SupplierUnknown
}

func (s SupplierType) IsHotelCollect() bool {
	return s == SupplierSabre || s == SupplierWorldspan
}

func (s SupplierType) String() string {
	switch s {
	case SupplierExpedia:
		return "expedia"
	case SupplierVenere:
		return "venere"
	case SupplierSabre:
		return "sabre"
	case SupplierWorldspan:
		return "worldspan"
	}
	return "unknown"
}

func (s SupplierType) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ConfirmationStatus is the state of a booking in the supplier's system at
// the time it was made.
type ConfirmationStatus string

const (
	StatusConfirmed       ConfirmationStatus = "CF"
	StatusUnconfirmed     ConfirmationStatus = "UC"
	StatusPendingSupplier ConfirmationStatus = "PS"
	StatusError           ConfirmationStatus = "ER"
	StatusDeleted         ConfirmationStatus = "DT"
	StatusUnknown         ConfirmationStatus = ""
)

// ConfirmationStatusFromCode never fails: unrecognized codes map to StatusUnknown.
func ConfirmationStatusFromCode(code string) ConfirmationStatus {
	switch s := ConfirmationStatus(strings.ToUpper(strings.TrimSpace(code))); s {
	case StatusConfirmed, StatusUnconfirmed, StatusPendingSupplier, StatusError, StatusDeleted:
		return s
	}
	return StatusUnknown
}

func (s ConfirmationStatus) IsConfirmed() bool { return s == StatusConfirmed }

func (s ConfirmationStatus) String() string {
	switch s {
	case StatusConfirmed:
		return "confirmed"
	case StatusUnconfirmed:
		return "unconfirmed"
	case StatusPendingSupplier:
		return "pending_supplier"
	case StatusError:
		return "error"
	case StatusDeleted:
		return "deleted"
	}
	return "unknown"
}

func (s ConfirmationStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
