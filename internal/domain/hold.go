package domain

import "time"

type HolderKind string

const (
	HolderKindBooking           HolderKind = "booking"
	HolderKindManualReservation HolderKind = "manual_reservation"
)

// ShiftHold is an exclusivity claim on a (vendor, shift, date) slot. At most
// one active hold may exist per key; a partial unique index on unreleased rows
// enforces that, so concurrent acquirers race on the insert and the loser
// gets ErrAlreadyReserved.
type ShiftHold struct {
	ID         int64
	VendorID   int64
	ShiftID    int64
	EventDate  time.Time
	HolderKind HolderKind
	HolderRef  string
	AcquiredAt time.Time
	ReleasedAt *time.Time
}

// SlotKey identifies one bookable slot.
type SlotKey struct {
	VendorID  int64
	ShiftID   int64
	EventDate time.Time
}

const DateLayout = "2006-01-02"

func (k SlotKey) DateString() string {
	return k.EventDate.Format(DateLayout)
}
