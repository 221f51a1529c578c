package domain

import "time"

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusReserved  SlotStatus = "reserved"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusBlocked   SlotStatus = "blocked"
)

// Slot is one bookable hour-range at a venue on a date. Slots are never
// deleted; status is the only field that changes after creation.
type Slot struct {
	ID        string
	VenueID   string
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM
	EndTime   string // HH:MM
	Status    SlotStatus
	HeldUntil *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Bookable reports whether the slot may participate in a new booking.
// A slot the caller already holds (reserved) is still bookable.
func (s Slot) Bookable() bool {
	return s.Status == SlotStatusAvailable || s.Status == SlotStatusReserved
}
