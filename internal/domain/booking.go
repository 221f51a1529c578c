package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Booking is one purchase attempt spanning one or more slots at a venue.
// TotalAmount and Commission are derived at creation and never change;
// the status pair is flipped exactly once by confirmation or by the
// expiry sweep.
type Booking struct {
	ID            string
	UserID        string
	VenueID       string
	SlotIDs       []string
	TotalAmount   float64
	Commission    float64
	PaymentStatus PaymentStatus
	Status        BookingStatus
	BookingCode   string
	ExpiresAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PaymentRecordStatus string

const (
	PaymentRecordCreated PaymentRecordStatus = "created"
	PaymentRecordPaid    PaymentRecordStatus = "paid"
	PaymentRecordFailed  PaymentRecordStatus = "failed"
)

// OrderKind distinguishes orders created at the gateway from locally
// synthesized fallback orders. Synthesized orders can never pass
// signature verification, so confirmation must not extend them that trust.
type OrderKind string

const (
	OrderKindGateway     OrderKind = "gateway"
	OrderKindSynthesized OrderKind = "synthesized"
)

// Payment is the single gateway order attached to a booking.
type Payment struct {
	ID            string
	BookingID     string
	Amount        float64
	Gateway       string
	OrderID       string
	OrderKind     OrderKind
	TransactionID string
	Status        PaymentRecordStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
