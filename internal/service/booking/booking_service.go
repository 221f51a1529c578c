package booking

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/sportease/sportease/internal/domain"
	"github.com/sportease/sportease/internal/kafka"
	"github.com/sportease/sportease/internal/payment"
	"github.com/sportease/sportease/internal/repository"
)

// commissionRate is the platform's fixed cut of every booking total.
const commissionRate = 0.10

type BookingUseCase interface {
	ReserveSlots(ctx context.Context, input ReserveSlotsInput) ([]string, error)
	CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingQuote, error)
	ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID, ownerID string) ([]domain.Booking, error)
	BookingQR(ctx context.Context, bookingID string) ([]byte, error)
	ExportOwnerBookings(ctx context.Context, ownerID string, w io.Writer) error
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
	ReleaseStaleHolds(ctx context.Context) (int64, error)
}

// Cache is the optional fast-path hold guard in front of the database CAS.
type Cache interface {
	AcquireSlotHold(ctx context.Context, slotID string, ttl time.Duration) (bool, error)
	ReleaseSlotHold(ctx context.Context, slotID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	slots              repository.SlotRepository
	venues             repository.VenueRepository
	gateway            payment.Gateway
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	confirmationTTL    time.Duration
}

type ReserveSlotsInput struct {
	UserID  string   `json:"userId"`
	SlotIDs []string `json:"slotIds"`
}

type CreateBookingInput struct {
	UserID  string   `json:"userId"`
	VenueID string   `json:"venueId"`
	SlotIDs []string `json:"slotIds"`
}

type ConfirmPaymentInput struct {
	BookingID string `json:"bookingId"`
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// BookingQuote is what checkout hands back to the client: the pending
// booking, the order to pay, and the public key the frontend needs.
type BookingQuote struct {
	BookingID    string
	TotalAmount  float64
	Order        *payment.Order
	GatewayKeyID string
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	slots repository.SlotRepository,
	venues repository.VenueRepository,
	gateway payment.Gateway,
	cache Cache,
	producer Producer,
	bookingTopic string,
	holdTTL, confirmationTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:        bookings,
		slots:           slots,
		venues:          venues,
		gateway:         gateway,
		cache:           cache,
		producer:        producer,
		bookingTopic:    bookingTopic,
		holdTTL:         holdTTL,
		confirmationTTL: confirmationTTL,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ReserveSlots places a time-boxed hold on a slot selection ahead of
// checkout. The transition is all-or-nothing: any slot not currently
// available fails the whole set with no mutation.
func (s *BookingService) ReserveSlots(ctx context.Context, input ReserveSlotsInput) ([]string, error) {
	if len(input.SlotIDs) == 0 {
		return nil, errors.New("at least one slot is required")
	}

	held, err := s.acquireHolds(ctx, input.SlotIDs)
	if err != nil {
		return nil, err
	}

	if err := s.slots.ReserveAll(ctx, input.SlotIDs, time.Now().Add(s.holdTTL)); err != nil {
		s.releaseHolds(ctx, held)
		return nil, err
	}
	return input.SlotIDs, nil
}

// CreateBooking runs the checkout workflow: price the selection, reserve
// any still-available slots, persist the booking and its payment order,
// and hand back a quote the client can pay against.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingQuote, error) {
	if len(input.SlotIDs) == 0 {
		return nil, errors.New("at least one slot is required")
	}

	pricePerHour, err := s.venues.PricePerHour(ctx, input.VenueID)
	if err != nil {
		return nil, err
	}

	// Billing is by slot count, not by the clock span the slots cover.
	// Two non-adjacent one-hour slots bill as two hours. Deliberate policy.
	hours := len(input.SlotIDs)
	if hours < 1 {
		hours = 1
	}
	total := round2(pricePerHour * float64(hours))
	commission := round2(total * commissionRate)

	slots, err := s.slots.FindByIDs(ctx, input.SlotIDs)
	if err != nil {
		return nil, err
	}
	if len(slots) != len(input.SlotIDs) {
		return nil, domain.ErrSlotNotFound
	}

	toReserve := make([]string, 0, len(slots))
	preReserved := make([]string, 0)
	for _, slot := range slots {
		switch slot.Status {
		case domain.SlotStatusAvailable:
			toReserve = append(toReserve, slot.ID)
		case domain.SlotStatusReserved:
			preReserved = append(preReserved, slot.ID)
		default:
			return nil, domain.ErrSlotNotBookable
		}
	}

	expiresAt := time.Now().Add(s.confirmationTTL)

	held, err := s.acquireHolds(ctx, toReserve)
	if err != nil {
		return nil, err
	}
	if len(toReserve) > 0 {
		if err := s.slots.ReserveAll(ctx, toReserve, expiresAt); err != nil {
			s.releaseHolds(ctx, held)
			return nil, err
		}
	}
	// Slots held before checkout keep their hold in step with the booking.
	if len(preReserved) > 0 {
		if err := s.slots.ExtendHolds(ctx, preReserved, expiresAt); err != nil {
			log.Printf("extend holds for booking attempt: %v", err)
		}
	}

	booking := &domain.Booking{
		ID:            uuid.NewString(),
		UserID:        input.UserID,
		VenueID:       input.VenueID,
		SlotIDs:       input.SlotIDs,
		TotalAmount:   total,
		Commission:    commission,
		PaymentStatus: domain.PaymentStatusPending,
		Status:        domain.BookingStatusPending,
		ExpiresAt:     expiresAt,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		s.compensate(ctx, toReserve, held)
		return nil, err
	}

	order := s.createOrder(ctx, booking)

	pay := &domain.Payment{
		ID:        uuid.NewString(),
		BookingID: booking.ID,
		Amount:    total,
		Gateway:   "razorpay",
		OrderID:   order.ID,
		OrderKind: order.Kind,
	}
	if err := s.bookings.CreatePayment(ctx, pay); err != nil {
		// The booking row stays pending; the expiry sweep cancels it.
		// The slots must not stay stranded in reserved until then.
		s.compensate(ctx, toReserve, held)
		return nil, err
	}

	if err := s.publish(ctx, "booking_created", booking); err != nil {
		log.Printf("WARNING: failed to publish booking_created for booking %s: %v", booking.ID, err)
	}

	return &BookingQuote{
		BookingID:    booking.ID,
		TotalAmount:  total,
		Order:        order,
		GatewayKeyID: s.gateway.KeyID(),
	}, nil
}

// ConfirmPayment finalizes a booking after the gateway collected payment.
// It is idempotent: confirming an already-confirmed booking returns the
// current state without touching slots or payment again.
func (s *BookingService) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusConfirmed && booking.PaymentStatus == domain.PaymentStatusPaid {
		return booking, nil
	}
	// A cancelled booking already gave its slots back; by now they may be
	// sold under another booking. A late confirmation must not resurrect it.
	if booking.Status != domain.BookingStatusPending {
		return nil, domain.ErrBookingNotPending
	}

	if input.Signature != "" {
		pay, err := s.bookings.GetPaymentByBooking(ctx, input.BookingID)
		if err != nil {
			return nil, err
		}
		// A synthesized order was never signed by the gateway; a signature
		// presented for one cannot be trusted.
		if pay != nil && pay.OrderKind == domain.OrderKindSynthesized {
			return nil, domain.ErrSignatureMismatch
		}
		// The signature must cover the order attached to this booking, not
		// whatever order id the caller supplies.
		if pay != nil && input.OrderID != pay.OrderID {
			return nil, domain.ErrSignatureMismatch
		}
		if s.gateway.Configured() && !s.gateway.VerifySignature(input.OrderID, input.PaymentID, input.Signature) {
			return nil, domain.ErrSignatureMismatch
		}
	}

	if err := s.bookings.MarkConfirmed(ctx, booking.ID, input.PaymentID); err != nil {
		return nil, err
	}

	// These slots are reserved by this booking; the move to booked is
	// unconditional.
	if _, err := s.slots.UpdateMany(ctx, booking.SlotIDs, domain.SlotStatusBooked); err != nil {
		return nil, fmt.Errorf("mark slots booked: %w", err)
	}
	s.releaseHolds(ctx, booking.SlotIDs)

	booking.Status = domain.BookingStatusConfirmed
	booking.PaymentStatus = domain.PaymentStatusPaid
	booking.BookingCode = input.PaymentID

	if err := s.publish(ctx, "booking_confirmed", booking); err != nil {
		log.Printf("WARNING: failed to publish booking_confirmed for booking %s: %v", booking.ID, err)
	}
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, userID, ownerID string) ([]domain.Booking, error) {
	if userID != "" {
		return s.bookings.ListByUser(ctx, userID)
	}
	if ownerID != "" {
		venueIDs, err := s.venues.IDsByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if len(venueIDs) == 0 {
			return []domain.Booking{}, nil
		}
		return s.bookings.ListByVenues(ctx, venueIDs)
	}
	return []domain.Booking{}, nil
}

// BookingQR renders the booking code of a confirmed booking as a PNG.
func (s *BookingService) BookingQR(ctx context.Context, bookingID string) ([]byte, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusConfirmed || booking.BookingCode == "" {
		return nil, errors.New("booking is not confirmed")
	}
	return qrcode.Encode(booking.BookingCode, qrcode.Medium, 256)
}

func (s *BookingService) ExportOwnerBookings(ctx context.Context, ownerID string, w io.Writer) error {
	venueIDs, err := s.venues.IDsByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	bookings := []domain.Booking{}
	if len(venueIDs) > 0 {
		bookings, err = s.bookings.ListByVenues(ctx, venueIDs)
		if err != nil {
			return err
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"bookingId", "venueId", "userId", "amount", "commission", "status", "created_at"}); err != nil {
		return err
	}
	for _, b := range bookings {
		record := []string{
			b.ID,
			b.VenueID,
			b.UserID,
			fmt.Sprintf("%.2f", b.TotalAmount),
			fmt.Sprintf("%.2f", b.Commission),
			string(b.Status),
			b.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExpirePendingBookings cancels pending bookings whose confirmation window
// lapsed and returns their reserved slots to available.
func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	expired, err := s.bookings.ExpirePendingBefore(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	for _, b := range expired {
		if _, err := s.slots.ConditionalUpdateMany(ctx, b.SlotIDs, domain.SlotStatusReserved, domain.SlotStatusAvailable); err != nil {
			log.Printf("release slots for expired booking %s: %v", b.ID, err)
		}
		s.releaseHolds(ctx, b.SlotIDs)
		if err := s.publish(ctx, "booking_expired", &b); err != nil {
			log.Printf("WARNING: failed to publish booking_expired for booking %s: %v", b.ID, err)
		}
	}
	return expired, nil
}

// ReleaseStaleHolds frees slots stuck in reserved by abandoned holds that
// never turned into a booking.
func (s *BookingService) ReleaseStaleHolds(ctx context.Context) (int64, error) {
	return s.slots.ReleaseExpiredHolds(ctx, time.Now())
}

func (s *BookingService) createOrder(ctx context.Context, booking *domain.Booking) *payment.Order {
	amountMinor := int64(math.Round(booking.TotalAmount * 100))
	if s.gateway.Configured() {
		order, err := s.gateway.CreateOrder(ctx, amountMinor, booking.ID, map[string]string{
			"bookingId": booking.ID,
			"venueId":   booking.VenueID,
		})
		if err == nil {
			return order
		}
		log.Printf("WARNING: gateway order for booking %s failed, falling back: %v", booking.ID, err)
	}
	return payment.SynthesizedOrder(booking.ID, amountMinor)
}

func (s *BookingService) acquireHolds(ctx context.Context, slotIDs []string) ([]string, error) {
	if s.cache == nil {
		return nil, nil
	}
	held := make([]string, 0, len(slotIDs))
	for _, id := range slotIDs {
		ok, err := s.cache.AcquireSlotHold(ctx, id, s.holdTTL)
		if err != nil {
			s.releaseHolds(ctx, held)
			return nil, err
		}
		if !ok {
			s.releaseHolds(ctx, held)
			return nil, domain.ErrSlotConflict
		}
		held = append(held, id)
	}
	return held, nil
}

func (s *BookingService) releaseHolds(ctx context.Context, slotIDs []string) {
	if s.cache == nil {
		return
	}
	for _, id := range slotIDs {
		_ = s.cache.ReleaseSlotHold(ctx, id)
	}
}

// compensate rolls freshly reserved slots back to available when a step
// after reservation fails, so nothing stays stranded in reserved.
func (s *BookingService) compensate(ctx context.Context, reserved, held []string) {
	if len(reserved) > 0 {
		if _, err := s.slots.ConditionalUpdateMany(ctx, reserved, domain.SlotStatusReserved, domain.SlotStatusAvailable); err != nil {
			log.Printf("compensating release failed, expiry sweep will recover: %v", err)
		}
	}
	s.releaseHolds(ctx, held)
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		Type:        eventType,
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		VenueID:     booking.VenueID,
		SlotIDs:     booking.SlotIDs,
		TotalAmount: booking.TotalAmount,
		Status:      string(booking.Status),
		ExpiresAt:   booking.ExpiresAt,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ BookingUseCase = (*BookingService)(nil)
