package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sportease/sportease/internal/domain"
	"github.com/sportease/sportease/internal/payment"
	"github.com/sportease/sportease/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mocks

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByVenues(ctx context.Context, venueIDs []string) ([]domain.Booking, error) {
	args := m.Called(ctx, venueIDs)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) HasConfirmed(ctx context.Context, userID, venueID string) (bool, error) {
	args := m.Called(ctx, userID, venueID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) MarkConfirmed(ctx context.Context, bookingID, transactionID string) error {
	args := m.Called(ctx, bookingID, transactionID)
	return args.Error(0)
}

func (m *MockBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, deadline)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockBookingRepository) GetPaymentByBooking(ctx context.Context, bookingID string) (*domain.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

type MockSlotRepository struct {
	mock.Mock
}

func (m *MockSlotRepository) Insert(ctx context.Context, slot *domain.Slot) error {
	args := m.Called(ctx, slot)
	return args.Error(0)
}

func (m *MockSlotRepository) FindByVenueAndDate(ctx context.Context, venueID, date string) ([]domain.Slot, error) {
	args := m.Called(ctx, venueID, date)
	return args.Get(0).([]domain.Slot), args.Error(1)
}

func (m *MockSlotRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Slot, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.Slot), args.Error(1)
}

func (m *MockSlotRepository) ReserveAll(ctx context.Context, ids []string, heldUntil time.Time) error {
	args := m.Called(ctx, ids, heldUntil)
	return args.Error(0)
}

func (m *MockSlotRepository) ConditionalUpdateMany(ctx context.Context, ids []string, expected, next domain.SlotStatus) (int64, error) {
	args := m.Called(ctx, ids, expected, next)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSlotRepository) UpdateMany(ctx context.Context, ids []string, next domain.SlotStatus) (int64, error) {
	args := m.Called(ctx, ids, next)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSlotRepository) ExtendHolds(ctx context.Context, ids []string, heldUntil time.Time) error {
	args := m.Called(ctx, ids, heldUntil)
	return args.Error(0)
}

func (m *MockSlotRepository) ReleaseExpiredHolds(ctx context.Context, deadline time.Time) (int64, error) {
	args := m.Called(ctx, deadline)
	return args.Get(0).(int64), args.Error(1)
}

type MockVenueRepository struct {
	mock.Mock
}

func (m *MockVenueRepository) Insert(ctx context.Context, venue *domain.Venue) error {
	args := m.Called(ctx, venue)
	return args.Error(0)
}

func (m *MockVenueRepository) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Venue), args.Error(1)
}

func (m *MockVenueRepository) List(ctx context.Context, filter domain.VenueFilter) ([]domain.Venue, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Venue), args.Error(1)
}

func (m *MockVenueRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Venue, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Venue), args.Error(1)
}

func (m *MockVenueRepository) IDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockVenueRepository) TopRated(ctx context.Context, city, sport string, limit int) ([]domain.Venue, error) {
	args := m.Called(ctx, city, sport, limit)
	return args.Get(0).([]domain.Venue), args.Error(1)
}

func (m *MockVenueRepository) CountSeeded(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockVenueRepository) PricePerHour(ctx context.Context, venueID string) (float64, error) {
	args := m.Called(ctx, venueID)
	return args.Get(0).(float64), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockGateway) KeyID() string {
	return m.Called().String(0)
}

func (m *MockGateway) CreateOrder(ctx context.Context, amountMinor int64, receiptID string, notes map[string]string) (*payment.Order, error) {
	args := m.Called(ctx, amountMinor, receiptID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Order), args.Error(1)
}

func (m *MockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return m.Called(orderID, paymentID, signature).Bool(0)
}

func newService(bookings *MockBookingRepository, slots *MockSlotRepository, venues *MockVenueRepository, gateway *MockGateway) *BookingService {
	return NewBookingService(bookings, slots, venues, gateway, nil, nil, "", 15*time.Minute, 15*time.Minute)
}

func availableSlots(venueID string, ids ...string) []domain.Slot {
	slots := make([]domain.Slot, 0, len(ids))
	for _, id := range ids {
		slots = append(slots, domain.Slot{ID: id, VenueID: venueID, Status: domain.SlotStatusAvailable})
	}
	return slots
}

func TestCreateBooking_TwoAvailableSlots(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	slotIDs := []string{"s1", "s2"}
	venues.On("PricePerHour", mock.Anything, "v1").Return(500.0, nil)
	slots.On("FindByIDs", mock.Anything, slotIDs).Return(availableSlots("v1", "s1", "s2"), nil)
	slots.On("ReserveAll", mock.Anything, slotIDs, mock.AnythingOfType("time.Time")).Return(nil)
	bookings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil)
	gateway.On("Configured").Return(false)
	gateway.On("KeyID").Return("")
	bookings.On("CreatePayment", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil)

	quote, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: "u1", VenueID: "v1", SlotIDs: slotIDs,
	})

	require.NoError(t, err)
	assert.Equal(t, 1000.00, quote.TotalAmount)
	assert.Equal(t, "order_"+quote.BookingID, quote.Order.ID)
	assert.Equal(t, int64(100000), quote.Order.Amount)
	assert.Equal(t, domain.OrderKindSynthesized, quote.Order.Kind)

	created := bookings.Calls[0].Arguments.Get(1).(*domain.Booking)
	assert.Equal(t, 1000.00, created.TotalAmount)
	assert.Equal(t, 100.00, created.Commission)
	assert.Equal(t, domain.BookingStatusPending, created.Status)
	assert.Equal(t, domain.PaymentStatusPending, created.PaymentStatus)

	pay := bookings.Calls[1].Arguments.Get(1).(*domain.Payment)
	assert.Equal(t, quote.BookingID, pay.BookingID)
	assert.Equal(t, 1000.00, pay.Amount)
	assert.Equal(t, domain.OrderKindSynthesized, pay.OrderKind)

	slots.AssertCalled(t, "ReserveAll", mock.Anything, slotIDs, mock.AnythingOfType("time.Time"))
}

func TestCreateBooking_SingleSlotMinimumHour(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	venues.On("PricePerHour", mock.Anything, "v1").Return(333.33, nil)
	slots.On("FindByIDs", mock.Anything, []string{"s1"}).Return(availableSlots("v1", "s1"), nil)
	slots.On("ReserveAll", mock.Anything, []string{"s1"}, mock.AnythingOfType("time.Time")).Return(nil)
	bookings.On("Create", mock.Anything, mock.Anything).Return(nil)
	gateway.On("Configured").Return(false)
	gateway.On("KeyID").Return("")
	bookings.On("CreatePayment", mock.Anything, mock.Anything).Return(nil)

	quote, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: "u1", VenueID: "v1", SlotIDs: []string{"s1"},
	})

	require.NoError(t, err)
	assert.Equal(t, 333.33, quote.TotalAmount)

	created := bookings.Calls[0].Arguments.Get(1).(*domain.Booking)
	assert.Equal(t, 33.33, created.Commission)
}

func TestCreateBooking_VenueNotFound(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	venues.On("PricePerHour", mock.Anything, "missing").Return(0.0, domain.ErrVenueNotFound)

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: "u1", VenueID: "missing", SlotIDs: []string{"s1"},
	})

	assert.ErrorIs(t, err, domain.ErrVenueNotFound)
	slots.AssertNotCalled(t, "ReserveAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBooking_SlotAlreadyBooked(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	venues.On("PricePerHour", mock.Anything, "v1").Return(500.0, nil)
	slots.On("FindByIDs", mock.Anything, []string{"s1", "s2"}).Return([]domain.Slot{
		{ID: "s1", VenueID: "v1", Status: domain.SlotStatusAvailable},
		{ID: "s2", VenueID: "v1", Status: domain.SlotStatusBooked},
	}, nil)

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: "u1", VenueID: "v1", SlotIDs: []string{"s1", "s2"},
	})

	assert.ErrorIs(t, err, domain.ErrSlotNotBookable)
	slots.AssertNotCalled(t, "ReserveAll", mock.Anything, mock.Anything, mock.Anything)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBooking_UnknownSlot(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	venues.On("PricePerHour", mock.Anything, "v1").Return(500.0, nil)
	slots.On("FindByIDs", mock.Anything, []string{"s1", "ghost"}).Return(availableSlots("v1", "s1"), nil)

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: "u1", VenueID: "v1", SlotIDs: []string{"s1", "ghost"},
	})

	assert.ErrorIs(t, err, domain.ErrSlotNotFound)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBooking_ReservationConflict(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	venues.On("PricePerHour", mock.Anything, "v1").Return(500.0, nil)
	slots.On("FindByIDs", mock.Anything, []string{"s1"}).Return(availableSlots("v1", "s1"), nil)
	slots.On("ReserveAll", mock.Anything, []string{"s1"}, mock.AnythingOfType("time.Time")).Return(domain.ErrSlotConflict)

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: "u1", VenueID: "v1", SlotIDs: []string{"s1"},
	})

	assert.ErrorIs(t, err, domain.ErrSlotConflict)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBooking_ReleasesSlotsWhenBookingInsertFails(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	venues.On("PricePerHour", mock.Anything, "v1").Return(500.0, nil)
	slots.On("FindByIDs", mock.Anything, []string{"s1"}).Return(availableSlots("v1", "s1"), nil)
	slots.On("ReserveAll", mock.Anything, []string{"s1"}, mock.AnythingOfType("time.Time")).Return(nil)
	bookings.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	slots.On("ConditionalUpdateMany", mock.Anything, []string{"s1"}, domain.SlotStatusReserved, domain.SlotStatusAvailable).Return(int64(1), nil)

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: "u1", VenueID: "v1", SlotIDs: []string{"s1"},
	})

	require.Error(t, err)
	slots.AssertCalled(t, "ConditionalUpdateMany", mock.Anything, []string{"s1"}, domain.SlotStatusReserved, domain.SlotStatusAvailable)
}

func TestCreateBooking_ReleasesSlotsWhenPaymentInsertFails(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	venues.On("PricePerHour", mock.Anything, "v1").Return(500.0, nil)
	slots.On("FindByIDs", mock.Anything, []string{"s1"}).Return(availableSlots("v1", "s1"), nil)
	slots.On("ReserveAll", mock.Anything, []string{"s1"}, mock.AnythingOfType("time.Time")).Return(nil)
	bookings.On("Create", mock.Anything, mock.Anything).Return(nil)
	gateway.On("Configured").Return(false)
	bookings.On("CreatePayment", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	slots.On("ConditionalUpdateMany", mock.Anything, []string{"s1"}, domain.SlotStatusReserved, domain.SlotStatusAvailable).Return(int64(1), nil)

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: "u1", VenueID: "v1", SlotIDs: []string{"s1"},
	})

	require.Error(t, err)
	slots.AssertCalled(t, "ConditionalUpdateMany", mock.Anything, []string{"s1"}, domain.SlotStatusReserved, domain.SlotStatusAvailable)
}

func TestCreateBooking_PreReservedSlotsAccepted(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	slotIDs := []string{"s1", "s2"}
	venues.On("PricePerHour", mock.Anything, "v1").Return(500.0, nil)
	slots.On("FindByIDs", mock.Anything, slotIDs).Return([]domain.Slot{
		{ID: "s1", VenueID: "v1", Status: domain.SlotStatusReserved},
		{ID: "s2", VenueID: "v1", Status: domain.SlotStatusReserved},
	}, nil)
	slots.On("ExtendHolds", mock.Anything, slotIDs, mock.AnythingOfType("time.Time")).Return(nil)
	bookings.On("Create", mock.Anything, mock.Anything).Return(nil)
	gateway.On("Configured").Return(false)
	gateway.On("KeyID").Return("")
	bookings.On("CreatePayment", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: "u1", VenueID: "v1", SlotIDs: slotIDs,
	})

	require.NoError(t, err)
	slots.AssertNotCalled(t, "ReserveAll", mock.Anything, mock.Anything, mock.Anything)
	slots.AssertCalled(t, "ExtendHolds", mock.Anything, slotIDs, mock.AnythingOfType("time.Time"))
}

func TestCreateBooking_GatewayFallbackOnError(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	venues.On("PricePerHour", mock.Anything, "v1").Return(500.0, nil)
	slots.On("FindByIDs", mock.Anything, []string{"s1"}).Return(availableSlots("v1", "s1"), nil)
	slots.On("ReserveAll", mock.Anything, []string{"s1"}, mock.AnythingOfType("time.Time")).Return(nil)
	bookings.On("Create", mock.Anything, mock.Anything).Return(nil)
	gateway.On("Configured").Return(true)
	gateway.On("KeyID").Return("rzp_test_key")
	gateway.On("CreateOrder", mock.Anything, int64(50000), mock.Anything, mock.Anything).Return(nil, errors.New("gateway down"))
	bookings.On("CreatePayment", mock.Anything, mock.Anything).Return(nil)

	quote, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: "u1", VenueID: "v1", SlotIDs: []string{"s1"},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderKindSynthesized, quote.Order.Kind)
	assert.Equal(t, "order_"+quote.BookingID, quote.Order.ID)
	assert.Equal(t, "rzp_test_key", quote.GatewayKeyID)
}

func TestConfirmPayment_Success(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	pending := &domain.Booking{
		ID: "b1", UserID: "u1", VenueID: "v1", SlotIDs: []string{"s1", "s2"},
		Status: domain.BookingStatusPending, PaymentStatus: domain.PaymentStatusPending,
	}
	bookings.On("GetByID", mock.Anything, "b1").Return(pending, nil)
	bookings.On("GetPaymentByBooking", mock.Anything, "b1").Return(&domain.Payment{
		BookingID: "b1", OrderID: "order_gw1", OrderKind: domain.OrderKindGateway,
	}, nil)
	gateway.On("Configured").Return(true)
	gateway.On("VerifySignature", "order_gw1", "pay_1", "sig").Return(true)
	bookings.On("MarkConfirmed", mock.Anything, "b1", "pay_1").Return(nil)
	slots.On("UpdateMany", mock.Anything, []string{"s1", "s2"}, domain.SlotStatusBooked).Return(int64(2), nil)

	confirmed, err := svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		BookingID: "b1", PaymentID: "pay_1", OrderID: "order_gw1", Signature: "sig",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, confirmed.Status)
	assert.Equal(t, domain.PaymentStatusPaid, confirmed.PaymentStatus)
	assert.Equal(t, "pay_1", confirmed.BookingCode)
	slots.AssertCalled(t, "UpdateMany", mock.Anything, []string{"s1", "s2"}, domain.SlotStatusBooked)
}

func TestConfirmPayment_SignatureMismatch(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	pending := &domain.Booking{
		ID: "b1", SlotIDs: []string{"s1"},
		Status: domain.BookingStatusPending, PaymentStatus: domain.PaymentStatusPending,
	}
	bookings.On("GetByID", mock.Anything, "b1").Return(pending, nil)
	bookings.On("GetPaymentByBooking", mock.Anything, "b1").Return(&domain.Payment{
		BookingID: "b1", OrderID: "order_gw1", OrderKind: domain.OrderKindGateway,
	}, nil)
	gateway.On("Configured").Return(true)
	gateway.On("VerifySignature", "order_gw1", "pay_1", "bad").Return(false)

	_, err := svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		BookingID: "b1", PaymentID: "pay_1", OrderID: "order_gw1", Signature: "bad",
	})

	assert.ErrorIs(t, err, domain.ErrSignatureMismatch)
	bookings.AssertNotCalled(t, "MarkConfirmed", mock.Anything, mock.Anything, mock.Anything)
	slots.AssertNotCalled(t, "UpdateMany", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment_SynthesizedOrderRefusesSignature(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	pending := &domain.Booking{
		ID: "b1", SlotIDs: []string{"s1"},
		Status: domain.BookingStatusPending, PaymentStatus: domain.PaymentStatusPending,
	}
	bookings.On("GetByID", mock.Anything, "b1").Return(pending, nil)
	bookings.On("GetPaymentByBooking", mock.Anything, "b1").Return(&domain.Payment{
		BookingID: "b1", OrderID: "order_b1", OrderKind: domain.OrderKindSynthesized,
	}, nil)

	_, err := svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		BookingID: "b1", PaymentID: "pay_1", OrderID: "order_b1", Signature: "whatever",
	})

	assert.ErrorIs(t, err, domain.ErrSignatureMismatch)
	gateway.AssertNotCalled(t, "VerifySignature", mock.Anything, mock.Anything, mock.Anything)
	bookings.AssertNotCalled(t, "MarkConfirmed", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment_UnsignedFallbackOrder(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	pending := &domain.Booking{
		ID: "b1", SlotIDs: []string{"s1"},
		Status: domain.BookingStatusPending, PaymentStatus: domain.PaymentStatusPending,
	}
	bookings.On("GetByID", mock.Anything, "b1").Return(pending, nil)
	bookings.On("MarkConfirmed", mock.Anything, "b1", "pay_1").Return(nil)
	slots.On("UpdateMany", mock.Anything, []string{"s1"}, domain.SlotStatusBooked).Return(int64(1), nil)

	confirmed, err := svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		BookingID: "b1", PaymentID: "pay_1", OrderID: "order_b1",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, confirmed.Status)
}

func TestConfirmPayment_Idempotent(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	done := &domain.Booking{
		ID: "b1", SlotIDs: []string{"s1"},
		Status: domain.BookingStatusConfirmed, PaymentStatus: domain.PaymentStatusPaid,
		BookingCode: "pay_1",
	}
	bookings.On("GetByID", mock.Anything, "b1").Return(done, nil)

	confirmed, err := svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		BookingID: "b1", PaymentID: "pay_1", OrderID: "order_gw1", Signature: "sig",
	})

	require.NoError(t, err)
	assert.Equal(t, done, confirmed)
	bookings.AssertNotCalled(t, "MarkConfirmed", mock.Anything, mock.Anything, mock.Anything)
	slots.AssertNotCalled(t, "UpdateMany", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment_CancelledBookingStaysCancelled(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	// The expiry sweep already cancelled this booking and released its
	// slots; by now they may belong to someone else.
	cancelled := &domain.Booking{
		ID: "b1", SlotIDs: []string{"s1", "s2"},
		Status: domain.BookingStatusCancelled, PaymentStatus: domain.PaymentStatusFailed,
	}
	bookings.On("GetByID", mock.Anything, "b1").Return(cancelled, nil)

	_, err := svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		BookingID: "b1", PaymentID: "pay_late", OrderID: "order_gw1", Signature: "sig",
	})

	assert.ErrorIs(t, err, domain.ErrBookingNotPending)
	bookings.AssertNotCalled(t, "MarkConfirmed", mock.Anything, mock.Anything, mock.Anything)
	slots.AssertNotCalled(t, "UpdateMany", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment_RejectsForeignOrderSignature(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	pending := &domain.Booking{
		ID: "b1", SlotIDs: []string{"s1"},
		Status: domain.BookingStatusPending, PaymentStatus: domain.PaymentStatusPending,
	}
	bookings.On("GetByID", mock.Anything, "b1").Return(pending, nil)
	bookings.On("GetPaymentByBooking", mock.Anything, "b1").Return(&domain.Payment{
		BookingID: "b1", OrderID: "order_gw1", OrderKind: domain.OrderKindGateway,
	}, nil)

	// Valid gateway signature, but over a different order on the same
	// account. It must not confirm this booking.
	_, err := svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		BookingID: "b1", PaymentID: "pay_1", OrderID: "order_other", Signature: "sig",
	})

	assert.ErrorIs(t, err, domain.ErrSignatureMismatch)
	gateway.AssertNotCalled(t, "VerifySignature", mock.Anything, mock.Anything, mock.Anything)
	bookings.AssertNotCalled(t, "MarkConfirmed", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment_BookingNotFound(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	bookings.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrBookingNotFound)

	_, err := svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		BookingID: "missing", PaymentID: "pay_1", OrderID: "order_1",
	})

	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestExpirePendingBookings(t *testing.T) {
	bookings := &MockBookingRepository{}
	slots := &MockSlotRepository{}
	venues := &MockVenueRepository{}
	gateway := &MockGateway{}
	svc := newService(bookings, slots, venues, gateway)

	expired := []domain.Booking{
		{ID: "b1", SlotIDs: []string{"s1", "s2"}, Status: domain.BookingStatusCancelled},
		{ID: "b2", SlotIDs: []string{"s3"}, Status: domain.BookingStatusCancelled},
	}
	bookings.On("ExpirePendingBefore", mock.Anything, mock.AnythingOfType("time.Time")).Return(expired, nil)
	slots.On("ConditionalUpdateMany", mock.Anything, []string{"s1", "s2"}, domain.SlotStatusReserved, domain.SlotStatusAvailable).Return(int64(2), nil)
	slots.On("ConditionalUpdateMany", mock.Anything, []string{"s3"}, domain.SlotStatusReserved, domain.SlotStatusAvailable).Return(int64(1), nil)

	got, err := svc.ExpirePendingBookings(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 2)
	slots.AssertNumberOfCalls(t, "ConditionalUpdateMany", 2)
}

func TestReserveSlots_RequiresSlots(t *testing.T) {
	svc := newService(&MockBookingRepository{}, &MockSlotRepository{}, &MockVenueRepository{}, &MockGateway{})
	_, err := svc.ReserveSlots(context.Background(), ReserveSlotsInput{UserID: "u1"})
	assert.Error(t, err)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1000.00, round2(1000.004))
	assert.Equal(t, 100.00, round2(99.996))
	assert.Equal(t, 33.33, round2(333.33*0.1))
}

// fakeSlotStore is an in-memory slot store with the same all-or-nothing
// reservation semantics as the postgres implementation, used to exercise
// concurrent reservation attempts.
type fakeSlotStore struct {
	repository.SlotRepository
	mu    sync.Mutex
	state map[string]domain.SlotStatus
}

func newFakeSlotStore(ids ...string) *fakeSlotStore {
	state := make(map[string]domain.SlotStatus, len(ids))
	for _, id := range ids {
		state[id] = domain.SlotStatusAvailable
	}
	return &fakeSlotStore{state: state}
}

func (f *fakeSlotStore) ReserveAll(ctx context.Context, ids []string, heldUntil time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if f.state[id] != domain.SlotStatusAvailable {
			return domain.ErrSlotConflict
		}
	}
	for _, id := range ids {
		f.state[id] = domain.SlotStatusReserved
	}
	return nil
}

func (f *fakeSlotStore) ConditionalUpdateMany(ctx context.Context, ids []string, expected, next domain.SlotStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if f.state[id] == expected {
			f.state[id] = next
			n++
		}
	}
	return n, nil
}

func TestConcurrentReservation_ExactlyOneWins(t *testing.T) {
	store := newFakeSlotStore("s1", "s2")
	svc := NewBookingService(&MockBookingRepository{}, store, &MockVenueRepository{}, &MockGateway{}, nil, nil, "", 15*time.Minute, 15*time.Minute)

	const attempts = 2
	results := make(chan error, attempts)
	var start sync.WaitGroup
	start.Add(1)

	for i := 0; i < attempts; i++ {
		go func() {
			start.Wait()
			_, err := svc.ReserveSlots(context.Background(), ReserveSlotsInput{
				UserID: "u", SlotIDs: []string{"s1", "s2"},
			})
			results <- err
		}()
	}
	start.Done()

	var wins, conflicts int
	for i := 0; i < attempts; i++ {
		switch err := <-results; {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrSlotConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, domain.SlotStatusReserved, store.state["s1"])
	assert.Equal(t, domain.SlotStatusReserved, store.state["s2"])
}

func TestReserveThenRelease_RestoresAvailability(t *testing.T) {
	store := newFakeSlotStore("s1", "s2", "outside")
	svc := NewBookingService(&MockBookingRepository{}, store, &MockVenueRepository{}, &MockGateway{}, nil, nil, "", 15*time.Minute, 15*time.Minute)

	_, err := svc.ReserveSlots(context.Background(), ReserveSlotsInput{UserID: "u", SlotIDs: []string{"s1", "s2"}})
	require.NoError(t, err)
	assert.Equal(t, domain.SlotStatusReserved, store.state["s1"])

	n, err := store.ConditionalUpdateMany(context.Background(), []string{"s1", "s2"}, domain.SlotStatusReserved, domain.SlotStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, domain.SlotStatusAvailable, store.state["s1"])
	assert.Equal(t, domain.SlotStatusAvailable, store.state["s2"])
	assert.Equal(t, domain.SlotStatusAvailable, store.state["outside"])
}
