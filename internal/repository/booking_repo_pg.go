package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sportease/sportease/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ListByVenues(ctx context.Context, venueIDs []string) ([]domain.Booking, error)
	HasConfirmed(ctx context.Context, userID, venueID string) (bool, error)
	// MarkConfirmed flips the booking to paid/confirmed and its payment to
	// paid in one transaction.
	MarkConfirmed(ctx context.Context, bookingID, transactionID string) error
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)

	CreatePayment(ctx context.Context, payment *domain.Payment) error
	GetPaymentByBooking(ctx context.Context, bookingID string) (*domain.Payment, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, venue_id, slot_ids, total_amount, commission, payment_status, status, booking_code, expires_at, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	booking.PaymentStatus = domain.PaymentStatusPending
	booking.Status = domain.BookingStatusPending
	return r.db.QueryRow(ctx, `INSERT INTO bookings (id, user_id, venue_id, slot_ids, total_amount, commission, payment_status, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		booking.ID, booking.UserID, booking.VenueID, booking.SlotIDs, booking.TotalAmount, booking.Commission,
		booking.PaymentStatus, booking.Status, booking.ExpiresAt).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *PGBookingRepository) ListByVenues(ctx context.Context, venueIDs []string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE venue_id = ANY($1) ORDER BY created_at DESC`, venueIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *PGBookingRepository) HasConfirmed(ctx context.Context, userID, venueID string) (bool, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE user_id=$1 AND venue_id=$2 AND status=$3`,
		userID, venueID, domain.BookingStatusConfirmed).Scan(&n)
	return n > 0, err
}

func (r *PGBookingRepository) MarkConfirmed(ctx context.Context, bookingID, transactionID string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The status guard keeps a booking the sweep already cancelled from
	// coming back as confirmed.
	cmd, err := tx.Exec(ctx, `UPDATE bookings SET payment_status=$1, status=$2, booking_code=$3, updated_at=now() WHERE id=$4 AND status=$5`,
		domain.PaymentStatusPaid, domain.BookingStatusConfirmed, transactionID, bookingID, domain.BookingStatusPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id=$1)`, bookingID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrBookingNotFound
		}
		return domain.ErrBookingNotPending
	}

	if _, err := tx.Exec(ctx, `UPDATE payments SET status=$1, transaction_id=$2, updated_at=now() WHERE booking_id=$3`,
		domain.PaymentRecordPaid, transactionID, bookingID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `UPDATE bookings SET status=$1, payment_status=$2, updated_at=now()
		WHERE status=$3 AND payment_status=$4 AND expires_at <= $5
		RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, domain.PaymentStatusFailed,
		domain.BookingStatusPending, domain.PaymentStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	expired, err := scanBookings(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if len(expired) > 0 {
		ids := make([]string, 0, len(expired))
		for _, b := range expired {
			ids = append(ids, b.ID)
		}
		if _, err := tx.Exec(ctx, `UPDATE payments SET status=$1, updated_at=now() WHERE booking_id = ANY($2) AND status=$3`,
			domain.PaymentRecordFailed, ids, domain.PaymentRecordCreated); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expired, nil
}

func (r *PGBookingRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	payment.Status = domain.PaymentRecordCreated
	return r.db.QueryRow(ctx, `INSERT INTO payments (id, booking_id, amount, gateway, order_id, order_kind, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		payment.ID, payment.BookingID, payment.Amount, payment.Gateway, payment.OrderID, payment.OrderKind, payment.Status).
		Scan(&payment.CreatedAt, &payment.UpdatedAt)
}

func (r *PGBookingRepository) GetPaymentByBooking(ctx context.Context, bookingID string) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT id, booking_id, amount, gateway, order_id, order_kind, transaction_id, status, created_at, updated_at
		FROM payments WHERE booking_id=$1`, bookingID)
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Gateway, &p.OrderID, &p.OrderKind, &p.TransactionID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.VenueID, &b.SlotIDs, &b.TotalAmount, &b.Commission,
		&b.PaymentStatus, &b.Status, &b.BookingCode, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
