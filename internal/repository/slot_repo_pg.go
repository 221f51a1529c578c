package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sportease/sportease/internal/domain"
)

type SlotRepository interface {
	Insert(ctx context.Context, slot *domain.Slot) error
	FindByVenueAndDate(ctx context.Context, venueID, date string) ([]domain.Slot, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Slot, error)
	// ReserveAll atomically moves every slot in ids from available to
	// reserved, stamping heldUntil. If any slot is missing or not
	// available the whole set is left untouched and ErrSlotConflict is
	// returned.
	ReserveAll(ctx context.Context, ids []string, heldUntil time.Time) error
	// ConditionalUpdateMany flips status only on slots currently in the
	// expected state and reports how many rows changed.
	ConditionalUpdateMany(ctx context.Context, ids []string, expected, next domain.SlotStatus) (int64, error)
	// UpdateMany flips status unconditionally and clears any hold.
	UpdateMany(ctx context.Context, ids []string, next domain.SlotStatus) (int64, error)
	ExtendHolds(ctx context.Context, ids []string, heldUntil time.Time) error
	// ReleaseExpiredHolds returns reserved slots whose hold lapsed before
	// deadline to available.
	ReleaseExpiredHolds(ctx context.Context, deadline time.Time) (int64, error)
}

type PGSlotRepository struct {
	db *pgxpool.Pool
}

func NewSlotRepository(db *pgxpool.Pool) SlotRepository {
	return &PGSlotRepository{db: db}
}

const slotColumns = `id, venue_id, date, start_time, end_time, status, held_until, created_at, updated_at`

func (r *PGSlotRepository) Insert(ctx context.Context, slot *domain.Slot) error {
	return r.db.QueryRow(ctx, `INSERT INTO venue_slots (id, venue_id, date, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		slot.ID, slot.VenueID, slot.Date, slot.StartTime, slot.EndTime, slot.Status).
		Scan(&slot.CreatedAt, &slot.UpdatedAt)
}

func (r *PGSlotRepository) FindByVenueAndDate(ctx context.Context, venueID, date string) ([]domain.Slot, error) {
	rows, err := r.db.Query(ctx, `SELECT `+slotColumns+` FROM venue_slots WHERE venue_id=$1 AND date=$2 ORDER BY start_time`, venueID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows)
}

func (r *PGSlotRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Slot, error) {
	rows, err := r.db.Query(ctx, `SELECT `+slotColumns+` FROM venue_slots WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows)
}

func (r *PGSlotRepository) ReserveAll(ctx context.Context, ids []string, heldUntil time.Time) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Row-lock the eligible slots so two overlapping reservation attempts
	// serialize instead of both observing "available". Locks are taken in
	// id order so overlapping sets cannot deadlock each other.
	var eligible int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM (
			SELECT id FROM venue_slots WHERE id = ANY($1) AND status = $2 ORDER BY id FOR UPDATE
		) locked`, ids, domain.SlotStatusAvailable).Scan(&eligible); err != nil {
		return err
	}
	if eligible != len(ids) {
		return domain.ErrSlotConflict
	}

	cmd, err := tx.Exec(ctx, `UPDATE venue_slots SET status=$1, held_until=$2, updated_at=now() WHERE id = ANY($3)`,
		domain.SlotStatusReserved, heldUntil, ids)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() != int64(len(ids)) {
		return domain.ErrSlotConflict
	}

	return tx.Commit(ctx)
}

func (r *PGSlotRepository) ConditionalUpdateMany(ctx context.Context, ids []string, expected, next domain.SlotStatus) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE venue_slots SET status=$1, held_until=NULL, updated_at=now() WHERE id = ANY($2) AND status=$3`,
		next, ids, expected)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *PGSlotRepository) UpdateMany(ctx context.Context, ids []string, next domain.SlotStatus) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE venue_slots SET status=$1, held_until=NULL, updated_at=now() WHERE id = ANY($2)`, next, ids)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *PGSlotRepository) ExtendHolds(ctx context.Context, ids []string, heldUntil time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE venue_slots SET held_until=$1, updated_at=now() WHERE id = ANY($2) AND status=$3`,
		heldUntil, ids, domain.SlotStatusReserved)
	return err
}

func (r *PGSlotRepository) ReleaseExpiredHolds(ctx context.Context, deadline time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE venue_slots SET status=$1, held_until=NULL, updated_at=now()
		WHERE status=$2 AND held_until IS NOT NULL AND held_until <= $3`,
		domain.SlotStatusAvailable, domain.SlotStatusReserved, deadline)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanSlots(rows pgx.Rows) ([]domain.Slot, error) {
	slots := make([]domain.Slot, 0)
	for rows.Next() {
		var s domain.Slot
		if err := rows.Scan(&s.ID, &s.VenueID, &s.Date, &s.StartTime, &s.EndTime, &s.Status, &s.HeldUntil, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

var _ SlotRepository = (*PGSlotRepository)(nil)
