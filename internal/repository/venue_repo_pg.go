package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sportease/sportease/internal/domain"
)

type VenueRepository interface {
	Insert(ctx context.Context, venue *domain.Venue) error
	GetByID(ctx context.Context, id string) (*domain.Venue, error)
	List(ctx context.Context, filter domain.VenueFilter) ([]domain.Venue, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Venue, error)
	IDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	TopRated(ctx context.Context, city, sport string, limit int) ([]domain.Venue, error)
	CountSeeded(ctx context.Context) (int, error)
	// PricePerHour is the pricing lookup the booking workflow depends on.
	PricePerHour(ctx context.Context, venueID string) (float64, error)
}

type PGVenueRepository struct {
	db *pgxpool.Pool
}

func NewVenueRepository(db *pgxpool.Pool) VenueRepository {
	return &PGVenueRepository{db: db}
}

const venueColumns = `id, owner_id, name, address, lat, lng, sports, images, price_per_hour, amenities, rating, is_seeded, created_at, updated_at`

func (r *PGVenueRepository) Insert(ctx context.Context, venue *domain.Venue) error {
	return r.db.QueryRow(ctx, `INSERT INTO venues (id, owner_id, name, address, lat, lng, sports, images, price_per_hour, amenities, rating, is_seeded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		venue.ID, venue.OwnerID, venue.Name, venue.Address, venue.Lat, venue.Lng, venue.Sports, venue.Images,
		venue.PricePerHour, venue.Amenities, venue.Rating, venue.IsSeeded).
		Scan(&venue.CreatedAt, &venue.UpdatedAt)
}

func (r *PGVenueRepository) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	row := r.db.QueryRow(ctx, `SELECT `+venueColumns+` FROM venues WHERE id=$1`, id)
	v, err := scanVenue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVenueNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *PGVenueRepository) List(ctx context.Context, filter domain.VenueFilter) ([]domain.Venue, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Sport != "" {
		where = append(where, arg(filter.Sport)+" = ANY(sports)")
	}
	if filter.City != "" {
		where = append(where, "address ILIKE "+arg("%"+filter.City+"%"))
	}
	if filter.Query != "" {
		where = append(where, "name ILIKE "+arg("%"+filter.Query+"%"))
	}
	if filter.MinPrice != nil {
		where = append(where, "price_per_hour >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where = append(where, "price_per_hour <= "+arg(*filter.MaxPrice))
	}
	if filter.SeededOnly {
		where = append(where, "is_seeded = TRUE")
	}

	sql := `SELECT ` + venueColumns + ` FROM venues`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY created_at"
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	sql += " LIMIT " + arg(limit) + " OFFSET " + arg(filter.Skip)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVenues(rows)
}

func (r *PGVenueRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Venue, error) {
	rows, err := r.db.Query(ctx, `SELECT `+venueColumns+` FROM venues WHERE owner_id=$1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVenues(rows)
}

func (r *PGVenueRepository) IDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM venues WHERE owner_id=$1`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGVenueRepository) TopRated(ctx context.Context, city, sport string, limit int) ([]domain.Venue, error) {
	var (
		where []string
		args  []any
	)
	if city != "" {
		args = append(args, "%"+city+"%")
		where = append(where, fmt.Sprintf("address ILIKE $%d", len(args)))
	}
	if sport != "" {
		args = append(args, sport)
		where = append(where, fmt.Sprintf("$%d = ANY(sports)", len(args)))
	}

	sql := `SELECT ` + venueColumns + ` FROM venues`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	if limit <= 0 {
		limit = 5
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY rating DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVenues(rows)
}

func (r *PGVenueRepository) CountSeeded(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM venues WHERE is_seeded = TRUE`).Scan(&n)
	return n, err
}

func (r *PGVenueRepository) PricePerHour(ctx context.Context, venueID string) (float64, error) {
	var price float64
	if err := r.db.QueryRow(ctx, `SELECT price_per_hour FROM venues WHERE id=$1`, venueID).Scan(&price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrVenueNotFound
		}
		return 0, err
	}
	return price, nil
}

func scanVenue(row pgx.Row) (*domain.Venue, error) {
	var v domain.Venue
	if err := row.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Address, &v.Lat, &v.Lng, &v.Sports, &v.Images,
		&v.PricePerHour, &v.Amenities, &v.Rating, &v.IsSeeded, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func scanVenues(rows pgx.Rows) ([]domain.Venue, error) {
	venues := make([]domain.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, *v)
	}
	return venues, rows.Err()
}

var _ VenueRepository = (*PGVenueRepository)(nil)
