package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sportease/sportease/internal/domain"
)

type ReviewRepository interface {
	Insert(ctx context.Context, review *domain.Review) error
	ListByVenue(ctx context.Context, venueID string, limit int) ([]domain.Review, error)
}

type PGReviewRepository struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) ReviewRepository {
	return &PGReviewRepository{db: db}
}

func (r *PGReviewRepository) Insert(ctx context.Context, review *domain.Review) error {
	return r.db.QueryRow(ctx, `INSERT INTO reviews (id, user_id, venue_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		review.ID, review.UserID, review.VenueID, review.Rating, review.Comment).
		Scan(&review.CreatedAt)
}

func (r *PGReviewRepository) ListByVenue(ctx context.Context, venueID string, limit int) ([]domain.Review, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, `SELECT id, user_id, venue_id, rating, comment, created_at
		FROM reviews WHERE venue_id=$1 ORDER BY created_at DESC LIMIT $2`, venueID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(&rev.ID, &rev.UserID, &rev.VenueID, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

var _ ReviewRepository = (*PGReviewRepository)(nil)
