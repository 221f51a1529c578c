package venue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sportease/sportease/internal/domain"
	"github.com/sportease/sportease/internal/repository"
)

type VenueUseCase interface {
	List(ctx context.Context, filter domain.VenueFilter) ([]domain.Venue, error)
	GetByID(ctx context.Context, id string) (*domain.Venue, error)
	// AddVenue gates the mutation on ownership: callerID must match the
	// venue's ownerID.
	AddVenue(ctx context.Context, callerID string, venue *domain.Venue) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Venue, error)
	Slots(ctx context.Context, venueID, date string) ([]domain.Slot, error)
	Suggestions(ctx context.Context, city, sport string, limit int) ([]domain.Venue, error)
	AddReview(ctx context.Context, review *domain.Review) error
	Reviews(ctx context.Context, venueID string, limit int) ([]domain.Review, error)
	Seed(ctx context.Context) (int, error)
}

type Cache interface {
	GetVenues(ctx context.Context) ([]domain.Venue, error)
	SetVenues(ctx context.Context, venues []domain.Venue) error
	InvalidateVenues(ctx context.Context) error
}

type VenueService struct {
	venues   repository.VenueRepository
	slots    repository.SlotRepository
	users    repository.UserRepository
	reviews  repository.ReviewRepository
	bookings repository.BookingRepository
	cache    Cache
}

func NewVenueService(
	venues repository.VenueRepository,
	slots repository.SlotRepository,
	users repository.UserRepository,
	reviews repository.ReviewRepository,
	bookings repository.BookingRepository,
	cache Cache,
) *VenueService {
	return &VenueService{
		venues:   venues,
		slots:    slots,
		users:    users,
		reviews:  reviews,
		bookings: bookings,
		cache:    cache,
	}
}

// List serves venue search. Only the unfiltered default page goes through
// the cache; filtered queries always hit the store.
func (s *VenueService) List(ctx context.Context, filter domain.VenueFilter) ([]domain.Venue, error) {
	cacheable := filter.Sport == "" && filter.City == "" && filter.Query == "" &&
		filter.MinPrice == nil && filter.MaxPrice == nil && !filter.SeededOnly && filter.Skip == 0
	if cacheable && s.cache != nil {
		if cached, err := s.cache.GetVenues(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	venues, err := s.venues.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if cacheable && s.cache != nil {
		_ = s.cache.SetVenues(ctx, venues)
	}
	return venues, nil
}

func (s *VenueService) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	return s.venues.GetByID(ctx, id)
}

func (s *VenueService) AddVenue(ctx context.Context, callerID string, venue *domain.Venue) error {
	if callerID == "" || callerID != venue.OwnerID {
		return domain.ErrForbidden
	}
	if venue.ID == "" {
		venue.ID = uuid.NewString()
	}
	if err := s.venues.Insert(ctx, venue); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateVenues(ctx)
	}
	return nil
}

func (s *VenueService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Venue, error) {
	return s.venues.ListByOwner(ctx, ownerID)
}

func (s *VenueService) Slots(ctx context.Context, venueID, date string) ([]domain.Slot, error) {
	return s.slots.FindByVenueAndDate(ctx, venueID, date)
}

func (s *VenueService) Suggestions(ctx context.Context, city, sport string, limit int) ([]domain.Venue, error) {
	return s.venues.TopRated(ctx, city, sport, limit)
}

// AddReview allows a review only from a user with a confirmed booking at
// the venue.
func (s *VenueService) AddReview(ctx context.Context, review *domain.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	ok, err := s.bookings.HasConfirmed(ctx, review.UserID, review.VenueID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrReviewNotAllowed
	}
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	return s.reviews.Insert(ctx, review)
}

func (s *VenueService) Reviews(ctx context.Context, venueID string, limit int) ([]domain.Review, error) {
	return s.reviews.ListByVenue(ctx, venueID, limit)
}

// Seed provisions a demo owner, a demo player, and the sample venues with
// six one-hour slots for today each. Safe to call repeatedly.
func (s *VenueService) Seed(ctx context.Context) (int, error) {
	owner, err := s.users.GetByEmail(ctx, "owner@sportease.dev")
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return 0, err
		}
		owner = &domain.User{ID: uuid.NewString(), Name: "Owner One", Email: "owner@sportease.dev", Role: domain.RoleOwner}
		if err := s.users.Upsert(ctx, owner); err != nil {
			return 0, err
		}
	}
	if _, err := s.users.GetByEmail(ctx, "player@sportease.dev"); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return 0, err
		}
		player := &domain.User{ID: uuid.NewString(), Name: "Player One", Email: "player@sportease.dev", Role: domain.RolePlayer}
		if err := s.users.Upsert(ctx, player); err != nil {
			return 0, err
		}
	}

	count, err := s.venues.CountSeeded(ctx)
	if err != nil {
		return 0, err
	}
	if count >= len(sampleVenues) {
		return count, nil
	}

	today := time.Now().Format("2006-01-02")
	for _, sample := range sampleVenues {
		v := sample
		v.ID = uuid.NewString()
		v.OwnerID = owner.ID
		v.IsSeeded = true
		v.Rating = 4.4
		if err := s.venues.Insert(ctx, &v); err != nil {
			return 0, err
		}
		for _, rng := range seedSlotRanges {
			slot := &domain.Slot{
				ID:        uuid.NewString(),
				VenueID:   v.ID,
				Date:      today,
				StartTime: rng[0],
				EndTime:   rng[1],
				Status:    domain.SlotStatusAvailable,
			}
			if err := s.slots.Insert(ctx, slot); err != nil {
				return 0, err
			}
		}
	}

	if s.cache != nil {
		_ = s.cache.InvalidateVenues(ctx)
	}
	return len(sampleVenues), nil
}

var _ VenueUseCase = (*VenueService)(nil)
