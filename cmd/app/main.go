package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sportease/sportease/config"
	"github.com/sportease/sportease/internal/bootstrap"
	"github.com/sportease/sportease/internal/cache"
	"github.com/sportease/sportease/internal/kafka"
	"github.com/sportease/sportease/internal/payment"
	"github.com/sportease/sportease/internal/repository"
	"github.com/sportease/sportease/internal/service/booking"
	"github.com/sportease/sportease/internal/service/user"
	"github.com/sportease/sportease/internal/service/venue"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate schema: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.VenuesCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	gateway := payment.NewClient(cfg.Razorpay)

	venueRepo := repository.NewVenueRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)

	venueService := venue.NewVenueService(venueRepo, slotRepo, userRepo, reviewRepo, bookingRepo, redisCache)
	userService := user.NewUserService(userRepo)
	bookingService := booking.NewBookingService(
		bookingRepo,
		slotRepo,
		venueRepo,
		gateway,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		time.Duration(cfg.Booking.HoldTTLMinutes)*time.Minute,
		time.Duration(cfg.Booking.ConfirmationTTL)*time.Minute,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, venueService, bookingService, userService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
