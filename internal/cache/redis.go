package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sportease/sportease/config"
	"github.com/sportease/sportease/internal/domain"
)

type RedisCache struct {
	client    *redis.Client
	venuesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, venuesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		venuesTTL: venuesTTL,
	}
}

func (c *RedisCache) GetVenues(ctx context.Context) ([]domain.Venue, error) {
	data, err := c.client.Get(ctx, venuesKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var venues []domain.Venue
	if err := json.Unmarshal(data, &venues); err != nil {
		return nil, err
	}
	return venues, nil
}

func (c *RedisCache) SetVenues(ctx context.Context, venues []domain.Venue) error {
	payload, err := json.Marshal(venues)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, venuesKey(), payload, c.venuesTTL).Err()
}

func (c *RedisCache) InvalidateVenues(ctx context.Context) error {
	return c.client.Del(ctx, venuesKey()).Err()
}

// AcquireSlotHold is a fast-path guard in front of the database CAS: it
// keeps two checkouts from racing on the same slot before either reaches
// the store. The database transition remains the source of truth.
func (c *RedisCache) AcquireSlotHold(ctx context.Context, slotID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, slotHoldKey(slotID), "held", ttl).Result()
}

func (c *RedisCache) ReleaseSlotHold(ctx context.Context, slotID string) error {
	return c.client.Del(ctx, slotHoldKey(slotID)).Err()
}

func venuesKey() string {
	return "cache:venues"
}

func slotHoldKey(slotID string) string {
	return fmt.Sprintf("hold:slot:%s", slotID)
}
