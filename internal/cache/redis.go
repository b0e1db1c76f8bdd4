package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/festivo/vendorbooking/config"
	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache carries the slot-lock fast path and a short-lived availability
// cache. The lock only narrows the race window between two approvals; the
// partial unique index on shift_holds is the authority.
type RedisCache struct {
	client          *redis.Client
	availabilityTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, availabilityTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		availabilityTTL: availabilityTTL,
	}
}

func (c *RedisCache) AcquireSlotLock(ctx context.Context, key domain.SlotKey, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, slotLockKey(key), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSlotLock(ctx context.Context, key domain.SlotKey) error {
	return c.client.Del(ctx, slotLockKey(key)).Err()
}

func (c *RedisCache) GetVendorHolds(ctx context.Context, vendorID int64, date string) ([]domain.ShiftHold, error) {
	data, err := c.client.Get(ctx, vendorHoldsKey(vendorID, date)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var holds []domain.ShiftHold
	if err := json.Unmarshal(data, &holds); err != nil {
		return nil, err
	}
	return holds, nil
}

func (c *RedisCache) SetVendorHolds(ctx context.Context, vendorID int64, date string, holds []domain.ShiftHold) error {
	payload, err := json.Marshal(holds)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, vendorHoldsKey(vendorID, date), payload, c.availabilityTTL).Err()
}

func (c *RedisCache) InvalidateVendorHolds(ctx context.Context, vendorID int64, date string) error {
	return c.client.Del(ctx, vendorHoldsKey(vendorID, date)).Err()
}

func slotLockKey(key domain.SlotKey) string {
	return fmt.Sprintf("lock:slot:%d:%d:%s", key.VendorID, key.ShiftID, key.DateString())
}

func vendorHoldsKey(vendorID int64, date string) string {
	return fmt.Sprintf("cache:holds:%d:%s", vendorID, date)
}
