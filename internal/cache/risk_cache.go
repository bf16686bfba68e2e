// Package cache keeps the latest risk assessment per vehicle in Redis so the
// API can answer vehicle lookups without touching the SQL store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/config"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

const keyPrefix = "dpf-rul:risk:"

type RiskCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, cfg config.CacheConfig) (*RiskCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Infof("Risk cache connected to %s (db %d)", cfg.Addr, cfg.DB)
	return NewWithClient(client, cfg.TTL), nil
}

func NewWithClient(client redis.UniversalClient, ttl time.Duration) *RiskCache {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &RiskCache{client: client, ttl: ttl}
}

func Key(vin string) string {
	return keyPrefix + vin
}

// StoreRisks writes all risks in one pipeline.
func (c *RiskCache) StoreRisks(ctx context.Context, risks []models.VehicleRisk) error {
	if len(risks) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for i := range risks {
		body, err := json.Marshal(&risks[i])
		if err != nil {
			return fmt.Errorf("failed to encode risk for %s: %w", risks[i].VIN, err)
		}
		pipe.Set(ctx, Key(risks[i].VIN), body, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// GetRisk returns the cached risk for vin, or nil when absent.
func (c *RiskCache) GetRisk(ctx context.Context, vin string) (*models.VehicleRisk, error) {
	body, err := c.client.Get(ctx, Key(vin)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: key=%s: %w", Key(vin), err)
	}

	var risk models.VehicleRisk
	if err := json.Unmarshal(body, &risk); err != nil {
		return nil, fmt.Errorf("failed to decode cached risk: %w", err)
	}
	return &risk, nil
}

func (c *RiskCache) Invalidate(ctx context.Context, vin string) error {
	return c.client.Del(ctx, Key(vin)).Err()
}

func (c *RiskCache) Close() error {
	return c.client.Close()
}
