// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/pkg/model"
)

const (
	offerKeyPrefix = "offer:"
	bonusKeyPrefix = "bonus:"
)

// ErrNotFound indicates that no live entry exists for the key. Expired
// entries are indistinguishable from entries that were never written.
var ErrNotFound = errors.New("cache entry not found")

// InitRedisClient connects to Redis with retry and returns the client.
func InitRedisClient(ctx context.Context, addr, password string, maxRetries uint64) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	op := func() error {
		if _, err := client.Ping(ctx).Result(); err != nil {
			logrus.Warnf("Redis connection failed: %v, retrying...", err)
			return err
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logrus.Infof("connected to Redis at %s", addr)
	return client, nil
}

// RewardCache is the short-TTL Redis store for transient offers and comeback
// bonuses. Entries live for the originating campaign's duration and then
// expire on their own; the durable store keeps the historical record.
type RewardCache struct {
	client *redis.Client
}

// NewRewardCache creates a Redis-backed reward cache.
func NewRewardCache(client *redis.Client) *RewardCache {
	return &RewardCache{client: client}
}

func offerKey(userID string) string { return offerKeyPrefix + userID }
func bonusKey(userID string) string { return bonusKeyPrefix + userID }

// PutOffer writes the player's current offer under offer:{userId} with the
// given TTL.
func (c *RewardCache) PutOffer(ctx context.Context, o *model.Offer, ttl time.Duration) error {
	return c.put(ctx, offerKey(o.UserID), o, ttl)
}

// PutBonus writes the player's current comeback bonus under bonus:{userId}
// with the given TTL.
func (c *RewardCache) PutBonus(ctx context.Context, b *model.ComebackBonus, ttl time.Duration) error {
	return c.put(ctx, bonusKey(b.UserID), b, ttl)
}

// GetOffer returns the player's live offer, or ErrNotFound.
func (c *RewardCache) GetOffer(ctx context.Context, userID string) (*model.Offer, error) {
	var o model.Offer
	if err := c.get(ctx, offerKey(userID), &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetBonus returns the player's live comeback bonus, or ErrNotFound.
func (c *RewardCache) GetBonus(ctx context.Context, userID string) (*model.ComebackBonus, error) {
	var b model.ComebackBonus
	if err := c.get(ctx, bonusKey(userID), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Ping reports cache connectivity.
func (c *RewardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RewardCache) put(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logrus.Errorf("failed to set %s: %v", key, err)
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	logrus.Debugf("cached %s with TTL %v", key, ttl)
	return nil
}

func (c *RewardCache) get(ctx context.Context, key string, v interface{}) error {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		logrus.Errorf("failed to get %s: %v", key, err)
		return fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}
