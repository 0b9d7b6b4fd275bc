// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// trends.go keeps the result of the last trend scan in Valkey so that
// design generation can read current trends without querying PostgreSQL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"gunmerch/internal/models"
)

const (
	// currentTrendsKey is the Valkey key holding the last scan result.
	currentTrendsKey = "trends:current"

	// DefaultTrendTTL is how long a scan result stays current.
	DefaultTrendTTL = time.Hour
)

// TrendCache stores the most recent scan result.
type TrendCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTrendCache creates a trend cache backed by the given Valkey client.
func NewTrendCache(client *redis.Client, ttl time.Duration) *TrendCache {
	if ttl == 0 {
		ttl = DefaultTrendTTL
	}
	return &TrendCache{client: client, ttl: ttl}
}

// Get returns the cached trends. The second value is false on a miss or
// when the cached payload cannot be read.
func (tc *TrendCache) Get(ctx context.Context) ([]models.Trend, bool) {
	val, err := tc.client.Get(ctx, currentTrendsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("trend cache get error", "error", err)
		return nil, false
	}

	var trends []models.Trend
	if err := json.Unmarshal(val, &trends); err != nil {
		slog.Warn("trend cache decode error", "error", err)
		return nil, false
	}
	slog.Debug("trend cache hit", "count", len(trends))
	return trends, true
}

// Set replaces the cached trends.
func (tc *TrendCache) Set(ctx context.Context, trends []models.Trend) {
	data, err := json.Marshal(trends)
	if err != nil {
		slog.Warn("trend cache encode error", "error", err)
		return
	}
	if err := tc.client.Set(ctx, currentTrendsKey, data, tc.ttl).Err(); err != nil {
		slog.Warn("trend cache set error", "error", err)
	}
}

// Invalidate drops the cached trends.
func (tc *TrendCache) Invalidate(ctx context.Context) {
	if err := tc.client.Del(ctx, currentTrendsKey).Err(); err != nil {
		slog.Warn("trend cache invalidate error", "error", err)
	}
}
