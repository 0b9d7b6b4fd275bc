// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"gunmerch/internal/models"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	client.Del(ctx, currentTrendsKey, notificationsKey)
	t.Cleanup(func() {
		client.Del(ctx, currentTrendsKey, notificationsKey)
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(host, port, os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestTrendCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	tc := NewTrendCache(client, time.Minute)
	ctx := context.Background()

	if _, ok := tc.Get(ctx); ok {
		t.Fatal("expected cache miss")
	}

	trends := []models.Trend{
		{Topic: "Boating accident", Source: "mock", EngagementScore: 920},
		{Topic: "ATF pistol brace", Source: "mock", EngagementScore: 850},
	}
	tc.Set(ctx, trends)

	got, ok := tc.Get(ctx)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0].EngagementScore != 920 {
		t.Errorf("cached trends: %+v", got)
	}

	tc.Invalidate(ctx)
	if _, ok := tc.Get(ctx); ok {
		t.Error("expected miss after invalidation")
	}
}

func TestNewTrendCacheDefaultTTL(t *testing.T) {
	tc := NewTrendCache(nil, 0)
	if tc.ttl != DefaultTrendTTL {
		t.Errorf("expected DefaultTrendTTL (%v), got %v", DefaultTrendTTL, tc.ttl)
	}
}

func TestNotifierDedupUntilDismissed(t *testing.T) {
	client := testValkeyClient(t)
	n := NewNotifier(client)
	ctx := context.Background()

	stored, err := n.Notify(ctx, models.Notification{Key: "new_designs", Message: "3 new designs"})
	if err != nil || !stored {
		t.Fatalf("first Notify: stored=%v err=%v", stored, err)
	}
	stored, err = n.Notify(ctx, models.Notification{Key: "new_designs", Message: "5 new designs"})
	if err != nil {
		t.Fatalf("second Notify: %v", err)
	}
	if stored {
		t.Error("duplicate key should be suppressed while pending")
	}

	list, err := n.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Message != "3 new designs" {
		t.Fatalf("List: %+v", list)
	}
	if list[0].Severity != models.SeverityInfo {
		t.Errorf("severity: got %q, want info", list[0].Severity)
	}

	if err := n.Dismiss(ctx, "new_designs"); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	stored, err = n.Notify(ctx, models.Notification{Key: "new_designs", Message: "5 new designs"})
	if err != nil || !stored {
		t.Errorf("Notify after dismiss: stored=%v err=%v", stored, err)
	}
}

func TestNotifierRejectsEmptyKey(t *testing.T) {
	n := NewNotifier(nil)
	if _, err := n.Notify(context.Background(), models.Notification{Message: "x"}); err == nil {
		t.Error("expected error for empty key")
	}
}
