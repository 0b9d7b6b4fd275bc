// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"gunmerch/internal/models"
)

// notificationsKey is the Valkey hash holding pending notifications,
// one field per dedup key.
const notificationsKey = "notifications"

// Notifier is the operator notification centre.
type Notifier struct {
	client *redis.Client
	now    func() time.Time
}

// NewNotifier creates a Notifier backed by the given Valkey client.
func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client, now: time.Now}
}

// Notify stores a notification unless one with the same key is still
// pending. It reports whether the notification was stored.
func (n *Notifier) Notify(ctx context.Context, note models.Notification) (bool, error) {
	if note.Key == "" {
		return false, fmt.Errorf("notify: empty key")
	}
	if note.Severity == "" {
		note.Severity = models.SeverityForKey(note.Key)
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = n.now()
	}

	data, err := json.Marshal(note)
	if err != nil {
		return false, fmt.Errorf("encode notification: %w", err)
	}

	stored, err := n.client.HSetNX(ctx, notificationsKey, note.Key, data).Result()
	if err != nil {
		return false, fmt.Errorf("store notification: %w", err)
	}
	if !stored {
		slog.Debug("notification suppressed", "key", note.Key)
	}
	return stored, nil
}

// List returns pending notifications, newest first.
func (n *Notifier) List(ctx context.Context) ([]models.Notification, error) {
	fields, err := n.client.HGetAll(ctx, notificationsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	out := make([]models.Notification, 0, len(fields))
	for key, raw := range fields {
		var note models.Notification
		if err := json.Unmarshal([]byte(raw), &note); err != nil {
			slog.Warn("dropping unreadable notification", "key", key, "error", err)
			n.client.HDel(ctx, notificationsKey, key)
			continue
		}
		out = append(out, note)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Dismiss acknowledges a notification so its key can fire again.
func (n *Notifier) Dismiss(ctx context.Context, key string) error {
	if err := n.client.HDel(ctx, notificationsKey, key).Err(); err != nil {
		return fmt.Errorf("dismiss notification: %w", err)
	}
	return nil
}
