// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"gunmerch/internal/models"
)

// Seed inserts every operator setting that does not exist yet. Existing
// values are never overwritten, so it is safe to run on every start.
func Seed(ctx context.Context, db *sql.DB) error {
	keys := make([]string, 0, len(models.DefaultSettings))
	for k := range models.DefaultSettings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var inserted int64
	for _, k := range keys {
		res, err := db.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
			k, models.DefaultSettings[k],
		)
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", k, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if inserted == 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	slog.Info("database seeded with default settings", "inserted", inserted)
	return nil
}
