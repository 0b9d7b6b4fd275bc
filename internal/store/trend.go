// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gunmerch/internal/models"
)

// TrendStore persists discovered trends.
type TrendStore struct {
	db *sql.DB
}

// NewTrendStore creates a new TrendStore with the given database connection.
func NewTrendStore(db *sql.DB) *TrendStore {
	return &TrendStore{db: db}
}

const trendColumns = `id, topic, source, source_url, engagement_score, discovered_at`

func scanTrend(scanner interface{ Scan(...any) error }) (*models.Trend, error) {
	var t models.Trend
	if err := scanner.Scan(&t.ID, &t.Topic, &t.Source, &t.SourceURL, &t.EngagementScore, &t.DiscoveredAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Store saves a trend observation. When the same topic was already seen in
// the last 24 hours its score is replaced with the new observation's score
// and the existing ID is returned; otherwise a new row is inserted.
// A transaction-scoped advisory lock on the topic serialises concurrent
// scans of the same topic.
func (s *TrendStore) Store(ctx context.Context, t models.Trend) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store trend: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, t.Topic); err != nil {
		return 0, fmt.Errorf("lock trend topic: %w", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM trends
		WHERE topic = $1 AND discovered_at > NOW() - INTERVAL '24 hours'
		ORDER BY discovered_at DESC
		LIMIT 1`, t.Topic,
	).Scan(&id)

	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx, `
			UPDATE trends
			SET engagement_score = $1, source_url = COALESCE(NULLIF($2, ''), source_url)
			WHERE id = $3`, t.EngagementScore, t.SourceURL, id)
		if err != nil {
			return 0, fmt.Errorf("update trend score: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		err = tx.QueryRowContext(ctx, `
			INSERT INTO trends (topic, source, source_url, engagement_score)
			VALUES ($1, $2, $3, $4)
			RETURNING id`, t.Topic, t.Source, t.SourceURL, t.EngagementScore,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("insert trend: %w", err)
		}
	default:
		return 0, fmt.Errorf("find recent trend: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store trend commit: %w", err)
	}
	return id, nil
}

// List returns trends discovered within the filter's window.
func (s *TrendStore) List(ctx context.Context, f models.TrendFilter) ([]models.Trend, error) {
	f = f.Normalize()

	dir := "DESC"
	if f.Asc {
		dir = "ASC"
	}
	// OrderBy is restricted to known columns by Normalize.
	order := f.OrderBy + " " + dir + ", id " + dir

	var (
		rows *sql.Rows
		err  error
	)
	if f.Source != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+trendColumns+` FROM trends
			WHERE discovered_at > NOW() - make_interval(hours => $1) AND source = $2
			ORDER BY `+order+`
			LIMIT $3`, f.Hours, f.Source, f.Limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+trendColumns+` FROM trends
			WHERE discovered_at > NOW() - make_interval(hours => $1)
			ORDER BY `+order+`
			LIMIT $2`, f.Hours, f.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list trends: %w", err)
	}
	defer rows.Close()

	var items []models.Trend
	for rows.Next() {
		t, err := scanTrend(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// Top returns the highest-scoring trends of the last 24 hours.
func (s *TrendStore) Top(ctx context.Context, limit int) ([]models.Trend, error) {
	return s.List(ctx, models.TrendFilter{Limit: limit})
}

// DeleteOlderThan prunes trends discovered more than days ago.
func (s *TrendStore) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM trends WHERE discovered_at < NOW() - make_interval(days => $1)`, days)
	if err != nil {
		return 0, fmt.Errorf("prune trends: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
