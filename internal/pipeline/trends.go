// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"fmt"

	"gunmerch/internal/models"
	"gunmerch/internal/trends"
)

// ScanTrends fetches trends from every source, stores them with topic
// deduplication and refreshes the current-trends cache. When no source
// yields anything the mock dataset is stored instead.
func (s *Service) ScanTrends(ctx context.Context) (sum Summary, err error) {
	ctx, span := s.start(ctx, "ScanTrends")
	defer func() { end(span, err) }()

	if s.deps.Trends == nil {
		return sum, fmt.Errorf("trend store: %w", ErrNotConfigured)
	}

	var found []models.Trend
	if s.deps.Scanner != nil {
		found = s.deps.Scanner.ScanAll(ctx)
	}
	if len(found) == 0 {
		s.log.Warning(ctx, 0, "No trends found from sources, using mock data", nil)
		found = trends.MockTrends()
	}

	stored := make([]models.Trend, 0, len(found))
	failed := 0
	for _, t := range found {
		id, err := s.deps.Trends.Store(ctx, t)
		if err != nil {
			failed++
			s.log.Error(ctx, 0, "Failed to store trend", map[string]any{"topic": t.Topic, "error": err.Error()})
			continue
		}
		t.ID = id
		stored = append(stored, t)
	}
	if len(stored) == 0 && failed > 0 {
		return sum, fmt.Errorf("store trends: all %d failed", failed)
	}

	if s.deps.Cache != nil {
		s.deps.Cache.Set(ctx, stored)
	}

	s.log.Info(ctx, 0, "Trend scan complete", map[string]any{"count": len(stored), "failed": failed})
	return Summary{
		Message: fmt.Sprintf("Found and stored %d trends.", len(stored)),
		Count:   len(stored),
	}, nil
}

// CurrentTrends returns up to limit trends from the last scan, falling back
// to the highest-scoring stored trends of the last 24 hours.
func (s *Service) CurrentTrends(ctx context.Context, limit int) ([]models.Trend, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.deps.Cache != nil {
		if cached, ok := s.deps.Cache.Get(ctx); ok {
			if len(cached) > limit {
				cached = cached[:limit]
			}
			return cached, nil
		}
	}
	if s.deps.Trends == nil {
		return nil, nil
	}
	return s.deps.Trends.Top(ctx, limit)
}

// ListTrends returns stored trends matching the filter.
func (s *Service) ListTrends(ctx context.Context, f models.TrendFilter) ([]models.Trend, error) {
	if s.deps.Trends == nil {
		return nil, fmt.Errorf("trend store: %w", ErrNotConfigured)
	}
	return s.deps.Trends.List(ctx, f)
}
