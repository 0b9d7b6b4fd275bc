// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package trends discovers candidate topics for new designs. Each Source
// fetches and normalises items from one upstream (Reddit, RSS/Atom news
// feeds, or a fixed mock dataset); the Scanner merges them into one list
// ranked by engagement.
package trends

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"gunmerch/internal/models"
)

// Source identifiers stored with each trend.
const (
	SourceReddit = "reddit"
	SourceNews   = "news"
	SourceMock   = "mock"
)

// Source fetches normalised trends from one upstream. Fetch may return
// partial results together with an error.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Trend, error)
}

// Scanner runs every configured source and merges the results.
type Scanner struct {
	sources []Source
}

// NewScanner creates a scanner over the given sources. Nil sources are
// skipped so callers can pass optional adapters directly.
func NewScanner(sources ...Source) *Scanner {
	s := &Scanner{}
	for _, src := range sources {
		if src != nil {
			s.sources = append(s.sources, src)
		}
	}
	return s
}

// Sources returns the names of the configured sources.
func (s *Scanner) Sources() []string {
	names := make([]string, len(s.sources))
	for i, src := range s.sources {
		names[i] = src.Name()
	}
	return names
}

// ScanAll fetches every source in turn. A failing source is logged and
// skipped; whatever it returned before failing is kept. Items with an empty
// topic are dropped. The result is sorted by engagement score, highest first,
// with ties kept in source order.
func (s *Scanner) ScanAll(ctx context.Context) []models.Trend {
	var all []models.Trend
	for _, src := range s.sources {
		items, err := src.Fetch(ctx)
		if err != nil {
			slog.Warn("trend source failed", "source", src.Name(), "error", err, "partial", len(items))
		}
		for _, t := range items {
			t.Topic = strings.TrimSpace(t.Topic)
			if t.Topic == "" {
				continue
			}
			if t.Source == "" {
				t.Source = src.Name()
			}
			all = append(all, t)
		}
		if ctx.Err() != nil {
			break
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].EngagementScore > all[j].EngagementScore
	})
	return all
}

// userAgentTransport stamps a fixed User-Agent on every request, including
// OAuth token requests.
type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}
