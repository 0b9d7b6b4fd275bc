// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Trend is a discovered topic with its engagement score.
type Trend struct {
	ID              int64     `json:"id"`
	Topic           string    `json:"topic"`
	Source          string    `json:"source"`
	SourceURL       string    `json:"source_url,omitempty"`
	EngagementScore int       `json:"engagement_score"`
	DiscoveredAt    time.Time `json:"discovered_at"`
}

// Trend ordering columns accepted by TrendFilter.
const (
	TrendOrderScore        = "engagement_score"
	TrendOrderDiscoveredAt = "discovered_at"
	TrendOrderID           = "id"
)

// TrendFilter narrows trend retrieval. Zero values mean defaults: the last
// 24 hours, 20 rows, highest score first.
type TrendFilter struct {
	Source  string
	Hours   int
	OrderBy string
	Asc     bool
	Limit   int
}

// Normalize fills defaults and replaces unknown order columns.
func (f TrendFilter) Normalize() TrendFilter {
	if f.Hours <= 0 {
		f.Hours = 24
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	switch f.OrderBy {
	case TrendOrderScore, TrendOrderDiscoveredAt, TrendOrderID:
	default:
		f.OrderBy = TrendOrderScore
	}
	return f
}
