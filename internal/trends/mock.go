// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package trends

import (
	"context"
	"slices"

	"gunmerch/internal/models"
)

var defaultMockTrends = []models.Trend{
	{Topic: "New ATF pistol brace rule controversy", SourceURL: "https://example.com/atf-brace-rule", EngagementScore: 850},
	{Topic: "Best concealed carry holsters 2024", SourceURL: "https://example.com/best-holsters", EngagementScore: 620},
	{Topic: "9mm vs .45 ACP debate heats up again", SourceURL: "https://example.com/9mm-vs-45", EngagementScore: 540},
	{Topic: "Boating accident meme goes viral", SourceURL: "https://example.com/boating-accident", EngagementScore: 920},
	{Topic: "New concealed carry reciprocity bill", SourceURL: "https://example.com/reciprocity", EngagementScore: 780},
	{Topic: "Glock vs Sig Sauer reliability test", SourceURL: "https://example.com/glock-vs-sig", EngagementScore: 430},
	{Topic: "Ammo shortage tips and tricks", SourceURL: "https://example.com/ammo-shortage", EngagementScore: 390},
	{Topic: "First time gun buyer guide", SourceURL: "https://example.com/first-gun", EngagementScore: 510},
}

// MockTrends returns a copy of the built-in development dataset.
func MockTrends() []models.Trend {
	out := slices.Clone(defaultMockTrends)
	for i := range out {
		out[i].Source = SourceMock
	}
	return out
}

// MockSource serves a fixed list of trends.
type MockSource struct {
	trends []models.Trend
}

// NewMockSource returns a source over trends, or the built-in dataset when
// none are given.
func NewMockSource(trends ...models.Trend) *MockSource {
	if len(trends) == 0 {
		trends = MockTrends()
	}
	return &MockSource{trends: trends}
}

func (m *MockSource) Name() string { return SourceMock }

func (m *MockSource) Fetch(ctx context.Context) ([]models.Trend, error) {
	out := slices.Clone(m.trends)
	for i := range out {
		if out[i].Source == "" {
			out[i].Source = SourceMock
		}
	}
	return out, nil
}
