// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"gunmerch/internal/models"
	"gunmerch/internal/trends"
)

// GenerateDesigns creates up to count pending designs from the current
// trends, highest score first. count <= 0 uses the designs_per_scan
// setting. Trends below min_engagement are skipped; with auto_approve on,
// new designs are created approved.
func (s *Service) GenerateDesigns(ctx context.Context, count int) (sum Summary, err error) {
	ctx, span := s.start(ctx, "GenerateDesigns")
	defer func() { end(span, err) }()

	st := s.settings(ctx)
	if count <= 0 {
		count = st.Int(models.SettingDesignsPerScan)
	}
	minScore := st.Int(models.SettingMinEngagement)
	margin := st.Float(models.SettingDefaultMargin)
	autoApprove := st.Bool(models.SettingAutoApprove)

	candidates, err := s.CurrentTrends(ctx, max(count*3, 20))
	if err != nil {
		return sum, fmt.Errorf("load trends: %w", err)
	}
	if len(candidates) == 0 {
		s.log.Warning(ctx, 0, "No trends available, using mock data", nil)
		candidates = trends.MockTrends()
	}

	created := 0
	for _, t := range candidates {
		if created >= count {
			break
		}
		if t.EngagementScore < minScore {
			continue
		}

		draft := s.deps.Concepts.FromTrend(ctx, t, margin)
		d := draft.Design()
		if autoApprove {
			d.Status = models.DesignStatusApproved
		}
		saved, cerr := s.deps.Designs.Create(ctx, d)
		if cerr != nil {
			s.log.Error(ctx, 0, "Failed to create design", map[string]any{"topic": t.Topic, "error": cerr.Error()})
			continue
		}
		created++
		s.log.Info(ctx, saved.ID, "Design created", map[string]any{
			"title":  saved.Title,
			"topic":  t.Topic,
			"source": saved.MetaValue(models.MetaConceptSource),
			"status": string(saved.Status),
		})
	}

	if created == 0 {
		return Summary{Message: "No designs generated: no trend met the minimum engagement."}, nil
	}
	s.notify(ctx, "new_designs", fmt.Sprintf("%d new designs are waiting for review.", created))
	return Summary{Message: fmt.Sprintf("Generated %d new designs.", created), Count: created}, nil
}

// Regenerate creates a fresh pending design from an existing design's
// trend topic. Per-design image prompt and highlight overrides carry over.
func (s *Service) Regenerate(ctx context.Context, id int64) (d *models.Design, err error) {
	ctx, span := s.start(ctx, "Regenerate")
	defer func() { end(span, err) }()

	orig, err := s.design(ctx, id)
	if err != nil {
		return nil, err
	}

	trend := models.Trend{Topic: orig.TrendTopic, SourceURL: orig.TrendSourceURL}
	if trend.Topic == "" {
		trend.Topic = orig.Title
	}
	draft := s.deps.Concepts.FromTrend(ctx, trend, orig.EstimatedMargin)
	if draft.Meta == nil {
		draft.Meta = map[string]string{}
	}
	draft.Meta[models.MetaRegeneratedFrom] = strconv.FormatInt(orig.ID, 10)
	for _, k := range []string{models.MetaImagePrompt, models.MetaHighlightWord, models.MetaHighlightColor} {
		if v := orig.MetaValue(k); v != "" {
			draft.Meta[k] = v
		}
	}

	d, err = s.deps.Designs.Create(ctx, draft.Design())
	if err != nil {
		return nil, fmt.Errorf("regenerate design %d: %w", id, err)
	}
	s.log.Info(ctx, d.ID, "Design regenerated", map[string]any{"regenerated_from": orig.ID})
	return d, nil
}
