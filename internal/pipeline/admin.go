// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gunmerch/internal/models"
	"gunmerch/internal/storefront"
)

// ConnectionStatus is the result of probing one storefront.
type ConnectionStatus struct {
	Backend         string                `json:"backend"`
	Store           *storefront.StoreInfo `json:"store,omitempty"`
	CreatesProducts bool                  `json:"creates_products"`
	Error           string                `json:"error,omitempty"`
}

// TestConnection probes every configured storefront. Probe failures are
// reported per backend, not returned as errors.
func (s *Service) TestConnection(ctx context.Context) ([]ConnectionStatus, error) {
	fronts := s.storefronts()
	if len(fronts) == 0 {
		return nil, fmt.Errorf("storefront: %w", ErrNotConfigured)
	}
	out := make([]ConnectionStatus, 0, len(fronts))
	for _, sf := range fronts {
		cs := ConnectionStatus{Backend: sf.Name()}
		info, err := sf.TestConnection(ctx)
		if err != nil {
			cs.Error = err.Error()
			s.logAPIError(ctx, 0, sf.Name(), "test connection", err)
			out = append(out, cs)
			continue
		}
		cs.Store = info
		if cs.CreatesProducts, err = sf.SupportsProductCreation(ctx); err != nil {
			cs.Error = err.Error()
		}
		out = append(out, cs)
	}
	return out, nil
}

// Maintenance prunes trends and log entries past their retention.
func (s *Service) Maintenance(ctx context.Context) (sum Summary, err error) {
	ctx, span := s.start(ctx, "Maintenance")
	defer func() { end(span, err) }()

	st := s.settings(ctx)
	var trends, logs int64
	if s.deps.Trends != nil {
		if trends, err = s.deps.Trends.DeleteOlderThan(ctx, st.Int(models.SettingTrendRetentionDays)); err != nil {
			return sum, err
		}
		if trends > 0 && s.deps.Cache != nil {
			s.deps.Cache.Invalidate(ctx)
		}
	}
	if s.deps.Logs != nil {
		if logs, err = s.deps.Logs.DeleteOlderThan(ctx, st.Int(models.SettingLogRetentionDays)); err != nil {
			return sum, err
		}
	}
	s.log.System(ctx, "Maintenance complete", map[string]any{"trends_pruned": trends, "logs_pruned": logs})
	return Summary{
		Message: fmt.Sprintf("Pruned %d trends and %d log entries.", trends, logs),
		Count:   int(trends + logs),
	}, nil
}

// Stats summarises the design pipeline.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	return s.deps.Designs.Stats(ctx)
}

// Logs returns a page of activity log entries and the total matching count.
func (s *Service) Logs(ctx context.Context, f models.LogFilter) ([]models.LogEntry, int, error) {
	if s.deps.Logs == nil {
		return nil, 0, fmt.Errorf("log store: %w", ErrNotConfigured)
	}
	entries, err := s.deps.Logs.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.deps.Logs.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ClearLogs deletes every activity log entry. olderThanDays > 0 deletes
// only entries older than that.
func (s *Service) ClearLogs(ctx context.Context, olderThanDays int) (Summary, error) {
	if s.deps.Logs == nil {
		return Summary{}, fmt.Errorf("log store: %w", ErrNotConfigured)
	}
	var (
		n   int64
		err error
	)
	if olderThanDays > 0 {
		n, err = s.deps.Logs.DeleteOlderThan(ctx, olderThanDays)
	} else {
		n, err = s.deps.Logs.DeleteAll(ctx)
	}
	if err != nil {
		return Summary{}, err
	}
	s.log.System(ctx, "Logs cleared", map[string]any{"deleted": n, "older_than_days": olderThanDays})
	return Summary{Message: fmt.Sprintf("Deleted %d log entries.", n), Count: int(n)}, nil
}

// GetSettings returns every operator setting, defaults filled in.
func (s *Service) GetSettings(ctx context.Context) models.Settings {
	st := s.settings(ctx)
	out := make(models.Settings, len(models.DefaultSettings))
	for k := range models.DefaultSettings {
		out[k] = st.String(k)
	}
	return out
}

// UpdateSettings validates and stores settings. Unknown keys and values of
// the wrong type are rejected before anything is written.
func (s *Service) UpdateSettings(ctx context.Context, values map[string]string) (models.Settings, error) {
	if s.deps.Settings == nil {
		return nil, fmt.Errorf("settings store: %w", ErrNotConfigured)
	}
	clean := make(map[string]string, len(values))
	for k, v := range values {
		rule, ok := models.SettingRules[k]
		if !ok {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, k)
		}
		v = strings.TrimSpace(v)
		if err := checkSetting(rule, v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSetting, k, err)
		}
		clean[k] = v
	}
	if err := s.deps.Settings.SetMany(ctx, clean); err != nil {
		return nil, err
	}
	s.log.Info(ctx, 0, "Settings updated", map[string]any{"keys": len(clean)})
	return s.GetSettings(ctx), nil
}

// checkSetting requires v to parse with the getter the setting is read
// with and to respect the rule's minimum.
func checkSetting(rule models.SettingRule, v string) error {
	switch rule.Kind {
	case models.KindBool:
		if _, err := strconv.ParseBool(v); err != nil {
			return fmt.Errorf("want true or false")
		}
	case models.KindInt:
		if n, err := strconv.Atoi(v); err != nil || float64(n) < rule.Min {
			return fmt.Errorf("want an integer >= %g", rule.Min)
		}
	case models.KindFloat:
		if f, err := strconv.ParseFloat(v, 64); err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < rule.Min {
			return fmt.Errorf("want a number >= %g", rule.Min)
		}
	}
	return nil
}

// Notifications lists pending notifications.
func (s *Service) Notifications(ctx context.Context) ([]models.Notification, error) {
	if s.deps.Notifier == nil {
		return nil, nil
	}
	return s.deps.Notifier.List(ctx)
}

// DismissNotification acknowledges a notification.
func (s *Service) DismissNotification(ctx context.Context, key string) error {
	if s.deps.Notifier == nil {
		return fmt.Errorf("notifications: %w", ErrNotConfigured)
	}
	return s.deps.Notifier.Dismiss(ctx, key)
}
