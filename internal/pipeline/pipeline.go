// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pipeline sequences the design pipeline: trend scan, concept
// generation, image synthesis and post-processing, review, publishing and
// sales reconciliation. Every step runs to completion within the caller's
// invocation; the cron scheduler and the HTTP handlers are the only
// callers. Writes are safe to repeat, so overlapping runs are tolerated.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gunmerch/internal/activity"
	"gunmerch/internal/ai"
	"gunmerch/internal/models"
	"gunmerch/internal/storefront"
)

var (
	// ErrNotConfigured is wrapped with the name of the missing credential
	// or service.
	ErrNotConfigured = errors.New("not configured")
	// ErrDesignNotFound is returned for unknown design IDs.
	ErrDesignNotFound = errors.New("design not found")
	// ErrTransition is returned for status changes the review workflow
	// does not allow.
	ErrTransition = errors.New("status transition not allowed")
	// ErrNeedsImage is returned when publishing a design that has neither
	// an image nor the text-only flag.
	ErrNeedsImage = errors.New("design needs an image before publishing")
	// ErrNoImage is returned by post-processing steps on designs without
	// an image asset.
	ErrNoImage = errors.New("design has no image")
	// ErrInvalidSetting is returned for unknown setting keys or values of
	// the wrong type.
	ErrInvalidSetting = errors.New("invalid setting")
)

// DesignRepository persists designs and their metadata.
type DesignRepository interface {
	Create(ctx context.Context, d *models.Design) (*models.Design, error)
	FindByID(ctx context.Context, id int64) (*models.Design, error)
	FindByRemoteProductID(ctx context.Context, backend, remoteID string) (*models.Design, error)
	List(ctx context.Context, f models.DesignFilter) ([]models.Design, error)
	TransitionStatus(ctx context.Context, id int64, from, to models.DesignStatus) error
	MarkLive(ctx context.Context, id int64, backend, remoteID string) error
	SetImageAsset(ctx context.Context, id, assetID int64) error
	Touch(ctx context.Context, id int64) error
	SetMeta(ctx context.Context, id int64, key, value string) error
	DeleteMeta(ctx context.Context, id int64, key string) error
	Stats(ctx context.Context) (*models.Stats, error)
}

// TrendRepository persists trends.
type TrendRepository interface {
	Store(ctx context.Context, t models.Trend) (int64, error)
	List(ctx context.Context, f models.TrendFilter) ([]models.Trend, error)
	Top(ctx context.Context, limit int) ([]models.Trend, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// TrendCache holds the result of the last scan.
type TrendCache interface {
	Get(ctx context.Context) ([]models.Trend, bool)
	Set(ctx context.Context, trends []models.Trend)
	Invalidate(ctx context.Context)
}

// AssetRepository persists image asset records.
type AssetRepository interface {
	Create(ctx context.Context, a *models.Asset) (*models.Asset, error)
	FindByID(ctx context.Context, id int64) (*models.Asset, error)
	Update(ctx context.Context, a *models.Asset) error
	Delete(ctx context.Context, id int64) (*models.Asset, error)
}

// LogRepository reads and prunes the activity log.
type LogRepository interface {
	activity.LogWriter
	List(ctx context.Context, f models.LogFilter) ([]models.LogEntry, error)
	Count(ctx context.Context, f models.LogFilter) (int, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// SettingRepository stores operator settings.
type SettingRepository interface {
	All(ctx context.Context) (models.Settings, error)
	SetMany(ctx context.Context, settings map[string]string) error
}

// SalesLedger applies order lines at most once.
type SalesLedger interface {
	Apply(ctx context.Context, s models.Sale) (models.SaleResult, error)
}

// Notifier delivers deduplicated operator notifications.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) (bool, error)
	List(ctx context.Context) ([]models.Notification, error)
	Dismiss(ctx context.Context, key string) error
}

// ObjectStorage stores asset files.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

// TrendScanner fetches trends from every configured source.
type TrendScanner interface {
	ScanAll(ctx context.Context) []models.Trend
	Sources() []string
}

// ConceptGenerator turns a trend into a design draft.
type ConceptGenerator interface {
	FromTrend(ctx context.Context, trend models.Trend, margin float64) models.DesignDraft
}

// ImageSynthesizer generates artwork, trying providers in order.
type ImageSynthesizer interface {
	GenerateImage(ctx context.Context, prompt string) (*ai.Image, error)
	SupportsImageGeneration() bool
}

// Deps are the collaborators of a Service. Trends, Cache, Notifier,
// Storage, Matter and Alternate may be nil.
type Deps struct {
	Designs  DesignRepository
	Trends   TrendRepository
	Cache    TrendCache
	Assets   AssetRepository
	Logs     LogRepository
	Settings SettingRepository
	Ledger   SalesLedger
	Notifier Notifier
	Storage  ObjectStorage

	Scanner  TrendScanner
	Concepts ConceptGenerator
	Images   ImageSynthesizer
	Matter   ai.Matter // remote matting; nil uses the local algorithm

	// Storefront is the configured backend. Alternate receives products
	// when Storefront cannot create them.
	Storefront storefront.Storefront
	Alternate  storefront.Storefront

	HTTPClient *http.Client // downloads hosted image URLs
	Now        func() time.Time
}

// Summary is the human-readable result of a trigger-level call.
type Summary struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// BulkResult counts per-item outcomes of a bulk operation. A failing item
// never aborts the batch.
type BulkResult struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Errors    map[int64]string `json:"errors,omitempty"`
	Messages  map[int64]string `json:"messages,omitempty"`
}

// Service is the pipeline orchestrator.
type Service struct {
	deps   Deps
	log    *activity.Recorder
	tracer trace.Tracer
}

// New creates a Service.
func New(deps Deps) *Service {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Service{deps: deps, tracer: otel.Tracer("gunmerch/pipeline")}
	var writer activity.LogWriter
	if deps.Logs != nil {
		writer = deps.Logs
	}
	s.log = activity.New(writer, activity.WithDebug(func(ctx context.Context) bool {
		return s.settings(ctx).Bool(models.SettingDebugLogging)
	}))
	return s
}

// Activity returns the recorder the service logs through.
func (s *Service) Activity() *activity.Recorder {
	return s.log
}

// start opens a span named pipeline.<op>.
func (s *Service) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "pipeline."+op)
}

// end records err on the span and closes it.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// settings reads the operator settings. Read failures fall back to the
// defaults so a settings outage never blocks a step.
func (s *Service) settings(ctx context.Context) models.Settings {
	if s.deps.Settings == nil {
		return models.Settings{}
	}
	st, err := s.deps.Settings.All(ctx)
	if err != nil {
		slog.Warn("failed to read settings, using defaults", "error", err)
		return models.Settings{}
	}
	return st
}

// design loads a design or returns ErrDesignNotFound.
func (s *Service) design(ctx context.Context, id int64) (*models.Design, error) {
	d, err := s.deps.Designs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("design %d: %w", id, ErrDesignNotFound)
	}
	return d, nil
}

// notify sends a notification, logging failures.
func (s *Service) notify(ctx context.Context, key, message string) {
	if s.deps.Notifier == nil {
		return
	}
	if _, err := s.deps.Notifier.Notify(ctx, models.Notification{Key: key, Message: message}); err != nil {
		slog.Warn("failed to send notification", "key", key, "error", err)
	}
}

// GetDesign returns a design with its metadata.
func (s *Service) GetDesign(ctx context.Context, id int64) (*models.Design, error) {
	return s.design(ctx, id)
}

// ListDesigns lists designs newest first.
func (s *Service) ListDesigns(ctx context.Context, f models.DesignFilter) ([]models.Design, error) {
	return s.deps.Designs.List(ctx, f)
}
