// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON handlers of the operator API. Every
// handler delegates to the pipeline and translates its errors to HTTP
// status codes; no other package decides what the operator sees.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gunmerch/internal/ai"
	"gunmerch/internal/imaging"
	"gunmerch/internal/models"
	"gunmerch/internal/pipeline"
	"gunmerch/internal/scheduler"
	"gunmerch/internal/storefront"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Pipeline is the orchestrator surface the API exposes.
type Pipeline interface {
	ScanTrends(ctx context.Context) (pipeline.Summary, error)
	ListTrends(ctx context.Context, f models.TrendFilter) ([]models.Trend, error)
	GenerateDesigns(ctx context.Context, count int) (pipeline.Summary, error)
	ListDesigns(ctx context.Context, f models.DesignFilter) ([]models.Design, error)
	GetDesign(ctx context.Context, id int64) (*models.Design, error)
	SetStatus(ctx context.Context, id int64, status string) (*models.Design, error)
	Approve(ctx context.Context, id int64) (pipeline.Summary, error)
	Reject(ctx context.Context, id int64) (pipeline.Summary, error)
	BulkApprove(ctx context.Context, ids []int64) pipeline.BulkResult
	BulkReject(ctx context.Context, ids []int64) pipeline.BulkResult
	Regenerate(ctx context.Context, id int64) (*models.Design, error)
	UpdateMeta(ctx context.Context, id int64, values map[string]string) (*models.Design, error)
	GenerateImage(ctx context.Context, id int64) (*models.Asset, error)
	RemoveBackground(ctx context.Context, id int64) (*models.Asset, error)
	Upscale(ctx context.Context, id int64) (*models.Asset, error)
	Publish(ctx context.Context, id int64) (*pipeline.PublishResult, error)
	SyncSales(ctx context.Context) (*pipeline.SalesReport, error)
	TestConnection(ctx context.Context) ([]pipeline.ConnectionStatus, error)
	Maintenance(ctx context.Context) (pipeline.Summary, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Logs(ctx context.Context, f models.LogFilter) ([]models.LogEntry, int, error)
	ClearLogs(ctx context.Context, olderThanDays int) (pipeline.Summary, error)
	Notifications(ctx context.Context) ([]models.Notification, error)
	DismissNotification(ctx context.Context, key string) error
	GetSettings(ctx context.Context) models.Settings
	UpdateSettings(ctx context.Context, values map[string]string) (models.Settings, error)
}

// Providers is the LLM registry as seen by the API.
type Providers interface {
	ActiveName() string
	Available() []string
	SetActive(name string) error
}

// Jobs runs a scheduled job on demand.
type Jobs interface {
	Run(ctx context.Context, name string) (pipeline.Summary, error)
}

// API groups the operator API handlers and their dependencies.
type API struct {
	p         Pipeline
	providers Providers
	jobs      Jobs
}

// NewAPI creates the handler group. providers may be nil when no LLM is
// configured, jobs when the scheduler is disabled.
func NewAPI(p Pipeline, providers Providers, jobs Jobs) *API {
	return &API{p: p, providers: providers, jobs: jobs}
}

// response is the envelope of every successful reply.
type response struct {
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
	Data    any    `json:"data,omitempty"`
}

// writeJSON writes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("write json response failed", "error", err)
	}
}

func writeSummary(w http.ResponseWriter, sum pipeline.Summary, data any) {
	writeJSON(w, http.StatusOK, response{Message: sum.Message, Count: sum.Count, Data: data})
}

func writeData(w http.ResponseWriter, count int, data any) {
	writeJSON(w, http.StatusOK, response{Count: count, Data: data})
}

// writeMessage writes an error body with the given status.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps a pipeline error to its status code: 400 for invalid
// input or missing configuration, 404 for unknown designs and jobs, 409 for
// disallowed transitions and 502 for failing third-party services.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("api request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeMessage(w, status, err.Error())
}

func errorStatus(err error) int {
	var (
		sfErr *storefront.APIError
		aiErr *ai.APIError
	)
	switch {
	case errors.Is(err, pipeline.ErrDesignNotFound), errors.Is(err, scheduler.ErrUnknownJob):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, pipeline.ErrInvalidSetting),
		errors.Is(err, pipeline.ErrNotConfigured),
		errors.Is(err, pipeline.ErrNeedsImage),
		errors.Is(err, pipeline.ErrNoImage),
		errors.Is(err, ai.ErrNoImageProvider),
		errors.Is(err, imaging.ErrNothingToCrop),
		errors.Is(err, imaging.ErrTooLarge),
		errors.Is(err, imaging.ErrEmptyText),
		errors.Is(err, storefront.ErrProductCreationUnsupported),
		errors.Is(err, storefront.ErrNoTemplate):
		return http.StatusBadRequest
	case errors.As(err, &sfErr), errors.As(err, &aiErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// designID parses the {id} URL parameter.
func designID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "invalid design id")
		return 0, false
	}
	return id, true
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeMessage(w, http.StatusBadRequest, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
