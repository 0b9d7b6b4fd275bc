// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"gunmerch/internal/models"
)

// --- Trends ---

// ScanTrends runs a trend scan.
func (a *API) ScanTrends(w http.ResponseWriter, r *http.Request) {
	sum, err := a.p.ScanTrends(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSummary(w, sum, nil)
}

// ListTrends lists stored trends. Query: source, hours, order
// (engagement_score|discovered_at|id), asc, limit.
func (a *API) ListTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hours, ok := queryInt(w, r, "hours")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	order := q.Get("order")
	switch order {
	case "", models.TrendOrderScore, models.TrendOrderDiscoveredAt, models.TrendOrderID:
	default:
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Unknown order %q.", order))
		return
	}

	trends, err := a.p.ListTrends(r.Context(), models.TrendFilter{
		Source:  q.Get("source"),
		Hours:   hours,
		OrderBy: order,
		Asc:     q.Get("asc") == "true",
		Limit:   clampLimit(limit, 20),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if trends == nil {
		trends = []models.Trend{}
	}
	writeData(w, len(trends), trends)
}

// --- Sales and storefront ---

// SyncSales reconciles fulfilled orders.
func (a *API) SyncSales(w http.ResponseWriter, r *http.Request) {
	rep, err := a.p.SyncSales(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSummary(w, rep.Summary, rep)
}

// TestConnection probes every configured storefront.
func (a *API) TestConnection(w http.ResponseWriter, r *http.Request) {
	statuses, err := a.p.TestConnection(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok := 0
	for _, s := range statuses {
		if s.Error == "" {
			ok++
		}
	}
	writeJSON(w, http.StatusOK, response{
		Message: fmt.Sprintf("%d of %d storefronts reachable.", ok, len(statuses)),
		Count:   ok,
		Data:    statuses,
	})
}

// --- Notifications ---

// Notifications lists pending notifications.
func (a *API) Notifications(w http.ResponseWriter, r *http.Request) {
	notes, err := a.p.Notifications(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if notes == nil {
		notes = []models.Notification{}
	}
	writeData(w, len(notes), notes)
}

// DismissNotification acknowledges the notification named by {key}.
func (a *API) DismissNotification(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" {
		writeMessage(w, http.StatusBadRequest, "notification key is required")
		return
	}
	if err := a.p.DismissNotification(r.Context(), key); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Message: "Notification dismissed.", Count: 1})
}

// --- Logs, stats, maintenance ---

// Logs returns a page of activity log entries. Query: level, design_id,
// limit, offset. Count is the total number of matching entries.
func (a *API) Logs(w http.ResponseWriter, r *http.Request) {
	level := models.LogLevel(r.URL.Query().Get("level"))
	switch level {
	case "", models.LogDebug, models.LogInfo, models.LogWarning, models.LogError, models.LogSystem:
	default:
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Unknown level %q.", level))
		return
	}
	forDesign, ok := queryInt(w, r, "design_id")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	entries, total, err := a.p.Logs(r.Context(), models.LogFilter{
		Level:    level,
		DesignID: int64(forDesign),
		Limit:    clampLimit(limit, 100),
		Offset:   offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.LogEntry{}
	}
	writeData(w, total, entries)
}

// ClearLogs deletes log entries. Query: older_than_days (0 deletes all).
func (a *API) ClearLogs(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(w, r, "older_than_days")
	if !ok {
		return
	}
	sum, err := a.p.ClearLogs(r.Context(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSummary(w, sum, nil)
}

// Maintenance prunes expired trends and log entries.
func (a *API) Maintenance(w http.ResponseWriter, r *http.Request) {
	sum, err := a.p.Maintenance(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSummary(w, sum, nil)
}

// Stats summarises the pipeline.
func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := a.p.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, st.Generated, st)
}

// RunJob runs the scheduled job named by {name} now, for external cron
// callers. Jobs: scan, generate, sales, maintenance.
func (a *API) RunJob(w http.ResponseWriter, r *http.Request) {
	if a.jobs == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Scheduler is disabled.")
		return
	}
	sum, err := a.jobs.Run(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSummary(w, sum, nil)
}

// --- Settings ---

// GetSettings returns every operator setting.
func (a *API) GetSettings(w http.ResponseWriter, r *http.Request) {
	st := a.p.GetSettings(r.Context())
	writeData(w, len(st), st)
}

// UpdateSettings stores settings. Body: {"key": "value"}.
func (a *API) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if !decodeJSON(w, r, &values) {
		return
	}
	if msg := validateValues(values, maxSettingLen); msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}
	st, err := a.p.UpdateSettings(r.Context(), values)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Message: "Settings saved.", Count: len(values), Data: st})
}

// --- LLM providers ---

type providerStatus struct {
	Active    string   `json:"active"`
	Available []string `json:"available"`
}

// AIProviders reports the active concept-generation provider.
func (a *API) AIProviders(w http.ResponseWriter, r *http.Request) {
	if a.providers == nil {
		writeData(w, 0, providerStatus{Available: []string{}})
		return
	}
	avail := a.providers.Available()
	writeData(w, len(avail), providerStatus{Active: a.providers.ActiveName(), Available: avail})
}

// SetAIProvider switches the active provider at runtime. Body:
// {"provider": "claude"}.
func (a *API) SetAIProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string `json:"provider"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Provider)
	if name == "" {
		writeMessage(w, http.StatusBadRequest, "No provider specified.")
		return
	}
	if a.providers == nil {
		writeMessage(w, http.StatusBadRequest, "No AI provider is configured.")
		return
	}
	if err := a.providers.SetActive(name); err != nil {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Cannot switch to %q: provider not available (no API key configured).", name))
		return
	}
	writeJSON(w, http.StatusOK, response{
		Message: fmt.Sprintf("Active provider set to %s.", name),
		Count:   1,
		Data:    providerStatus{Active: a.providers.ActiveName(), Available: a.providers.Available()},
	})
}
