// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package activity records the operator-facing activity log. Every event is
// written to slog and, best-effort, to the logs table. Outbound API calls
// are recorded with credentials redacted.
package activity

import (
	"context"
	"log/slog"
	"strings"

	"gunmerch/internal/models"
)

// Redacted replaces the value of any credential-like key.
const Redacted = "[REDACTED]"

// sensitiveKeys are matched case-insensitively as substrings of map keys.
var sensitiveKeys = []string{"authorization", "api_key", "api-key", "token", "secret", "password"}

// LogWriter persists activity entries.
type LogWriter interface {
	Insert(ctx context.Context, e models.LogEntry) error
}

// Recorder writes activity entries.
type Recorder struct {
	logs  LogWriter
	debug func(ctx context.Context) bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithDebug sets the switch that decides, per call, whether debug entries
// reach the logs table. Without it debug entries only go to slog.
func WithDebug(enabled func(ctx context.Context) bool) Option {
	return func(r *Recorder) { r.debug = enabled }
}

// New creates a Recorder. A nil writer logs to slog only.
func New(logs LogWriter, opts ...Option) *Recorder {
	r := &Recorder{logs: logs}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Debug records a debug entry.
func (r *Recorder) Debug(ctx context.Context, designID int64, msg string, meta map[string]any) {
	r.Log(ctx, models.LogDebug, designID, msg, meta)
}

// Info records an info entry.
func (r *Recorder) Info(ctx context.Context, designID int64, msg string, meta map[string]any) {
	r.Log(ctx, models.LogInfo, designID, msg, meta)
}

// Warning records a warning entry.
func (r *Recorder) Warning(ctx context.Context, designID int64, msg string, meta map[string]any) {
	r.Log(ctx, models.LogWarning, designID, msg, meta)
}

// Error records an error entry.
func (r *Recorder) Error(ctx context.Context, designID int64, msg string, meta map[string]any) {
	r.Log(ctx, models.LogError, designID, msg, meta)
}

// System records a system entry, used for scheduled jobs and maintenance.
func (r *Recorder) System(ctx context.Context, msg string, meta map[string]any) {
	r.Log(ctx, models.LogSystem, 0, msg, meta)
}

// Log records an entry at the given level. designID 0 means no design.
func (r *Recorder) Log(ctx context.Context, level models.LogLevel, designID int64, msg string, meta map[string]any) {
	meta = redactMap(meta)

	attrs := make([]any, 0, 2+2*len(meta))
	if designID > 0 {
		attrs = append(attrs, "design_id", designID)
	}
	for k, v := range meta {
		attrs = append(attrs, k, v)
	}
	slog.Log(ctx, slogLevel(level), msg, attrs...)

	if r == nil || r.logs == nil {
		return
	}
	if level == models.LogDebug && (r.debug == nil || !r.debug(ctx)) {
		return
	}

	entry := models.LogEntry{Level: level, Message: msg, Meta: meta}
	if designID > 0 {
		entry.DesignID = &designID
	}
	// Best-effort: a failing log table never fails the pipeline step.
	if err := r.logs.Insert(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("failed to write activity log", "level", level, "message", msg, "error", err)
	}
}

// APICall records one outbound API request. Failures are logged as errors,
// successes as debug entries.
func (r *Recorder) APICall(ctx context.Context, api, endpoint string, request, response any, success bool) {
	meta := map[string]any{
		"api":      api,
		"endpoint": endpoint,
		"request":  request,
		"response": response,
		"success":  success,
	}
	if success {
		r.Log(ctx, models.LogDebug, 0, "API call to "+api, meta)
		return
	}
	r.Log(ctx, models.LogError, 0, "API call to "+api+" failed", meta)
}

// Redact returns a copy of v with the values of credential-like map keys
// replaced by Redacted. Maps and slices are walked recursively; other
// values are returned as-is.
func Redact(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return redactMap(val)
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			if isSensitive(k) {
				s = Redacted
			}
			out[k] = s
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Redact(item)
		}
		return out
	default:
		return v
	}
}

func redactMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if isSensitive(k) {
			out[k] = Redacted
			continue
		}
		out[k] = Redact(v)
	}
	return out
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func slogLevel(l models.LogLevel) slog.Level {
	switch l {
	case models.LogDebug:
		return slog.LevelDebug
	case models.LogWarning:
		return slog.LevelWarn
	case models.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
