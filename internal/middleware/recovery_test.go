// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecoverer(t *testing.T) {
	panics := map[string]any{
		"string": "storefront client is nil",
		"int":    42,
		"error":  errors.New("nil design"),
	}

	for name, value := range panics {
		t.Run(name, func(t *testing.T) {
			buf := captureLog(t)
			handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(value)
			}))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/designs/3/publish", nil))

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("status: got %d, want 500", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), `"error":"internal server error"`) {
				t.Errorf("body: got %q, want a JSON error", rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: got %q", ct)
			}

			rec := lastRecord(t, buf)
			if rec["msg"] != "panic recovered" || rec["path"] != "/api/designs/3/publish" {
				t.Errorf("log record: %v", rec)
			}
			if stack, _ := rec["stack"].(string); !strings.Contains(stack, "goroutine") {
				t.Error("stack trace should be logged")
			}
		})
	}
}

func TestRecoverer_PassThrough(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/api/designs/9")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"Design 9 created."}`))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/designs/8/regenerate", nil))

	if rr.Code != http.StatusCreated {
		t.Errorf("status: got %d, want 201", rr.Code)
	}
	if rr.Header().Get("Location") != "/api/designs/9" {
		t.Errorf("Location: got %q", rr.Header().Get("Location"))
	}
	if !strings.Contains(rr.Body.String(), "Design 9 created.") {
		t.Errorf("body: got %q", rr.Body.String())
	}
}

func TestRecoverer_AbortHandlerRepanics(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stats", nil))
}
