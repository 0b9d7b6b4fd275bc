// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"net/http"

	"gunmerch/internal/models"
	"gunmerch/internal/pipeline"
)

// GenerateDesigns creates designs from the current trends. Body:
// {"count": n}; 0 or no body uses the designs_per_scan setting.
func (a *API) GenerateDesigns(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int `json:"count"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateCount(req.Count); msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}
	sum, err := a.p.GenerateDesigns(r.Context(), req.Count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSummary(w, sum, nil)
}

// ListDesigns lists designs newest first. Query: status, limit, offset.
func (a *API) ListDesigns(w http.ResponseWriter, r *http.Request) {
	status, msg := validateStatusFilter(r.URL.Query().Get("status"))
	if msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
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

	designs, err := a.p.ListDesigns(r.Context(), models.DesignFilter{
		Status: status,
		Limit:  clampLimit(limit, 50),
		Offset: offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if designs == nil {
		designs = []models.Design{}
	}
	writeData(w, len(designs), designs)
}

// GetDesign returns one design with its metadata.
func (a *API) GetDesign(w http.ResponseWriter, r *http.Request) {
	id, ok := designID(w, r)
	if !ok {
		return
	}
	d, err := a.p.GetDesign(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, 1, d)
}

// SetStatus moves a design through review. Body: {"status": "..."}.
func (a *API) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := designID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := a.p.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Message: fmt.Sprintf("Design status set to %s.", d.Status), Count: 1, Data: d})
}

// Approve approves a design, publishing it when auto-publish is on.
func (a *API) Approve(w http.ResponseWriter, r *http.Request) {
	a.summaryAction(w, r, a.p.Approve)
}

// Reject rejects a design.
func (a *API) Reject(w http.ResponseWriter, r *http.Request) {
	a.summaryAction(w, r, a.p.Reject)
}

func (a *API) summaryAction(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (pipeline.Summary, error)) {
	id, ok := designID(w, r)
	if !ok {
		return
	}
	sum, err := op(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSummary(w, sum, nil)
}

// BulkApprove approves every listed design. Body: {"ids": [..]}.
func (a *API) BulkApprove(w http.ResponseWriter, r *http.Request) {
	a.bulk(w, r, "Approved", a.p.BulkApprove)
}

// BulkReject rejects every listed design. Body: {"ids": [..]}.
func (a *API) BulkReject(w http.ResponseWriter, r *http.Request) {
	a.bulk(w, r, "Rejected", a.p.BulkReject)
}

func (a *API) bulk(w http.ResponseWriter, r *http.Request, verb string, op func(context.Context, []int64) pipeline.BulkResult) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateIDs(req.IDs); msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}
	res := op(r.Context(), req.IDs)
	msg := fmt.Sprintf("%s %d designs.", verb, res.Succeeded)
	if res.Failed > 0 {
		msg += fmt.Sprintf(" %d failed.", res.Failed)
	}
	writeJSON(w, http.StatusOK, response{Message: msg, Count: res.Succeeded, Data: res})
}

// Regenerate creates a new pending design from an existing design's topic.
func (a *API) Regenerate(w http.ResponseWriter, r *http.Request) {
	id, ok := designID(w, r)
	if !ok {
		return
	}
	d, err := a.p.Regenerate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, response{Message: fmt.Sprintf("Design %d created.", d.ID), Count: 1, Data: d})
}

// UpdateMeta sets per-design knobs. Body: {"key": "value"}; an empty value
// removes the key.
func (a *API) UpdateMeta(w http.ResponseWriter, r *http.Request) {
	id, ok := designID(w, r)
	if !ok {
		return
	}
	var values map[string]string
	if !decodeJSON(w, r, &values) {
		return
	}
	if msg := validateValues(values, maxMetaValueLen); msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}
	d, err := a.p.UpdateMeta(r.Context(), id, values)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Message: "Design updated.", Count: 1, Data: d})
}

// GenerateImage synthesises artwork for a design.
func (a *API) GenerateImage(w http.ResponseWriter, r *http.Request) {
	a.assetAction(w, r, "Image generated.", a.p.GenerateImage)
}

// RemoveBackground mattes the design's image.
func (a *API) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	a.assetAction(w, r, "Background removed.", a.p.RemoveBackground)
}

// Upscale enlarges the design's image.
func (a *API) Upscale(w http.ResponseWriter, r *http.Request) {
	a.assetAction(w, r, "Image upscaled.", a.p.Upscale)
}

func (a *API) assetAction(w http.ResponseWriter, r *http.Request, done string, op func(context.Context, int64) (*models.Asset, error)) {
	id, ok := designID(w, r)
	if !ok {
		return
	}
	asset, err := op(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Message: done, Count: 1, Data: asset})
}

// Publish creates the storefront product of an approved design.
func (a *API) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := designID(w, r)
	if !ok {
		return
	}
	res, err := a.p.Publish(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg := fmt.Sprintf("Published to %s as product %s.", res.Backend, res.RemoteProductID)
	if res.Adopted {
		msg = fmt.Sprintf("Linked existing %s product %s.", res.Backend, res.RemoteProductID)
	}
	writeJSON(w, http.StatusOK, response{Message: msg, Count: 1, Data: res})
}
