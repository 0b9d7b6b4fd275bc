// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DesignType distinguishes slogan-only designs from designs with artwork.
type DesignType string

const (
	DesignTypeText  DesignType = "text"
	DesignTypeImage DesignType = "image"
)

// DesignStatus is the review/publishing state of a design.
type DesignStatus string

const (
	DesignStatusPending  DesignStatus = "pending"
	DesignStatusApproved DesignStatus = "approved"
	DesignStatusRejected DesignStatus = "rejected"
	DesignStatusLive     DesignStatus = "live"
	DesignStatusSold     DesignStatus = "sold"
)

// DesignStatuses lists every valid status in lifecycle order.
var DesignStatuses = []DesignStatus{
	DesignStatusPending,
	DesignStatusApproved,
	DesignStatusRejected,
	DesignStatusLive,
	DesignStatusSold,
}

// ErrInvalidStatus is returned for any status value outside DesignStatuses.
var ErrInvalidStatus = errors.New("invalid design status")

// ParseStatus validates a raw status value. It does not trim or fold case.
func ParseStatus(raw string) (DesignStatus, error) {
	for _, s := range DesignStatuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// Well-known keys in the per-design metadata map.
const (
	MetaImagePrompt     = "image_prompt"
	MetaHighlightWord   = "highlight_word"
	MetaHighlightColor  = "highlight_color"
	MetaTextOnly        = "text_only"
	MetaRegeneratedFrom = "regenerated_from"
	MetaStatusNote      = "status_note"
	MetaTrendCategory   = "trend_category"
	MetaConceptSource   = "concept_source"
)

// Design is one t-shirt concept moving through review and publishing.
type Design struct {
	ID              int64             `json:"id"`
	Title           string            `json:"title"`
	Concept         string            `json:"concept"`
	DesignText      string            `json:"design_text"`
	DesignType      DesignType        `json:"design_type"`
	TrendTopic      string            `json:"trend_topic"`
	TrendSourceURL  string            `json:"trend_source_url,omitempty"`
	EstimatedMargin float64           `json:"estimated_margin"`
	Status          DesignStatus      `json:"status"`
	ImageAssetID    *int64            `json:"image_asset_id,omitempty"`
	RemoteBackend   *string           `json:"remote_backend,omitempty"`
	RemoteProductID *string           `json:"remote_product_id,omitempty"`
	SalesCount      int               `json:"sales_count"`
	Revenue         float64           `json:"revenue"`
	Meta            map[string]string `json:"meta,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// HasImage reports whether an image asset is attached.
func (d *Design) HasImage() bool {
	return d.ImageAssetID != nil
}

// IsTextOnly reports whether the design is explicitly flagged to be
// printed from a locally rendered slogan instead of artwork.
func (d *Design) IsTextOnly() bool {
	v, _ := strconv.ParseBool(d.MetaValue(MetaTextOnly))
	return v
}

// IsPublished reports whether a remote product is linked.
func (d *Design) IsPublished() bool {
	return d.RemoteProductID != nil && *d.RemoteProductID != ""
}

// MetaValue returns a metadata value, or "" when absent.
func (d *Design) MetaValue(key string) string {
	if d.Meta == nil {
		return ""
	}
	return d.Meta[key]
}

// DisplayText returns the slogan, falling back to the title.
func (d *Design) DisplayText() string {
	if strings.TrimSpace(d.DesignText) != "" {
		return d.DesignText
	}
	return d.Title
}

// DesignDraft is the output of the concept generator before persistence.
type DesignDraft struct {
	Title           string
	Concept         string
	DesignText      string
	DesignType      DesignType
	TrendTopic      string
	TrendSourceURL  string
	EstimatedMargin float64
	Meta            map[string]string
}

// Design converts the draft into a pending design.
func (dd DesignDraft) Design() *Design {
	meta := make(map[string]string, len(dd.Meta))
	for k, v := range dd.Meta {
		meta[k] = v
	}
	typ := dd.DesignType
	if typ == "" {
		typ = DesignTypeText
	}
	return &Design{
		Title:           dd.Title,
		Concept:         dd.Concept,
		DesignText:      dd.DesignText,
		DesignType:      typ,
		TrendTopic:      dd.TrendTopic,
		TrendSourceURL:  dd.TrendSourceURL,
		EstimatedMargin: dd.EstimatedMargin,
		Status:          DesignStatusPending,
		Meta:            meta,
	}
}

// ExternalID returns the storefront external ID of a design's product.
func ExternalID(designID int64) string {
	return strconv.FormatInt(designID, 10)
}

// VariantExternalID returns the external ID of the n-th (1-based) variant.
func VariantExternalID(designID int64, n int) string {
	return fmt.Sprintf("%d-v%d", designID, n)
}

// ParseExternalID extracts the design ID from a product or variant
// external ID. The second return value is false when s is not one of ours.
func ParseExternalID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "-v"); i > 0 {
		if _, err := strconv.Atoi(s[i+2:]); err != nil {
			return 0, false
		}
		s = s[:i]
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// DesignFilter narrows design listings.
type DesignFilter struct {
	Status DesignStatus
	Limit  int
	Offset int
}

// Stats summarises the design pipeline.
type Stats struct {
	Generated    int     `json:"generated"`
	Pending      int     `json:"pending"`
	Approved     int     `json:"approved"`
	Rejected     int     `json:"rejected"`
	Live         int     `json:"live"`
	Sold         int     `json:"sold"`
	TotalSales   int     `json:"total_sales"`
	TotalRevenue float64 `json:"total_revenue"`
}
