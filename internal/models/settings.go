// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strconv"
	"time"
)

// Setting represents a single configuration key-value pair.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Operator-adjustable setting keys.
const (
	SettingDesignsPerScan      = "designs_per_scan"
	SettingAutoApprove         = "auto_approve"
	SettingAutoPublish         = "auto_publish"
	SettingMinEngagement       = "min_engagement"
	SettingDefaultMargin       = "default_margin"
	SettingImagePromptTemplate = "image_prompt_template"
	SettingDebugLogging        = "debug_logging"
	SettingTrendRetentionDays  = "trend_retention_days"
	SettingLogRetentionDays    = "log_retention_days"
	SettingSalesWindowDays     = "sales_window_days"
	SettingBaseCost            = "base_cost"
)

// DefaultImagePromptTemplate is used when no template is configured.
const DefaultImagePromptTemplate = "Create a bold, print-ready t-shirt graphic featuring the slogan \"{text}\". " +
	"Concept: {concept}. {custom_prompt} {highlight} " +
	"Flat vector illustration, centered composition, high contrast, " +
	"solid plain background, no mockup, no shirt, no extra text."

// DefaultSettings holds the initial value of every operator setting.
var DefaultSettings = map[string]string{
	SettingDesignsPerScan:      "10",
	SettingAutoApprove:         "false",
	SettingAutoPublish:         "false",
	SettingMinEngagement:       "50",
	SettingDefaultMargin:       "40",
	SettingImagePromptTemplate: DefaultImagePromptTemplate,
	SettingDebugLogging:        "false",
	SettingTrendRetentionDays:  "7",
	SettingLogRetentionDays:    "30",
	SettingSalesWindowDays:     "7",
	SettingBaseCost:            "15.00",
}

// SettingKind names the getter a setting is read with.
type SettingKind int

const (
	KindText SettingKind = iota
	KindBool
	KindInt
	KindFloat
)

// SettingRule constrains the values accepted for a setting. Min applies to
// numeric kinds.
type SettingRule struct {
	Kind SettingKind
	Min  float64
}

// SettingRules lists how every operator setting is read and validated.
// Retention windows start at one day so maintenance never prunes everything.
var SettingRules = map[string]SettingRule{
	SettingDesignsPerScan:      {Kind: KindInt, Min: 1},
	SettingAutoApprove:         {Kind: KindBool},
	SettingAutoPublish:         {Kind: KindBool},
	SettingMinEngagement:       {Kind: KindInt, Min: 0},
	SettingDefaultMargin:       {Kind: KindFloat, Min: 0},
	SettingImagePromptTemplate: {Kind: KindText},
	SettingDebugLogging:        {Kind: KindBool},
	SettingTrendRetentionDays:  {Kind: KindInt, Min: 1},
	SettingLogRetentionDays:    {Kind: KindInt, Min: 1},
	SettingSalesWindowDays:     {Kind: KindInt, Min: 1},
	SettingBaseCost:            {Kind: KindFloat, Min: 0},
}

// Settings is a convenience map for accessing settings by key.
type Settings map[string]string

// Get returns the value for a key, or the fallback if the key doesn't exist.
func (s Settings) Get(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Int returns an integer setting, or its default when unset or malformed.
func (s Settings) Int(key string) int {
	if v, err := strconv.Atoi(s.Get(key, "")); err == nil {
		return v
	}
	v, _ := strconv.Atoi(DefaultSettings[key])
	return v
}

// Float returns a float setting, or its default when unset or malformed.
func (s Settings) Float(key string) float64 {
	if v, err := strconv.ParseFloat(s.Get(key, ""), 64); err == nil {
		return v
	}
	v, _ := strconv.ParseFloat(DefaultSettings[key], 64)
	return v
}

// Bool returns a boolean setting, or its default when unset or malformed.
func (s Settings) Bool(key string) bool {
	if v, err := strconv.ParseBool(s.Get(key, "")); err == nil {
		return v
	}
	v, _ := strconv.ParseBool(DefaultSettings[key])
	return v
}

// String returns a string setting, or its default when unset.
func (s Settings) String(key string) string {
	return s.Get(key, DefaultSettings[key])
}
