// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"
)

// Severity classifies a notification for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a "there is new information" signal for the operator.
// Key deduplicates: a second notification with the same key is dropped
// until the first one is dismissed.
type Notification struct {
	Key       string    `json:"key"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// SeverityForKey derives a severity from the notification key family.
func SeverityForKey(key string) Severity {
	family, _, _ := strings.Cut(key, ":")
	switch {
	case family == "sale", strings.HasSuffix(family, "published"):
		return SeveritySuccess
	case strings.Contains(family, "error"), strings.HasSuffix(family, "failed"):
		return SeverityError
	default:
		return SeverityInfo
	}
}
