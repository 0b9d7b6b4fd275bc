// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// LogLevel classifies activity log entries.
type LogLevel string

const (
	LogDebug   LogLevel = "debug"
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
	LogSystem  LogLevel = "system"
)

// LogEntry is an append-only record of pipeline activity.
type LogEntry struct {
	ID        int64          `json:"id"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	DesignID  *int64         `json:"design_id,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// LogFilter narrows log listings.
type LogFilter struct {
	Level    LogLevel
	DesignID int64
	Since    time.Time
	Limit    int
	Offset   int
}
