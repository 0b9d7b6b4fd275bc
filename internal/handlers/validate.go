package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gunmerch/internal/models"
)

// Validation limits for operator input.
const (
	maxGenerateCount = 50
	maxBulkIDs       = 200
	maxListLimit     = 200
	maxMetaValueLen  = 2_000
	maxSettingLen    = 10_000
)

// validateCount checks the count of a generate request. 0 means "use the
// designs_per_scan setting".
func validateCount(n int) string {
	if n < 0 || n > maxGenerateCount {
		return fmt.Sprintf("Count must be between 0 and %d.", maxGenerateCount)
	}
	return ""
}

// validateIDs checks the ID list of a bulk request.
func validateIDs(ids []int64) string {
	if len(ids) == 0 {
		return "At least one design id is required."
	}
	if len(ids) > maxBulkIDs {
		return fmt.Sprintf("Too many design ids (max %d).", maxBulkIDs)
	}
	for _, id := range ids {
		if id <= 0 {
			return "Design ids must be positive."
		}
	}
	return ""
}

// validateValues checks a key/value update. Keys are checked by the
// pipeline; only sizes are checked here.
func validateValues(values map[string]string, maxLen int) string {
	if len(values) == 0 {
		return "Nothing to update."
	}
	for k, v := range values {
		if strings.TrimSpace(k) == "" {
			return "Keys must not be empty."
		}
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("Value of %s is too long (max %d characters).", k, maxLen)
		}
	}
	return ""
}

// validateStatusFilter checks an optional status filter.
func validateStatusFilter(raw string) (models.DesignStatus, string) {
	if raw == "" {
		return "", ""
	}
	s, err := models.ParseStatus(raw)
	if err != nil {
		return "", fmt.Sprintf("Unknown status %q.", raw)
	}
	return s, ""
}

// clampLimit applies the default and maximum page size.
func clampLimit(n, def int) int {
	if n <= 0 {
		return def
	}
	return min(n, maxListLimit)
}
