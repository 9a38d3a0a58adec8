package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// WarehouseStockSortFields contains allowed sort fields for balance rows
var WarehouseStockSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"quantity_available": true,
	"quantity_reserved":  true,
	"average_cost":       true,
	"last_counted_at":    true,
}

// MovementSortFields contains allowed sort fields for ledger entries
var MovementSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"movement_date": true,
	"type":          true,
	"quantity":      true,
}

// AlertSortFields contains allowed sort fields for stock alerts
var AlertSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"type":             true,
	"state":            true,
	"priority":         true,
	"last_observed_at": true,
}
