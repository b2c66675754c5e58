package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jivhala-motors/backoffice/internal/domain"
)

// Error handling utilities for SQLite.

// isUniqueViolation checks if an error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed: UNIQUE")
}

// isNoRows checks if an error indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// conflictFromUnique maps a unique-violation error to the request field
// whose value collided. This is the second enforcement layer behind the
// pre-insert uniqueness checks: a race between two concurrent writes can
// pass both pre-checks and must still surface as a field-named conflict.
func conflictFromUnique(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "vehicles.vehicle_number"):
		return domain.NewConflict("vehicleNumber")
	case strings.Contains(msg, "vehicles.chassis_no"):
		return domain.NewConflict("chassisNo")
	case strings.Contains(msg, "vehicles.engine_no"):
		return domain.NewConflict("engineNo")
	case strings.Contains(msg, "vehicles.unique_id"):
		return domain.NewConflict("uniqueId")
	}
	return domain.NewConflict("vehicle")
}
