package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jivhala-motors/backoffice/internal/domain"
)

// uniqueConstraints maps constraint names to the API field that violated
// uniqueness. Constraint names follow PostgreSQL's default naming for
// inline UNIQUE column constraints.
var uniqueConstraints = map[string]string{
	"vehicles_unique_id_key":      "uniqueId",
	"vehicles_vehicle_number_key": "vehicleNumber",
	"vehicles_chassis_no_key":     "chassisNo",
	"vehicles_engine_no_key":      "engineNo",
	"users_username_key":          "username",
	"users_email_key":             "email",
}

// isUniqueViolation checks if the error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// conflictFromUnique maps a unique violation to a field-level conflict.
func conflictFromUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if field, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
			return domain.NewConflict(field)
		}
	}
	return err
}

// isNoRows checks if the error indicates an empty result.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
