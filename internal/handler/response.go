// Package handler provides the HTTP surface of the back-office API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jivhala-motors/backoffice/internal/domain"
	"github.com/jivhala-motors/backoffice/internal/service"
	"github.com/jivhala-motors/backoffice/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps service and domain errors onto HTTP responses. Unexpected
// errors are logged and reported without detail.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Validation failed",
			"errors":  vErr.Fields,
		})
		return
	}

	var cErr *domain.ConflictError
	if errors.As(err, &cErr) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": conflictMessage(cErr.Field),
			"field":   cErr.Field,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrVehicleNotFound):
		writeMessage(w, http.StatusNotFound, "Vehicle not found")
	case errors.Is(err, domain.ErrPhotoNotFound):
		writeMessage(w, http.StatusNotFound, "Photo not found")
	case errors.Is(err, domain.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrVehicleAlreadyOut):
		writeMessage(w, http.StatusBadRequest, "Vehicle is already marked as out")
	case errors.Is(err, domain.ErrVehicleSoldLocked):
		writeMessage(w, http.StatusBadRequest, "Cannot edit vehicle that is marked as out")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrUserInactive):
		writeMessage(w, http.StatusUnauthorized, "Account is inactive")
	case errors.Is(err, domain.ErrUserAlreadyExists):
		writeMessage(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidEmail):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error().Err(err).Msg("Request failed")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func conflictMessage(field string) string {
	switch field {
	case "vehicleNumber":
		return "Vehicle with this vehicle number already exists"
	case "chassisNo":
		return "Vehicle with this chassis number already exists"
	case "engineNo":
		return "Vehicle with this engine number already exists"
	case "username":
		return "Username already exists"
	case "email":
		return "Email already exists"
	default:
		return "Record already exists"
	}
}

// renderVehicle fills web-relative photo URLs before the entity is encoded.
func renderVehicle(v *domain.Vehicle) *domain.Vehicle {
	for i := range v.Photos {
		v.Photos[i].URL = storage.WebPath(v.Photos[i].Path)
	}
	if v.Buyer != nil && v.Buyer.Photo != nil {
		v.Buyer.Photo.URL = storage.WebPath(v.Buyer.Photo.Path)
	}
	return v
}

func renderVehicles(vehicles []*domain.Vehicle) []*domain.Vehicle {
	for _, v := range vehicles {
		renderVehicle(v)
	}
	return vehicles
}
