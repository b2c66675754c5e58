package handler

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jivhala-motors/backoffice/internal/auth"
	"github.com/jivhala-motors/backoffice/internal/domain"
	"github.com/jivhala-motors/backoffice/internal/service"
)

// multipartMemory is the in-memory buffer ceiling for form parsing; larger
// file parts spill to disk.
const multipartMemory = 32 << 20

// VehicleHandler serves the vehicle lifecycle endpoints.
type VehicleHandler struct {
	vehicleService *service.VehicleService
	maxFileSize    int64
	logger         zerolog.Logger
}

// NewVehicleHandler creates a new vehicle handler.
func NewVehicleHandler(vehicleService *service.VehicleService, maxFileSize int64, logger zerolog.Logger) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
		maxFileSize:    maxFileSize,
		logger:         logger.With().Str("handler", "vehicle").Logger(),
	}
}

// RegisterRoutes registers routes that require a bearer token.
func (h *VehicleHandler) RegisterRoutes(r chi.Router) {
	r.Post("/vehicles/in", h.handleVehicleIn)
	r.Get("/vehicles", h.handleList)
	r.Get("/vehicles/stats/dashboard", h.handleDashboard)
	r.Get("/vehicles/{id}", h.handleGet)
	r.Put("/vehicles/{id}", h.handleUpdate)
	r.Post("/vehicles/{id}/out", h.handleVehicleOut)
	r.Delete("/vehicles/{id}", h.handleDelete)
	r.Delete("/vehicles/{id}/photos/{photoId}", h.handleDeletePhoto)
}

func (h *VehicleHandler) handleVehicleIn(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	input := service.CreateVehicleInput{
		VehicleNumber: formString(r, "vehicleNumber"),
		VehicleHP:     formString(r, "vehicleHP"),
		ChassisNo:     formString(r, "chassisNo"),
		EngineNo:      formString(r, "engineNo"),
		VehicleName:   formString(r, "vehicleName"),
		OwnerName:     formString(r, "ownerName"),
		OwnerType:     formString(r, "ownerType"),
		MobileNo:      formString(r, "mobileNo"),
		Challan:       formString(r, "challan"),
		Documents: domain.Documents{
			RC:  formBool(r, "RC"),
			PUC: formBool(r, "PUC"),
			NOC: formBool(r, "NOC"),
		},
		CreatedBy: user.ID,
	}

	vErr := &domain.ValidationError{}
	if s := formString(r, "modelYear"); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil {
			vErr.Add("modelYear", "must be a number")
		}
		input.ModelYear = year
	}
	input.VehicleInDate = formDate(r, "vehicleInDate", vErr)
	input.InsuranceDate = formDate(r, "insuranceDate", vErr)
	if vErr.HasErrors() {
		writeError(w, h.logger, vErr)
		return
	}

	uploads, closeFiles, err := openUploads(fileHeaders(r, "photos"), "photos", h.maxFileSize)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer closeFiles()
	input.Photos = uploads

	vehicle, err := h.vehicleService.Create(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info().Int64("vehicle_id", vehicle.ID).Str("unique_id", vehicle.UniqueID).Msg("Vehicle added")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Vehicle added successfully",
		"vehicle": renderVehicle(vehicle),
	})
}

func (h *VehicleHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	input := service.ListVehiclesInput{
		Status: query.Get("status"),
		Search: query.Get("search"),
	}
	input.Page, _ = strconv.Atoi(query.Get("page"))
	input.Limit, _ = strconv.Atoi(query.Get("limit"))

	vErr := &domain.ValidationError{}
	input.FromDate = queryDate(query.Get("fromDate"), "fromDate", vErr)
	input.ToDate = queryDate(query.Get("toDate"), "toDate", vErr)
	if vErr.HasErrors() {
		writeError(w, h.logger, vErr)
		return
	}

	output, err := h.vehicleService.List(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vehicles":   renderVehicles(output.Vehicles),
		"pagination": output.Pagination,
	})
}

func (h *VehicleHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}

	vehicle, err := h.vehicleService.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vehicle": renderVehicle(vehicle),
	})
}

func (h *VehicleHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	input := service.UpdateVehicleInput{
		ID:            id,
		VehicleNumber: formOptString(r, "vehicleNumber"),
		VehicleHP:     formOptString(r, "vehicleHP"),
		ChassisNo:     formOptString(r, "chassisNo"),
		EngineNo:      formOptString(r, "engineNo"),
		VehicleName:   formOptString(r, "vehicleName"),
		OwnerName:     formOptString(r, "ownerName"),
		OwnerType:     formOptString(r, "ownerType"),
		MobileNo:      formOptString(r, "mobileNo"),
		Challan:       formOptString(r, "challan"),
		Status:        formOptString(r, "status"),
		RC:            formOptBool(r, "RC"),
		PUC:           formOptBool(r, "PUC"),
		NOC:           formOptBool(r, "NOC"),
		UpdatedBy:     user.ID,
	}

	vErr := &domain.ValidationError{}
	if s := formOptString(r, "modelYear"); s != nil {
		year, err := strconv.Atoi(*s)
		if err != nil {
			vErr.Add("modelYear", "must be a number")
		}
		input.ModelYear = &year
	}
	input.VehicleInDate = formDate(r, "vehicleInDate", vErr)
	input.InsuranceDate = formDate(r, "insuranceDate", vErr)
	if vErr.HasErrors() {
		writeError(w, h.logger, vErr)
		return
	}

	uploads, closeFiles, err := openUploads(fileHeaders(r, "newPhotos"), "newPhotos", h.maxFileSize)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer closeFiles()
	input.NewPhotos = uploads

	vehicle, err := h.vehicleService.Update(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Vehicle updated successfully",
		"vehicle": renderVehicle(vehicle),
	})
}

func (h *VehicleHandler) handleVehicleOut(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	input := service.SellVehicleInput{
		VehicleID:     id,
		BuyerName:     formString(r, "buyerName"),
		Address:       formString(r, "address"),
		MobileNo:      formString(r, "mobileNo"),
		IDProofType:   formString(r, "idProofType"),
		IDProofNumber: formString(r, "idProofNumber"),
		UpdatedBy:     user.ID,
	}

	vErr := &domain.ValidationError{}
	input.Price = formFloat(r, "price", vErr)
	input.RTOCharges = formFloat(r, "rtoCharges", vErr)
	input.Commission = formFloat(r, "commission", vErr)
	input.Token = formFloat(r, "token", vErr)
	input.ReceivedPrice = formFloat(r, "receivedPrice", vErr)
	input.Balance = formFloat(r, "balance", vErr)
	input.OutDate = formDate(r, "outDate", vErr)
	if vErr.HasErrors() {
		writeError(w, h.logger, vErr)
		return
	}

	uploads, closeFiles, err := openUploads(fileHeaders(r, "buyerPhoto"), "buyerPhoto", h.maxFileSize)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer closeFiles()
	if len(uploads) > 0 {
		input.Photo = &uploads[0]
	}

	vehicle, err := h.vehicleService.Sell(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info().Int64("vehicle_id", vehicle.ID).Msg("Vehicle marked out")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Vehicle marked as out successfully",
		"vehicle": renderVehicle(vehicle),
	})
}

func (h *VehicleHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}

	if err := h.vehicleService.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info().Int64("vehicle_id", id).Msg("Vehicle deleted")
	writeMessage(w, http.StatusOK, "Vehicle deleted successfully")
}

func (h *VehicleHandler) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}
	photoID, err := pathID(r, "photoId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid photo ID")
		return
	}

	if err := h.vehicleService.RemovePhoto(r.Context(), id, photoID, user.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusOK, "Photo deleted successfully")
}

func (h *VehicleHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.vehicleService.Dashboard(r.Context(), time.Now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary": map[string]interface{}{
			"totalVehicles": stats.TotalVehicles,
			"vehiclesIn":    stats.VehiclesIn,
			"vehiclesOut":   stats.VehiclesOut,
		},
		"monthlyData": stats.MonthlyData,
	})
}

// Form parsing helpers. Dates are accepted as RFC 3339 or plain yyyy-mm-dd.

const plainDateFormat = "2006-01-02"

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func formString(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

func formOptString(r *http.Request, name string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := strings.TrimSpace(values[0])
	return &v
}

func formBool(r *http.Request, name string) bool {
	return strings.EqualFold(formString(r, name), "true")
}

func formOptBool(r *http.Request, name string) *bool {
	s := formOptString(r, name)
	if s == nil {
		return nil
	}
	v := strings.EqualFold(*s, "true")
	return &v
}

func formFloat(r *http.Request, name string, vErr *domain.ValidationError) float64 {
	s := formString(r, name)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		vErr.Add(name, "must be a number")
	}
	return v
}

func formDate(r *http.Request, name string, vErr *domain.ValidationError) *time.Time {
	return parseDate(formString(r, name), name, vErr)
}

func queryDate(value, name string, vErr *domain.ValidationError) *time.Time {
	return parseDate(strings.TrimSpace(value), name, vErr)
}

func parseDate(s, name string, vErr *domain.ValidationError) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	if t, err := time.Parse(plainDateFormat, s); err == nil {
		return &t
	}
	vErr.Add(name, "must be a date")
	return nil
}

func fileHeaders(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}
