package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jivhala-motors/backoffice/internal/domain"
	"github.com/jivhala-motors/backoffice/internal/service"
)

// ExportHandler serves PDF and CSV report downloads.
type ExportHandler struct {
	exportService *service.ExportService
	logger        zerolog.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(exportService *service.ExportService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger.With().Str("handler", "export").Logger(),
	}
}

// RegisterRoutes registers routes that require a bearer token.
func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/export/vehicles/pdf", h.handleVehiclesPDF)
	r.Get("/export/vehicles/csv", h.handleVehiclesCSV)
}

func (h *ExportHandler) exportFilter(r *http.Request) (service.ExportFilter, error) {
	query := r.URL.Query()
	filter := service.ExportFilter{Status: query.Get("status")}

	vErr := &domain.ValidationError{}
	filter.FromDate = queryDate(query.Get("fromDate"), "fromDate", vErr)
	filter.ToDate = queryDate(query.Get("toDate"), "toDate", vErr)
	if vErr.HasErrors() {
		return filter, vErr
	}
	return filter, nil
}

func (h *ExportHandler) handleVehiclesPDF(w http.ResponseWriter, r *http.Request) {
	filter, err := h.exportFilter(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	data, err := h.exportService.VehiclesPDF(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	serveAttachment(w, data, "application/pdf",
		fmt.Sprintf("vehicles-export-%d.pdf", time.Now().UnixMilli()))
}

func (h *ExportHandler) handleVehiclesCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := h.exportFilter(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	data, err := h.exportService.VehiclesCSV(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	serveAttachment(w, data, "text/csv",
		fmt.Sprintf("vehicles-export-%d.csv", time.Now().UnixMilli()))
}

// HandleVehiclePDF serves the single-vehicle detail report. The route is
// public so the report can be shared as a plain link.
func (h *ExportHandler) HandleVehiclePDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}

	data, vehicleNumber, err := h.exportService.VehiclePDF(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	serveAttachment(w, data, "application/pdf", vehicleNumber+"-details.pdf")
}

func serveAttachment(w http.ResponseWriter, data []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	_, _ = w.Write(data)
}
