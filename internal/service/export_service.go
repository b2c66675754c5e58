package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"github.com/jivhala-motors/backoffice/internal/domain"
	"github.com/jivhala-motors/backoffice/internal/repository"
)

// exportDateFormat is the date rendering used in reports (DD/MM/YYYY).
const exportDateFormat = "02/01/2006"

// ExportService renders vehicle data as PDF and CSV reports.
type ExportService struct {
	vehicleRepo repository.VehicleRepository
	logger      zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(vehicleRepo repository.VehicleRepository, logger zerolog.Logger) *ExportService {
	return &ExportService{
		vehicleRepo: vehicleRepo,
		logger:      logger.With().Str("service", "export").Logger(),
	}
}

// ExportFilter restricts which vehicles appear in a report.
type ExportFilter struct {
	Status   string
	FromDate *time.Time
	ToDate   *time.Time
}

// listForExport loads all matching vehicles, newest intake first.
func (s *ExportService) listForExport(ctx context.Context, filter ExportFilter) ([]*domain.Vehicle, error) {
	if filter.Status != "" && !domain.VehicleStatus(filter.Status).IsValid() {
		v := &domain.ValidationError{}
		return nil, v.Add("status", "status must be in or out")
	}

	vehicles, err := s.vehicleRepo.List(ctx, repository.VehicleFilter{
		Status:   domain.VehicleStatus(filter.Status),
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}, repository.ListOptions{SortBy: repository.SortByInDate})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list vehicles for export")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return vehicles, nil
}

// VehiclesCSV renders the filtered vehicle list as CSV.
func (s *ExportService) VehiclesCSV(ctx context.Context, filter ExportFilter) ([]byte, error) {
	vehicles, err := s.listForExport(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"Unique ID", "Vehicle Number", "Vehicle Name", "Owner Name",
		"Owner Type", "Mobile No", "In Date", "Out Date", "Status",
		"Buyer Name", "Buyer Mobile", "Price", "RTO Charges",
		"Commission", "Received Price", "Balance",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	for _, v := range vehicles {
		row := []string{
			v.UniqueID,
			v.VehicleNumber,
			v.VehicleName,
			v.OwnerName,
			string(v.OwnerType),
			v.MobileNo,
			v.VehicleInDate.Format(exportDateFormat),
			formatOptionalDate(v.OutDate),
			string(v.Status),
			"", "", "", "", "", "", "",
		}
		if b := v.Buyer; b != nil {
			row[9] = b.Name
			row[10] = b.MobileNo
			row[11] = formatAmount(b.Price)
			row[12] = formatAmount(b.RTOCharges)
			row[13] = formatAmount(b.Commission)
			row[14] = formatAmount(b.ReceivedPrice)
			row[15] = formatAmount(b.Balance)
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int("vehicles", len(vehicles)).Msg("csv report generated")
	return buf.Bytes(), nil
}

// VehiclesPDF renders the filtered vehicle list as a tabular PDF report.
func (s *ExportService) VehiclesPDF(ctx context.Context, filter ExportFilter) ([]byte, error) {
	vehicles, err := s.listForExport(ctx, filter)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Jivhala Motors - Vehicles Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Designed and Developed by 5techG", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Generated on: "+time.Now().Format(exportDateFormat), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Vehicles: %d", len(vehicles)), "", 1, "L", false, 0, "")
	if filter.Status != "" {
		pdf.CellFormat(0, 6, "Status Filter: "+filter.Status, "", 1, "L", false, 0, "")
	}
	if filter.FromDate != nil {
		pdf.CellFormat(0, 6, "From Date: "+filter.FromDate.Format(exportDateFormat), "", 1, "L", false, 0, "")
	}
	if filter.ToDate != nil {
		pdf.CellFormat(0, 6, "To Date: "+filter.ToDate.Format(exportDateFormat), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{12, 32, 38, 24, 24, 18, 32}
	headers := []string{"S.No", "Vehicle No", "Owner", "In Date", "Out Date", "Status", "Price"}

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "B", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	writeHeader()

	for i, v := range vehicles {
		if pdf.GetY() > 265 {
			pdf.AddPage()
			writeHeader()
		}

		price := "-"
		if v.Buyer != nil && v.Buyer.Price != 0 {
			price = "Rs. " + formatAmount(v.Buyer.Price)
		}

		cells := []string{
			strconv.Itoa(i + 1),
			v.VehicleNumber,
			truncate(v.OwnerName, 18),
			v.VehicleInDate.Format(exportDateFormat),
			orDash(formatOptionalDate(v.OutDate)),
			string(v.Status),
			price,
		}
		for j, c := range cells {
			pdf.CellFormat(widths[j], 6, c, "", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, "This is a computer generated document.", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error().Err(err).Msg("failed to render pdf report")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int("vehicles", len(vehicles)).Msg("pdf report generated")
	return buf.Bytes(), nil
}

// VehiclePDF renders the detail certificate for one vehicle. The returned
// string is the vehicle number, used to name the downloaded file.
func (s *ExportService) VehiclePDF(ctx context.Context, id int64) ([]byte, string, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return nil, "", err
		}
		s.logger.Error().Err(err).Int64("vehicle_id", id).Msg("failed to get vehicle for export")
		return nil, "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Letterhead
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 10, "Jivhala Motors", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Your Trusted Vehicle Partner", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, "Contact: +91-XXXXXXXXXX | Email: info@jivhalamotors.com", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	s.detailBox(pdf, "Vehicle In Details", [][2]string{
		{"Unique ID: " + vehicle.UniqueID, "In Date: " + vehicle.VehicleInDate.Format(exportDateFormat)},
		{"Vehicle Number: " + vehicle.VehicleNumber, "Vehicle HP: " + orNA(vehicle.VehicleHP)},
		{"Vehicle Name: " + vehicle.VehicleName, "Model Year: " + strconv.Itoa(vehicle.ModelYear)},
		{"Chassis No: " + vehicle.ChassisNo, "Engine No: " + vehicle.EngineNo},
		{"Owner Name: " + vehicle.OwnerName, "Owner Type: " + string(vehicle.OwnerType)},
		{"Mobile No: " + vehicle.MobileNo, "Insurance Date: " + orNA(formatOptionalDate(vehicle.InsuranceDate))},
		{fmt.Sprintf("Documents: RC-%s, PUC-%s, NOC-%s",
			yesNo(vehicle.Documents.RC), yesNo(vehicle.Documents.PUC), yesNo(vehicle.Documents.NOC)), ""},
	})

	if vehicle.IsOut() && vehicle.Buyer != nil {
		b := vehicle.Buyer
		pdf.Ln(8)
		s.detailBox(pdf, "Buyer Details", [][2]string{
			{"Buyer Name: " + b.Name, "Out Date: " + orNA(formatOptionalDate(vehicle.OutDate))},
			{"Address: " + truncate(b.Address, 60), ""},
			{"Mobile No: " + b.MobileNo, "ID Proof: " + string(b.IDProofType)},
			{"Price: Rs. " + formatAmount(b.Price), "RTO Charges: Rs. " + formatAmount(b.RTOCharges)},
			{"Commission: Rs. " + formatAmount(b.Commission), "Token: Rs. " + formatAmount(b.Token)},
			{"Received: Rs. " + formatAmount(b.ReceivedPrice), "Balance: Rs. " + formatAmount(b.Balance)},
		})
	}

	pdf.Ln(14)
	pdf.SetFont("Helvetica", "", 11)
	y := pdf.GetY()
	pdf.Text(20, y, "Buyer Signature: ____________________")
	pdf.Text(115, y, "Owner Signature: ____________________")

	pdf.Ln(14)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Thank you for trusting Jivhala Motors!", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Designed and Developed by 5techG", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error().Err(err).Int64("vehicle_id", id).Msg("failed to render vehicle pdf")
		return nil, "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("vehicle_id", id).
		Str("unique_id", vehicle.UniqueID).
		Msg("vehicle pdf generated")

	return buf.Bytes(), vehicle.VehicleNumber, nil
}

// detailBox draws a bordered section with a bold title and two-column rows.
func (s *ExportService) detailBox(pdf *gofpdf.Fpdf, title string, rows [][2]string) {
	top := pdf.GetY()
	height := float64(14 + len(rows)*8 + 4)
	pdf.Rect(15, top, 180, height, "D")

	pdf.SetXY(20, top+4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	y := top + 14
	for _, row := range rows {
		pdf.Text(20, y+5, row[0])
		if row[1] != "" {
			pdf.Text(110, y+5, row[1])
		}
		y += 8
	}
	pdf.SetY(top + height)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportDateFormat)
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
