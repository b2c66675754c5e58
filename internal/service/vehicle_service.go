package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jivhala-motors/backoffice/internal/domain"
	"github.com/jivhala-motors/backoffice/internal/repository"
	"github.com/jivhala-motors/backoffice/internal/storage"
)

// VehicleService handles the vehicle in/out lifecycle.
type VehicleService struct {
	vehicleRepo repository.VehicleRepository
	files       storage.Backend
	logger      zerolog.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(vehicleRepo repository.VehicleRepository, files storage.Backend, logger zerolog.Logger) *VehicleService {
	return &VehicleService{
		vehicleRepo: vehicleRepo,
		files:       files,
		logger:      logger.With().Str("service", "vehicle").Logger(),
	}
}

// CreateVehicleInput contains the intake form data.
type CreateVehicleInput struct {
	VehicleInDate *time.Time
	VehicleNumber string
	VehicleHP     string
	ChassisNo     string
	EngineNo      string
	VehicleName   string
	ModelYear     int
	OwnerName     string
	OwnerType     string
	MobileNo      string
	InsuranceDate *time.Time
	Challan       string
	Documents     domain.Documents
	Photos        []storage.Upload
	CreatedBy     int64
}

// Create takes a vehicle into inventory.
func (s *VehicleService) Create(ctx context.Context, input CreateVehicleInput) (*domain.Vehicle, error) {
	input.VehicleNumber = normalizeID(input.VehicleNumber)
	input.ChassisNo = normalizeID(input.ChassisNo)
	input.EngineNo = normalizeID(input.EngineNo)

	if err := s.validateCreateInput(input); err != nil {
		return nil, err
	}

	if err := s.checkUnique(ctx, 0, input.VehicleNumber, input.ChassisNo, input.EngineNo); err != nil {
		return nil, err
	}

	vehicle := domain.NewVehicle(input.CreatedBy)
	if input.VehicleInDate != nil {
		vehicle.VehicleInDate = *input.VehicleInDate
	}
	vehicle.VehicleNumber = input.VehicleNumber
	vehicle.VehicleHP = strings.TrimSpace(input.VehicleHP)
	vehicle.ChassisNo = input.ChassisNo
	vehicle.EngineNo = input.EngineNo
	vehicle.VehicleName = strings.TrimSpace(input.VehicleName)
	vehicle.ModelYear = input.ModelYear
	vehicle.OwnerName = strings.TrimSpace(input.OwnerName)
	vehicle.OwnerType = domain.OwnerType(input.OwnerType)
	if input.OwnerType == "" {
		vehicle.OwnerType = domain.OwnerFirst
	}
	vehicle.MobileNo = input.MobileNo
	vehicle.InsuranceDate = input.InsuranceDate
	vehicle.Challan = strings.TrimSpace(input.Challan)
	vehicle.Documents = input.Documents

	photos, err := s.saveUploads(ctx, storage.CategoryVehicles, input.Photos)
	if err != nil {
		return nil, err
	}
	vehicle.Photos = photos

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		s.cleanupPhotos(ctx, photos)
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("vehicle_number", input.VehicleNumber).Msg("failed to create vehicle")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("vehicle_id", vehicle.ID).
		Str("unique_id", vehicle.UniqueID).
		Str("vehicle_number", vehicle.VehicleNumber).
		Int("photos", len(vehicle.Photos)).
		Msg("vehicle in")

	return vehicle, nil
}

func (s *VehicleService) validateCreateInput(input CreateVehicleInput) error {
	v := &domain.ValidationError{}

	if input.VehicleNumber == "" {
		v.Add("vehicleNumber", "vehicle number is required")
	}
	if input.ChassisNo == "" {
		v.Add("chassisNo", "chassis number is required")
	}
	if input.EngineNo == "" {
		v.Add("engineNo", "engine number is required")
	}
	if strings.TrimSpace(input.VehicleName) == "" {
		v.Add("vehicleName", "vehicle name is required")
	}
	if strings.TrimSpace(input.OwnerName) == "" {
		v.Add("ownerName", "owner name is required")
	}
	if input.ModelYear < domain.MinModelYear || input.ModelYear > domain.MaxModelYear(time.Now()) {
		v.Add("modelYear", fmt.Sprintf("model year must be between %d and %d", domain.MinModelYear, domain.MaxModelYear(time.Now())))
	}
	if !domain.ValidMobile(input.MobileNo) {
		v.Add("mobileNo", "mobile number must be 10 digits starting with 6-9")
	}
	if input.OwnerType != "" && !domain.OwnerType(input.OwnerType).IsValid() {
		v.Add("ownerType", "owner type must be 1st, 2nd or 3rd")
	}
	if len(input.Photos) > domain.MaxPhotos {
		v.Add("photos", fmt.Sprintf("at most %d photos are allowed", domain.MaxPhotos))
	}

	if v.HasErrors() {
		return v
	}
	return nil
}

// checkUnique verifies the globally unique fields in a fixed order so the
// first violation names a stable field.
func (s *VehicleService) checkUnique(ctx context.Context, excludeID int64, vehicleNumber, chassisNo, engineNo string) error {
	checks := []struct {
		field repository.UniqueField
		value string
	}{
		{repository.FieldVehicleNumber, vehicleNumber},
		{repository.FieldChassisNo, chassisNo},
		{repository.FieldEngineNo, engineNo},
	}

	for _, c := range checks {
		if c.value == "" {
			continue
		}
		exists, err := s.vehicleRepo.ExistsWithValue(ctx, c.field, c.value, excludeID)
		if err != nil {
			s.logger.Error().Err(err).Str("field", string(c.field)).Msg("failed to check uniqueness")
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if exists {
			return domain.NewConflict(string(c.field))
		}
	}
	return nil
}

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// ListVehiclesInput contains listing filters and pagination.
type ListVehiclesInput struct {
	Page     int
	Limit    int
	Status   string
	Search   string
	FromDate *time.Time
	ToDate   *time.Time
}

// ListVehiclesOutput is one page of vehicles.
type ListVehiclesOutput struct {
	Vehicles   []*domain.Vehicle
	Pagination Pagination
}

// List returns a page of vehicles matching the filters, newest first.
func (s *VehicleService) List(ctx context.Context, input ListVehiclesInput) (*ListVehiclesOutput, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	if input.Status != "" && !domain.VehicleStatus(input.Status).IsValid() {
		v := &domain.ValidationError{}
		return nil, v.Add("status", "status must be in or out")
	}

	filter := repository.VehicleFilter{
		Status:   domain.VehicleStatus(input.Status),
		Search:   strings.TrimSpace(input.Search),
		FromDate: input.FromDate,
		ToDate:   input.ToDate,
	}

	total, err := s.vehicleRepo.Count(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count vehicles")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	vehicles, err := s.vehicleRepo.List(ctx, filter, repository.ListOptions{
		SortBy: repository.SortByCreated,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list vehicles")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &ListVehiclesOutput{
		Vehicles: vehicles,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: limit,
		},
	}, nil
}

// Get retrieves one vehicle.
func (s *VehicleService) Get(ctx context.Context, id int64) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("vehicle_id", id).Msg("failed to get vehicle")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return vehicle, nil
}

// UpdateVehicleInput contains the editable fields. Nil pointers leave the
// stored value untouched.
type UpdateVehicleInput struct {
	ID            int64
	VehicleInDate *time.Time
	VehicleNumber *string
	VehicleHP     *string
	ChassisNo     *string
	EngineNo      *string
	VehicleName   *string
	ModelYear     *int
	OwnerName     *string
	OwnerType     *string
	MobileNo      *string
	InsuranceDate *time.Time
	Challan       *string
	RC            *bool
	PUC           *bool
	NOC           *bool
	Status        *string
	NewPhotos     []storage.Upload
	UpdatedBy     int64
}

// Update edits an inventory record. A sold vehicle can only be edited when
// the request explicitly moves it back to "in", which also discards the
// buyer sub-record.
func (s *VehicleService) Update(ctx context.Context, input UpdateVehicleInput) (*domain.Vehicle, error) {
	vehicle, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	backToIn := input.Status != nil && *input.Status == string(domain.StatusIn)
	if vehicle.IsOut() && !backToIn {
		return nil, domain.ErrVehicleSoldLocked
	}

	if input.Status != nil && !domain.VehicleStatus(*input.Status).IsValid() {
		v := &domain.ValidationError{}
		return nil, v.Add("status", "status must be in or out")
	}

	v := &domain.ValidationError{}
	if input.VehicleNumber != nil {
		vehicle.VehicleNumber = normalizeID(*input.VehicleNumber)
		if vehicle.VehicleNumber == "" {
			v.Add("vehicleNumber", "vehicle number is required")
		}
	}
	if input.ChassisNo != nil {
		vehicle.ChassisNo = normalizeID(*input.ChassisNo)
		if vehicle.ChassisNo == "" {
			v.Add("chassisNo", "chassis number is required")
		}
	}
	if input.EngineNo != nil {
		vehicle.EngineNo = normalizeID(*input.EngineNo)
		if vehicle.EngineNo == "" {
			v.Add("engineNo", "engine number is required")
		}
	}
	if input.VehicleName != nil {
		vehicle.VehicleName = strings.TrimSpace(*input.VehicleName)
		if vehicle.VehicleName == "" {
			v.Add("vehicleName", "vehicle name is required")
		}
	}
	if input.OwnerName != nil {
		vehicle.OwnerName = strings.TrimSpace(*input.OwnerName)
		if vehicle.OwnerName == "" {
			v.Add("ownerName", "owner name is required")
		}
	}
	if input.ModelYear != nil {
		vehicle.ModelYear = *input.ModelYear
		if vehicle.ModelYear < domain.MinModelYear || vehicle.ModelYear > domain.MaxModelYear(time.Now()) {
			v.Add("modelYear", fmt.Sprintf("model year must be between %d and %d", domain.MinModelYear, domain.MaxModelYear(time.Now())))
		}
	}
	if input.OwnerType != nil {
		vehicle.OwnerType = domain.OwnerType(*input.OwnerType)
		if !vehicle.OwnerType.IsValid() {
			v.Add("ownerType", "owner type must be 1st, 2nd or 3rd")
		}
	}
	if input.MobileNo != nil {
		vehicle.MobileNo = *input.MobileNo
		if !domain.ValidMobile(vehicle.MobileNo) {
			v.Add("mobileNo", "mobile number must be 10 digits starting with 6-9")
		}
	}
	if len(vehicle.Photos)+len(input.NewPhotos) > domain.MaxPhotos {
		v.Add("newPhotos", fmt.Sprintf("at most %d photos are allowed", domain.MaxPhotos))
	}
	if v.HasErrors() {
		return nil, v
	}

	if input.VehicleInDate != nil {
		vehicle.VehicleInDate = *input.VehicleInDate
	}
	if input.VehicleHP != nil {
		vehicle.VehicleHP = strings.TrimSpace(*input.VehicleHP)
	}
	if input.InsuranceDate != nil {
		vehicle.InsuranceDate = input.InsuranceDate
	}
	if input.Challan != nil {
		vehicle.Challan = strings.TrimSpace(*input.Challan)
	}
	if input.RC != nil {
		vehicle.Documents.RC = *input.RC
	}
	if input.PUC != nil {
		vehicle.Documents.PUC = *input.PUC
	}
	if input.NOC != nil {
		vehicle.Documents.NOC = *input.NOC
	}

	var discardedBuyerPhoto *domain.Photo
	if backToIn && vehicle.IsOut() {
		if vehicle.Buyer != nil {
			discardedBuyerPhoto = vehicle.Buyer.Photo
		}
		vehicle.Status = domain.StatusIn
		vehicle.OutDate = nil
		vehicle.Buyer = nil
	}

	if err := s.checkUnique(ctx, vehicle.ID, vehicle.VehicleNumber, vehicle.ChassisNo, vehicle.EngineNo); err != nil {
		return nil, err
	}

	newPhotos, err := s.saveUploads(ctx, storage.CategoryVehicles, input.NewPhotos)
	if err != nil {
		return nil, err
	}

	vehicle.UpdatedBy = &input.UpdatedBy
	vehicle.UpdatedAt = time.Now().UTC()

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		s.cleanupPhotos(ctx, newPhotos)
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return nil, err
		}
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("vehicle_id", vehicle.ID).Msg("failed to update vehicle")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if len(newPhotos) > 0 {
		added, err := s.vehicleRepo.AddPhotos(ctx, vehicle.ID, newPhotos)
		if err != nil {
			s.cleanupPhotos(ctx, newPhotos)
			s.logger.Error().Err(err).Int64("vehicle_id", vehicle.ID).Msg("failed to add photos")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		vehicle.Photos = append(vehicle.Photos, added...)
	}

	if discardedBuyerPhoto != nil {
		s.deleteFile(ctx, discardedBuyerPhoto.Path)
	}

	s.logger.Info().
		Int64("vehicle_id", vehicle.ID).
		Str("unique_id", vehicle.UniqueID).
		Msg("vehicle updated")

	return vehicle, nil
}

// SellVehicleInput contains the buyer form data for marking a vehicle out.
type SellVehicleInput struct {
	VehicleID     int64
	BuyerName     string
	Address       string
	MobileNo      string
	Price         float64
	RTOCharges    float64
	Commission    float64
	Token         float64
	ReceivedPrice float64
	Balance       float64
	IDProofType   string
	IDProofNumber string
	Photo         *storage.Upload
	OutDate       *time.Time
	UpdatedBy     int64
}

// Sell marks a vehicle as out and attaches the buyer sub-record. Selling is
// one-directional; the escape hatch is Update with status "in".
func (s *VehicleService) Sell(ctx context.Context, input SellVehicleInput) (*domain.Vehicle, error) {
	vehicle, err := s.Get(ctx, input.VehicleID)
	if err != nil {
		return nil, err
	}

	if vehicle.IsOut() {
		return nil, domain.ErrVehicleAlreadyOut
	}

	v := &domain.ValidationError{}
	if strings.TrimSpace(input.BuyerName) == "" {
		v.Add("buyerName", "buyer name is required")
	}
	if !domain.ValidMobile(input.MobileNo) {
		v.Add("mobileNo", "mobile number must be 10 digits starting with 6-9")
	}
	idProof := domain.IDProofType(input.IDProofType)
	if input.IDProofType == "" {
		idProof = domain.IDProofAadhaar
	} else if !idProof.IsValid() {
		v.Add("idProofType", "ID proof type must be Aadhaar, PAN, DL, Voter or Passport")
	}
	if v.HasErrors() {
		return nil, v
	}

	buyer := &domain.Buyer{
		Name:          strings.TrimSpace(input.BuyerName),
		Address:       strings.TrimSpace(input.Address),
		MobileNo:      input.MobileNo,
		Price:         input.Price,
		RTOCharges:    input.RTOCharges,
		Commission:    input.Commission,
		Token:         input.Token,
		ReceivedPrice: input.ReceivedPrice,
		Balance:       input.Balance,
		IDProofType:   idProof,
		IDProofNumber: strings.TrimSpace(input.IDProofNumber),
	}

	if input.Photo != nil {
		stored, err := s.files.Save(ctx, storage.CategoryBuyers, *input.Photo)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to store buyer photo")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		buyer.Photo = &domain.Photo{
			Filename:     stored.Filename,
			OriginalName: input.Photo.OriginalName,
			Path:         stored.Key,
			UploadDate:   time.Now().UTC(),
		}
	}

	outDate := time.Now().UTC()
	if input.OutDate != nil {
		outDate = *input.OutDate
	}

	vehicle.Status = domain.StatusOut
	vehicle.OutDate = &outDate
	vehicle.Buyer = buyer
	vehicle.UpdatedBy = &input.UpdatedBy
	vehicle.UpdatedAt = time.Now().UTC()

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		if buyer.Photo != nil {
			s.deleteFile(ctx, buyer.Photo.Path)
		}
		s.logger.Error().Err(err).Int64("vehicle_id", vehicle.ID).Msg("failed to mark vehicle out")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("vehicle_id", vehicle.ID).
		Str("unique_id", vehicle.UniqueID).
		Str("buyer", buyer.Name).
		Msg("vehicle out")

	return vehicle, nil
}

// Delete removes a vehicle and its stored files.
func (s *VehicleService) Delete(ctx context.Context, id int64) error {
	vehicle, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.vehicleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return err
		}
		s.logger.Error().Err(err).Int64("vehicle_id", id).Msg("failed to delete vehicle")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// File cleanup is best-effort; the record is already gone.
	for _, photo := range vehicle.Photos {
		s.deleteFile(ctx, photo.Path)
	}
	if vehicle.Buyer != nil && vehicle.Buyer.Photo != nil {
		s.deleteFile(ctx, vehicle.Buyer.Photo.Path)
	}

	s.logger.Info().
		Int64("vehicle_id", id).
		Str("unique_id", vehicle.UniqueID).
		Msg("vehicle deleted")

	return nil
}

// RemovePhoto deletes one photo from a vehicle.
func (s *VehicleService) RemovePhoto(ctx context.Context, vehicleID, photoID, updatedBy int64) error {
	vehicle, err := s.Get(ctx, vehicleID)
	if err != nil {
		return err
	}

	photo, err := s.vehicleRepo.DeletePhoto(ctx, vehicleID, photoID)
	if err != nil {
		if errors.Is(err, domain.ErrPhotoNotFound) {
			return err
		}
		s.logger.Error().Err(err).Int64("vehicle_id", vehicleID).Int64("photo_id", photoID).Msg("failed to delete photo")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.deleteFile(ctx, photo.Path)

	vehicle.UpdatedBy = &updatedBy
	vehicle.UpdatedAt = time.Now().UTC()
	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		s.logger.Warn().Err(err).Int64("vehicle_id", vehicleID).Msg("failed to stamp updater after photo removal")
	}

	s.logger.Info().
		Int64("vehicle_id", vehicleID).
		Int64("photo_id", photoID).
		Msg("photo removed")

	return nil
}

// MonthlyData is one month's in/out counts for the dashboard chart.
type MonthlyData struct {
	Month       int   `json:"month"`
	VehiclesIn  int64 `json:"vehiclesIn"`
	VehiclesOut int64 `json:"vehiclesOut"`
}

// DashboardStats is the dashboard aggregation. The handler splits it into
// the summary and monthlyData response sections.
type DashboardStats struct {
	TotalVehicles int64
	VehiclesIn    int64
	VehiclesOut   int64
	MonthlyData   []MonthlyData
}

// Dashboard returns inventory totals and the current year's month-by-month
// intake counts grouped by current status, zero-filled for all 12 months.
func (s *VehicleService) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	total, err := s.vehicleRepo.CountByStatus(ctx, "")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count vehicles")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	in, err := s.vehicleRepo.CountByStatus(ctx, domain.StatusIn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	out, err := s.vehicleRepo.CountByStatus(ctx, domain.StatusOut)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	counts, err := s.vehicleRepo.MonthlyStats(ctx, now.Year())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get monthly stats")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	monthly := make([]MonthlyData, 12)
	for i := range monthly {
		monthly[i].Month = i + 1
	}
	for _, c := range counts {
		if c.Month < 1 || c.Month > 12 {
			continue
		}
		switch c.Status {
		case domain.StatusIn:
			monthly[c.Month-1].VehiclesIn = c.Count
		case domain.StatusOut:
			monthly[c.Month-1].VehiclesOut = c.Count
		}
	}

	return &DashboardStats{
		TotalVehicles: total,
		VehiclesIn:    in,
		VehiclesOut:   out,
		MonthlyData:   monthly,
	}, nil
}

// saveUploads stores each upload and returns the photo descriptors.
// On failure the already stored files are removed.
func (s *VehicleService) saveUploads(ctx context.Context, category string, uploads []storage.Upload) ([]domain.Photo, error) {
	var photos []domain.Photo
	for _, upload := range uploads {
		stored, err := s.files.Save(ctx, category, upload)
		if err != nil {
			s.cleanupPhotos(ctx, photos)
			s.logger.Error().Err(err).Str("original_name", upload.OriginalName).Msg("failed to store photo")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		photos = append(photos, domain.Photo{
			Filename:     stored.Filename,
			OriginalName: upload.OriginalName,
			Path:         stored.Key,
			UploadDate:   time.Now().UTC(),
		})
	}
	return photos, nil
}

// cleanupPhotos removes stored files after a failed write, best-effort.
func (s *VehicleService) cleanupPhotos(ctx context.Context, photos []domain.Photo) {
	for _, photo := range photos {
		s.deleteFile(ctx, photo.Path)
	}
}

func (s *VehicleService) deleteFile(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to delete stored file")
	}
}

// normalizeID uppercases and trims the globally unique identifiers so
// lookups and uniqueness checks are case-insensitive.
func normalizeID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
