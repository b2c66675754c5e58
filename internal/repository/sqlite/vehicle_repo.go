package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jivhala-motors/backoffice/internal/domain"
	"github.com/jivhala-motors/backoffice/internal/repository"
)

// vehicleRepository implements repository.VehicleRepository for SQLite.
type vehicleRepository struct {
	db *DB
}

// NewVehicleRepository creates a new SQLite vehicle repository.
func NewVehicleRepository(db *DB) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

// vehicleColumns is the full select list for vehicle rows, joined with the
// creator/updater user references.
const vehicleColumns = `
	v.id, v.unique_id, v.vehicle_in_date, v.vehicle_number, v.vehicle_hp,
	v.chassis_no, v.engine_no, v.vehicle_name, v.model_year, v.owner_name,
	v.owner_type, v.mobile_no, v.insurance_date, v.challan,
	v.doc_rc, v.doc_puc, v.doc_noc, v.status, v.out_date,
	v.buyer_name, v.buyer_address, v.buyer_mobile_no, v.buyer_price,
	v.buyer_rto_charges, v.buyer_commission, v.buyer_token,
	v.buyer_received_price, v.buyer_balance, v.buyer_id_proof_type,
	v.buyer_id_proof_number, v.buyer_photo_filename, v.buyer_photo_original,
	v.buyer_photo_path, v.buyer_photo_uploaded,
	v.created_by, v.updated_by, v.created_at, v.updated_at,
	cu.username, cu.name, uu.username, uu.name`

const vehicleFrom = `
	FROM vehicles v
	LEFT JOIN users cu ON cu.id = v.created_by
	LEFT JOIN users uu ON uu.id = v.updated_by`

// Create persists a new vehicle with its photos in a single transaction.
func (r *vehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO vehicles (
				unique_id, vehicle_in_date, vehicle_number, vehicle_hp,
				chassis_no, engine_no, vehicle_name, model_year, owner_name,
				owner_type, mobile_no, insurance_date, challan,
				doc_rc, doc_puc, doc_noc, status,
				created_by, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		result, err := tx.ExecContext(ctx, query,
			vehicle.UniqueID,
			vehicle.VehicleInDate.Format(time.RFC3339),
			vehicle.VehicleNumber,
			vehicle.VehicleHP,
			vehicle.ChassisNo,
			vehicle.EngineNo,
			vehicle.VehicleName,
			vehicle.ModelYear,
			vehicle.OwnerName,
			string(vehicle.OwnerType),
			vehicle.MobileNo,
			nullTime(vehicle.InsuranceDate),
			vehicle.Challan,
			boolToInt(vehicle.Documents.RC),
			boolToInt(vehicle.Documents.PUC),
			boolToInt(vehicle.Documents.NOC),
			string(vehicle.Status),
			vehicle.CreatedBy,
			vehicle.CreatedAt.Format(time.RFC3339),
			vehicle.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return conflictFromUnique(err)
			}
			return fmt.Errorf("failed to create vehicle: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID: %w", err)
		}
		vehicle.ID = id

		for i := range vehicle.Photos {
			if err := insertPhoto(ctx, tx, id, &vehicle.Photos[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

func insertPhoto(ctx context.Context, tx *sql.Tx, vehicleID int64, photo *domain.Photo) error {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO vehicle_photos (vehicle_id, filename, original_name, path, upload_date)
		VALUES (?, ?, ?, ?, ?)
	`, vehicleID, photo.Filename, photo.OriginalName, photo.Path, photo.UploadDate.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get photo ID: %w", err)
	}
	photo.ID = id
	return nil
}

// GetByID retrieves a vehicle with photos and audit references.
func (r *vehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+vehicleColumns+vehicleFrom+` WHERE v.id = ?`, id)

	vehicle, err := scanVehicle(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	if err := r.loadPhotos(ctx, []*domain.Vehicle{vehicle}); err != nil {
		return nil, err
	}

	return vehicle, nil
}

// buildFilter composes the WHERE clause for the shared filter.
func buildFilter(filter repository.VehicleFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.Status != "" {
		conds = append(conds, "v.status = ?")
		args = append(args, string(filter.Status))
	}

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		conds = append(conds, `(
			LOWER(v.vehicle_number) LIKE ? OR
			LOWER(v.owner_name) LIKE ? OR
			LOWER(v.vehicle_name) LIKE ? OR
			LOWER(v.unique_id) LIKE ?)`)
		args = append(args, like, like, like, like)
	}

	if filter.FromDate != nil {
		conds = append(conds, "v.vehicle_in_date >= ?")
		args = append(args, filter.FromDate.Format(time.RFC3339))
	}
	if filter.ToDate != nil {
		conds = append(conds, "v.vehicle_in_date <= ?")
		args = append(args, filter.ToDate.Format(time.RFC3339))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns vehicles matching the filter.
func (r *vehicleRepository) List(ctx context.Context, filter repository.VehicleFilter, opts repository.ListOptions) ([]*domain.Vehicle, error) {
	where, args := buildFilter(filter)

	sortBy := "v.created_at"
	if opts.SortBy == repository.SortByInDate {
		sortBy = "v.vehicle_in_date"
	}

	query := `SELECT ` + vehicleColumns + vehicleFrom + where + ` ORDER BY ` + sortBy + ` DESC`
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadPhotos(ctx, vehicles); err != nil {
		return nil, err
	}

	return vehicles, nil
}

// Count returns the number of vehicles matching the filter.
func (r *vehicleRepository) Count(ctx context.Context, filter repository.VehicleFilter) (int64, error) {
	where, args := buildFilter(filter)

	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM vehicles v`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}
	return count, nil
}

// Update persists changed vehicle fields including buyer columns.
func (r *vehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	var (
		buyerName, buyerAddress, buyerMobile    sql.NullString
		buyerIDType, buyerIDNumber              sql.NullString
		price, rto, commission, token           sql.NullFloat64
		received, balance                       sql.NullFloat64
		photoFilename, photoOriginal, photoPath sql.NullString
		photoUploaded                           sql.NullString
	)

	if b := vehicle.Buyer; b != nil {
		buyerName = sql.NullString{String: b.Name, Valid: true}
		buyerAddress = sql.NullString{String: b.Address, Valid: true}
		buyerMobile = sql.NullString{String: b.MobileNo, Valid: true}
		buyerIDType = sql.NullString{String: string(b.IDProofType), Valid: true}
		buyerIDNumber = sql.NullString{String: b.IDProofNumber, Valid: b.IDProofNumber != ""}
		price = sql.NullFloat64{Float64: b.Price, Valid: true}
		rto = sql.NullFloat64{Float64: b.RTOCharges, Valid: true}
		commission = sql.NullFloat64{Float64: b.Commission, Valid: true}
		token = sql.NullFloat64{Float64: b.Token, Valid: true}
		received = sql.NullFloat64{Float64: b.ReceivedPrice, Valid: true}
		balance = sql.NullFloat64{Float64: b.Balance, Valid: true}
		if b.Photo != nil {
			photoFilename = sql.NullString{String: b.Photo.Filename, Valid: true}
			photoOriginal = sql.NullString{String: b.Photo.OriginalName, Valid: true}
			photoPath = sql.NullString{String: b.Photo.Path, Valid: true}
			photoUploaded = sql.NullString{String: b.Photo.UploadDate.Format(time.RFC3339), Valid: true}
		}
	}

	query := `
		UPDATE vehicles SET
			vehicle_in_date = ?, vehicle_number = ?, vehicle_hp = ?,
			chassis_no = ?, engine_no = ?, vehicle_name = ?, model_year = ?,
			owner_name = ?, owner_type = ?, mobile_no = ?,
			insurance_date = ?, challan = ?,
			doc_rc = ?, doc_puc = ?, doc_noc = ?,
			status = ?, out_date = ?,
			buyer_name = ?, buyer_address = ?, buyer_mobile_no = ?,
			buyer_price = ?, buyer_rto_charges = ?, buyer_commission = ?,
			buyer_token = ?, buyer_received_price = ?, buyer_balance = ?,
			buyer_id_proof_type = ?, buyer_id_proof_number = ?,
			buyer_photo_filename = ?, buyer_photo_original = ?,
			buyer_photo_path = ?, buyer_photo_uploaded = ?,
			updated_by = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		vehicle.VehicleInDate.Format(time.RFC3339),
		vehicle.VehicleNumber,
		vehicle.VehicleHP,
		vehicle.ChassisNo,
		vehicle.EngineNo,
		vehicle.VehicleName,
		vehicle.ModelYear,
		vehicle.OwnerName,
		string(vehicle.OwnerType),
		vehicle.MobileNo,
		nullTime(vehicle.InsuranceDate),
		vehicle.Challan,
		boolToInt(vehicle.Documents.RC),
		boolToInt(vehicle.Documents.PUC),
		boolToInt(vehicle.Documents.NOC),
		string(vehicle.Status),
		nullTime(vehicle.OutDate),
		buyerName, buyerAddress, buyerMobile,
		price, rto, commission, token, received, balance,
		buyerIDType, buyerIDNumber,
		photoFilename, photoOriginal, photoPath, photoUploaded,
		vehicle.UpdatedBy,
		vehicle.UpdatedAt.Format(time.RFC3339),
		vehicle.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return conflictFromUnique(err)
		}
		return fmt.Errorf("failed to update vehicle: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrVehicleNotFound
	}

	return nil
}

// Delete removes the vehicle; photo rows cascade.
func (r *vehicleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrVehicleNotFound
	}

	return nil
}

// AddPhotos appends photo descriptors to the vehicle.
func (r *vehicleRepository) AddPhotos(ctx context.Context, vehicleID int64, photos []domain.Photo) ([]domain.Photo, error) {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i := range photos {
			if err := insertPhoto(ctx, tx, vehicleID, &photos[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return photos, nil
}

// DeletePhoto removes one photo row, returning its descriptor.
func (r *vehicleRepository) DeletePhoto(ctx context.Context, vehicleID, photoID int64) (*domain.Photo, error) {
	photo := &domain.Photo{ID: photoID}
	var uploadDate string

	err := r.db.QueryRowContext(ctx, `
		SELECT filename, original_name, path, upload_date
		FROM vehicle_photos WHERE id = ? AND vehicle_id = ?
	`, photoID, vehicleID).Scan(&photo.Filename, &photo.OriginalName, &photo.Path, &uploadDate)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	photo.UploadDate, _ = time.Parse(time.RFC3339, uploadDate)

	if _, err := r.db.ExecContext(ctx, `DELETE FROM vehicle_photos WHERE id = ?`, photoID); err != nil {
		return nil, fmt.Errorf("failed to delete photo: %w", err)
	}

	return photo, nil
}

// ExistsWithValue checks whether any vehicle other than excludeID carries
// the given value in the given unique field.
func (r *vehicleRepository) ExistsWithValue(ctx context.Context, field repository.UniqueField, value string, excludeID int64) (bool, error) {
	column, err := uniqueColumn(field)
	if err != nil {
		return false, err
	}

	var count int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM vehicles WHERE `+column+` = ? AND id != ?`,
		value, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", column, err)
	}
	return count > 0, nil
}

func uniqueColumn(field repository.UniqueField) (string, error) {
	switch field {
	case repository.FieldVehicleNumber:
		return "vehicle_number", nil
	case repository.FieldChassisNo:
		return "chassis_no", nil
	case repository.FieldEngineNo:
		return "engine_no", nil
	}
	return "", fmt.Errorf("unknown unique field %q", field)
}

// CountByStatus returns the number of vehicles in the given state.
func (r *vehicleRepository) CountByStatus(ctx context.Context, status domain.VehicleStatus) (int64, error) {
	var count int64
	var err error
	if status == "" {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM vehicles`).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM vehicles WHERE status = ?`, string(status)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}
	return count, nil
}

// MonthlyStats returns per-month intake counts grouped by current status.
func (r *vehicleRepository) MonthlyStats(ctx context.Context, year int) ([]repository.MonthlyCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT CAST(strftime('%m', vehicle_in_date) AS INTEGER) AS month, status, COUNT(1)
		FROM vehicles
		WHERE strftime('%Y', vehicle_in_date) = ?
		GROUP BY month, status
		ORDER BY month
	`, fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly stats: %w", err)
	}
	defer rows.Close()

	var stats []repository.MonthlyCount
	for rows.Next() {
		var mc repository.MonthlyCount
		var status string
		if err := rows.Scan(&mc.Month, &status, &mc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly stat: %w", err)
		}
		mc.Status = domain.VehicleStatus(status)
		stats = append(stats, mc)
	}

	return stats, rows.Err()
}

// loadPhotos attaches photo rows to the given vehicles in one query.
func (r *vehicleRepository) loadPhotos(ctx context.Context, vehicles []*domain.Vehicle) error {
	if len(vehicles) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Vehicle, len(vehicles))
	placeholders := make([]string, len(vehicles))
	args := make([]interface{}, len(vehicles))
	for i, v := range vehicles {
		byID[v.ID] = v
		placeholders[i] = "?"
		args[i] = v.ID
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, vehicle_id, filename, original_name, path, upload_date
		FROM vehicle_photos
		WHERE vehicle_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY id
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to load photos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var photo domain.Photo
		var vehicleID int64
		var uploadDate string
		if err := rows.Scan(&photo.ID, &vehicleID, &photo.Filename, &photo.OriginalName, &photo.Path, &uploadDate); err != nil {
			return fmt.Errorf("failed to scan photo: %w", err)
		}
		photo.UploadDate, _ = time.Parse(time.RFC3339, uploadDate)
		if v, ok := byID[vehicleID]; ok {
			v.Photos = append(v.Photos, photo)
		}
	}

	return rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanVehicle.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanVehicle reads one joined vehicle row.
func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}

	var (
		inDate, createdAt, updatedAt            string
		insuranceDate, outDate                  sql.NullString
		ownerType, status                       string
		docRC, docPUC, docNOC                   int
		buyerName, buyerAddress, buyerMobile    sql.NullString
		buyerIDType, buyerIDNumber              sql.NullString
		price, rto, commission, token           sql.NullFloat64
		received, balance                       sql.NullFloat64
		photoFilename, photoOriginal, photoPath sql.NullString
		photoUploaded                           sql.NullString
		updatedBy                               sql.NullInt64
		creatorUsername, creatorName            sql.NullString
		updaterUsername, updaterName            sql.NullString
	)

	err := row.Scan(
		&v.ID, &v.UniqueID, &inDate, &v.VehicleNumber, &v.VehicleHP,
		&v.ChassisNo, &v.EngineNo, &v.VehicleName, &v.ModelYear, &v.OwnerName,
		&ownerType, &v.MobileNo, &insuranceDate, &v.Challan,
		&docRC, &docPUC, &docNOC, &status, &outDate,
		&buyerName, &buyerAddress, &buyerMobile, &price,
		&rto, &commission, &token,
		&received, &balance, &buyerIDType,
		&buyerIDNumber, &photoFilename, &photoOriginal,
		&photoPath, &photoUploaded,
		&v.CreatedBy, &updatedBy, &createdAt, &updatedAt,
		&creatorUsername, &creatorName, &updaterUsername, &updaterName,
	)
	if err != nil {
		return nil, err
	}

	v.OwnerType = domain.OwnerType(ownerType)
	v.Status = domain.VehicleStatus(status)
	v.Documents = domain.Documents{RC: docRC != 0, PUC: docPUC != 0, NOC: docNOC != 0}
	v.VehicleInDate, _ = time.Parse(time.RFC3339, inDate)
	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	v.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	v.InsuranceDate = parseNullTime(insuranceDate)
	v.OutDate = parseNullTime(outDate)

	if updatedBy.Valid {
		v.UpdatedBy = &updatedBy.Int64
	}
	if creatorUsername.Valid {
		v.Creator = &domain.UserRef{ID: v.CreatedBy, Username: creatorUsername.String, Name: creatorName.String}
	}
	if updatedBy.Valid && updaterUsername.Valid {
		v.Updater = &domain.UserRef{ID: updatedBy.Int64, Username: updaterUsername.String, Name: updaterName.String}
	}

	if buyerName.Valid {
		buyer := &domain.Buyer{
			Name:          buyerName.String,
			Address:       buyerAddress.String,
			MobileNo:      buyerMobile.String,
			Price:         price.Float64,
			RTOCharges:    rto.Float64,
			Commission:    commission.Float64,
			Token:         token.Float64,
			ReceivedPrice: received.Float64,
			Balance:       balance.Float64,
			IDProofType:   domain.IDProofType(buyerIDType.String),
			IDProofNumber: buyerIDNumber.String,
		}
		if photoFilename.Valid {
			photo := &domain.Photo{
				Filename:     photoFilename.String,
				OriginalName: photoOriginal.String,
				Path:         photoPath.String,
			}
			if t := parseNullTime(photoUploaded); t != nil {
				photo.UploadDate = *t
			}
			buyer.Photo = photo
		}
		v.Buyer = buyer
	}

	return v, nil
}

// nullTime converts an optional time to its stored form.
func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

// parseNullTime converts a stored nullable timestamp back.
func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}
