package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jivhala-motors/backoffice/internal/domain"
	"github.com/jivhala-motors/backoffice/internal/repository"
)

// vehicleRepository implements repository.VehicleRepository for PostgreSQL.
type vehicleRepository struct {
	db *DB
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
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
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO vehicles (
				unique_id, vehicle_in_date, vehicle_number, vehicle_hp,
				chassis_no, engine_no, vehicle_name, model_year, owner_name,
				owner_type, mobile_no, insurance_date, challan,
				doc_rc, doc_puc, doc_noc, status,
				created_by, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			RETURNING id
		`

		err := tx.QueryRow(ctx, query,
			vehicle.UniqueID,
			vehicle.VehicleInDate,
			vehicle.VehicleNumber,
			vehicle.VehicleHP,
			vehicle.ChassisNo,
			vehicle.EngineNo,
			vehicle.VehicleName,
			vehicle.ModelYear,
			vehicle.OwnerName,
			string(vehicle.OwnerType),
			vehicle.MobileNo,
			vehicle.InsuranceDate,
			vehicle.Challan,
			vehicle.Documents.RC,
			vehicle.Documents.PUC,
			vehicle.Documents.NOC,
			string(vehicle.Status),
			vehicle.CreatedBy,
			vehicle.CreatedAt,
			vehicle.UpdatedAt,
		).Scan(&vehicle.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return conflictFromUnique(err)
			}
			return fmt.Errorf("failed to create vehicle: %w", err)
		}

		for i := range vehicle.Photos {
			if err := insertPhoto(ctx, tx, vehicle.ID, &vehicle.Photos[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

func insertPhoto(ctx context.Context, tx pgx.Tx, vehicleID int64, photo *domain.Photo) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO vehicle_photos (vehicle_id, filename, original_name, path, upload_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, vehicleID, photo.Filename, photo.OriginalName, photo.Path, photo.UploadDate).Scan(&photo.ID)
	if err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}
	return nil
}

// GetByID retrieves a vehicle with photos and audit references.
func (r *vehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+vehicleColumns+vehicleFrom+` WHERE v.id = $1`, id)

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

// buildFilter composes the WHERE clause for the shared filter. Placeholders
// are numbered starting at $1.
func buildFilter(filter repository.VehicleFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	next := func() string {
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, "v.status = "+next())
	}

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		args = append(args, like)
		p := next()
		conds = append(conds, `(
			v.vehicle_number ILIKE `+p+` OR
			v.owner_name ILIKE `+p+` OR
			v.vehicle_name ILIKE `+p+` OR
			v.unique_id ILIKE `+p+`)`)
	}

	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		conds = append(conds, "v.vehicle_in_date >= "+next())
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		conds = append(conds, "v.vehicle_in_date <= "+next())
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
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
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
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM vehicles v`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}
	return count, nil
}

// Update persists changed vehicle fields including buyer columns.
func (r *vehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	var (
		buyerName, buyerAddress, buyerMobile    *string
		buyerIDType, buyerIDNumber              *string
		price, rto, commission, token           *float64
		received, balance                       *float64
		photoFilename, photoOriginal, photoPath *string
		photoUploaded                           *time.Time
	)

	if b := vehicle.Buyer; b != nil {
		buyerName = &b.Name
		buyerAddress = &b.Address
		buyerMobile = &b.MobileNo
		idType := string(b.IDProofType)
		buyerIDType = &idType
		if b.IDProofNumber != "" {
			buyerIDNumber = &b.IDProofNumber
		}
		price = &b.Price
		rto = &b.RTOCharges
		commission = &b.Commission
		token = &b.Token
		received = &b.ReceivedPrice
		balance = &b.Balance
		if b.Photo != nil {
			photoFilename = &b.Photo.Filename
			photoOriginal = &b.Photo.OriginalName
			photoPath = &b.Photo.Path
			photoUploaded = &b.Photo.UploadDate
		}
	}

	query := `
		UPDATE vehicles SET
			vehicle_in_date = $1, vehicle_number = $2, vehicle_hp = $3,
			chassis_no = $4, engine_no = $5, vehicle_name = $6, model_year = $7,
			owner_name = $8, owner_type = $9, mobile_no = $10,
			insurance_date = $11, challan = $12,
			doc_rc = $13, doc_puc = $14, doc_noc = $15,
			status = $16, out_date = $17,
			buyer_name = $18, buyer_address = $19, buyer_mobile_no = $20,
			buyer_price = $21, buyer_rto_charges = $22, buyer_commission = $23,
			buyer_token = $24, buyer_received_price = $25, buyer_balance = $26,
			buyer_id_proof_type = $27, buyer_id_proof_number = $28,
			buyer_photo_filename = $29, buyer_photo_original = $30,
			buyer_photo_path = $31, buyer_photo_uploaded = $32,
			updated_by = $33, updated_at = $34
		WHERE id = $35
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		vehicle.VehicleInDate,
		vehicle.VehicleNumber,
		vehicle.VehicleHP,
		vehicle.ChassisNo,
		vehicle.EngineNo,
		vehicle.VehicleName,
		vehicle.ModelYear,
		vehicle.OwnerName,
		string(vehicle.OwnerType),
		vehicle.MobileNo,
		vehicle.InsuranceDate,
		vehicle.Challan,
		vehicle.Documents.RC,
		vehicle.Documents.PUC,
		vehicle.Documents.NOC,
		string(vehicle.Status),
		vehicle.OutDate,
		buyerName, buyerAddress, buyerMobile,
		price, rto, commission, token, received, balance,
		buyerIDType, buyerIDNumber,
		photoFilename, photoOriginal, photoPath, photoUploaded,
		vehicle.UpdatedBy,
		vehicle.UpdatedAt,
		vehicle.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return conflictFromUnique(err)
		}
		return fmt.Errorf("failed to update vehicle: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrVehicleNotFound
	}

	return nil
}

// Delete removes the vehicle; photo rows cascade.
func (r *vehicleRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrVehicleNotFound
	}

	return nil
}

// AddPhotos appends photo descriptors to the vehicle.
func (r *vehicleRepository) AddPhotos(ctx context.Context, vehicleID int64, photos []domain.Photo) ([]domain.Photo, error) {
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
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

	err := r.db.Pool.QueryRow(ctx, `
		DELETE FROM vehicle_photos WHERE id = $1 AND vehicle_id = $2
		RETURNING filename, original_name, path, upload_date
	`, photoID, vehicleID).Scan(&photo.Filename, &photo.OriginalName, &photo.Path, &photo.UploadDate)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPhotoNotFound
		}
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

	var exists bool
	err = r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM vehicles WHERE `+column+` = $1 AND id != $2)`,
		value, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", column, err)
	}
	return exists, nil
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
		err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM vehicles`).Scan(&count)
	} else {
		err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM vehicles WHERE status = $1`, string(status)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}
	return count, nil
}

// MonthlyStats returns per-month intake counts grouped by current status.
func (r *vehicleRepository) MonthlyStats(ctx context.Context, year int) ([]repository.MonthlyCount, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT EXTRACT(MONTH FROM vehicle_in_date)::INT AS month, status, COUNT(1)
		FROM vehicles
		WHERE EXTRACT(YEAR FROM vehicle_in_date) = $1
		GROUP BY month, status
		ORDER BY month
	`, year)
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
	ids := make([]int64, len(vehicles))
	for i, v := range vehicles {
		byID[v.ID] = v
		ids[i] = v.ID
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, vehicle_id, filename, original_name, path, upload_date
		FROM vehicle_photos
		WHERE vehicle_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load photos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var photo domain.Photo
		var vehicleID int64
		if err := rows.Scan(&photo.ID, &vehicleID, &photo.Filename, &photo.OriginalName, &photo.Path, &photo.UploadDate); err != nil {
			return fmt.Errorf("failed to scan photo: %w", err)
		}
		if v, ok := byID[vehicleID]; ok {
			v.Photos = append(v.Photos, photo)
		}
	}

	return rows.Err()
}

// scanVehicle reads one joined vehicle row.
func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}

	var (
		ownerType, status                       string
		buyerName, buyerAddress, buyerMobile    *string
		buyerIDType, buyerIDNumber              *string
		price, rto, commission, token           *float64
		received, balance                       *float64
		photoFilename, photoOriginal, photoPath *string
		photoUploaded                           *time.Time
		creatorUsername, creatorName            *string
		updaterUsername, updaterName            *string
	)

	err := row.Scan(
		&v.ID, &v.UniqueID, &v.VehicleInDate, &v.VehicleNumber, &v.VehicleHP,
		&v.ChassisNo, &v.EngineNo, &v.VehicleName, &v.ModelYear, &v.OwnerName,
		&ownerType, &v.MobileNo, &v.InsuranceDate, &v.Challan,
		&v.Documents.RC, &v.Documents.PUC, &v.Documents.NOC, &status, &v.OutDate,
		&buyerName, &buyerAddress, &buyerMobile, &price,
		&rto, &commission, &token,
		&received, &balance, &buyerIDType,
		&buyerIDNumber, &photoFilename, &photoOriginal,
		&photoPath, &photoUploaded,
		&v.CreatedBy, &v.UpdatedBy, &v.CreatedAt, &v.UpdatedAt,
		&creatorUsername, &creatorName, &updaterUsername, &updaterName,
	)
	if err != nil {
		return nil, err
	}

	v.OwnerType = domain.OwnerType(ownerType)
	v.Status = domain.VehicleStatus(status)

	if creatorUsername != nil {
		v.Creator = &domain.UserRef{ID: v.CreatedBy, Username: *creatorUsername}
		if creatorName != nil {
			v.Creator.Name = *creatorName
		}
	}
	if v.UpdatedBy != nil && updaterUsername != nil {
		v.Updater = &domain.UserRef{ID: *v.UpdatedBy, Username: *updaterUsername}
		if updaterName != nil {
			v.Updater.Name = *updaterName
		}
	}

	if buyerName != nil {
		buyer := &domain.Buyer{Name: *buyerName}
		if buyerAddress != nil {
			buyer.Address = *buyerAddress
		}
		if buyerMobile != nil {
			buyer.MobileNo = *buyerMobile
		}
		if price != nil {
			buyer.Price = *price
		}
		if rto != nil {
			buyer.RTOCharges = *rto
		}
		if commission != nil {
			buyer.Commission = *commission
		}
		if token != nil {
			buyer.Token = *token
		}
		if received != nil {
			buyer.ReceivedPrice = *received
		}
		if balance != nil {
			buyer.Balance = *balance
		}
		if buyerIDType != nil {
			buyer.IDProofType = domain.IDProofType(*buyerIDType)
		}
		if buyerIDNumber != nil {
			buyer.IDProofNumber = *buyerIDNumber
		}
		if photoFilename != nil {
			photo := &domain.Photo{Filename: *photoFilename}
			if photoOriginal != nil {
				photo.OriginalName = *photoOriginal
			}
			if photoPath != nil {
				photo.Path = *photoPath
			}
			if photoUploaded != nil {
				photo.UploadDate = *photoUploaded
			}
			buyer.Photo = photo
		}
		v.Buyer = buyer
	}

	return v, nil
}
