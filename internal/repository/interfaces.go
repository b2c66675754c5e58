// Package repository defines data access interfaces for the back-office.
// These interfaces abstract database operations, allowing for different
// implementations (PostgreSQL, SQLite, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"
	"time"

	"github.com/jivhala-motors/backoffice/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// List returns all users, newest first.
	List(ctx context.Context) ([]*domain.User, error)

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// =============================================================================
// Vehicle Repository
// =============================================================================

// VehicleFilter is the filter composition shared by listing, counting, and
// export queries. Zero values mean "no constraint".
type VehicleFilter struct {
	// Status restricts to records in the given lifecycle state.
	Status domain.VehicleStatus

	// Search matches case-insensitively against vehicle number, owner
	// name, vehicle name, and unique ID (logical OR, substring).
	Search string

	// FromDate/ToDate bound the intake date inclusively.
	FromDate *time.Time
	ToDate   *time.Time
}

// Sort keys accepted by VehicleRepository.List.
const (
	// SortByCreated orders records newest-created first.
	SortByCreated = "created_at"

	// SortByInDate orders records newest-intake first (used by exports).
	SortByInDate = "vehicle_in_date"
)

// ListOptions controls ordering and pagination of vehicle listings.
type ListOptions struct {
	// SortBy is one of the Sort* keys; defaults to SortByCreated.
	SortBy string

	// Offset/Limit paginate the result. Limit <= 0 returns everything.
	Offset int
	Limit  int
}

// MonthlyCount is one bucket of the dashboard aggregation: the number of
// vehicles with the given status whose intake fell in the given month.
type MonthlyCount struct {
	Month  int
	Status domain.VehicleStatus
	Count  int64
}

// UniqueField identifies one of the globally unique vehicle fields.
type UniqueField string

const (
	FieldVehicleNumber UniqueField = "vehicleNumber"
	FieldChassisNo     UniqueField = "chassisNo"
	FieldEngineNo      UniqueField = "engineNo"
)

// VehicleRepository defines the interface for vehicle data access.
type VehicleRepository interface {
	// Create persists a new vehicle with its photos. A unique-index
	// violation is reported as *domain.ConflictError naming the field.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID retrieves a vehicle with photos and audit references.
	// Returns domain.ErrVehicleNotFound if no such record exists.
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)

	// List returns vehicles matching the filter.
	List(ctx context.Context, filter VehicleFilter, opts ListOptions) ([]*domain.Vehicle, error)

	// Count returns the number of vehicles matching the filter.
	Count(ctx context.Context, filter VehicleFilter) (int64, error)

	// Update persists changed vehicle fields (including buyer columns and
	// lifecycle state). Photos are managed via AddPhotos/DeletePhoto.
	// Unique-index violations map to *domain.ConflictError.
	Update(ctx context.Context, vehicle *domain.Vehicle) error

	// Delete removes the vehicle and its photo rows.
	Delete(ctx context.Context, id int64) error

	// AddPhotos appends photo descriptors to the vehicle, assigning IDs.
	AddPhotos(ctx context.Context, vehicleID int64, photos []domain.Photo) ([]domain.Photo, error)

	// DeletePhoto removes one photo row, returning its descriptor so the
	// caller can delete the backing file.
	// Returns domain.ErrPhotoNotFound if the vehicle has no such photo.
	DeletePhoto(ctx context.Context, vehicleID, photoID int64) (*domain.Photo, error)

	// ExistsWithValue checks whether any vehicle other than excludeID has
	// the given normalized value in the given unique field.
	// Pass excludeID 0 to check all records.
	ExistsWithValue(ctx context.Context, field UniqueField, value string, excludeID int64) (bool, error)

	// CountByStatus returns the number of vehicles in the given state.
	// An empty status counts all records.
	CountByStatus(ctx context.Context, status domain.VehicleStatus) (int64, error)

	// MonthlyStats returns per-month intake counts grouped by current
	// status for the given calendar year. Months without activity are
	// absent; callers zero-fill.
	MonthlyStats(ctx context.Context, year int) ([]MonthlyCount, error)
}
