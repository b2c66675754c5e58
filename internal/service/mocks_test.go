package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jivhala-motors/backoffice/internal/domain"
	"github.com/jivhala-motors/backoffice/internal/repository"
	"github.com/jivhala-motors/backoffice/internal/storage"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	users     map[int64]*domain.User
	nextID    int64
	createErr error
	getErr    error
	updateErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[int64]*domain.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.ErrUserAlreadyExists
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var result []*domain.User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, nil
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

// MockVehicleRepository is a mock implementation of repository.VehicleRepository.
type MockVehicleRepository struct {
	vehicles    map[int64]*domain.Vehicle
	nextID      int64
	nextPhotoID int64
	createErr   error
	updateErr   error
	listErr     error
	monthly     []repository.MonthlyCount
}

func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles:    make(map[int64]*domain.Vehicle),
		nextID:      1,
		nextPhotoID: 1,
	}
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	if m.createErr != nil {
		return m.createErr
	}
	vehicle.ID = m.nextID
	m.nextID++
	for i := range vehicle.Photos {
		vehicle.Photos[i].ID = m.nextPhotoID
		m.nextPhotoID++
	}
	m.vehicles[vehicle.ID] = vehicle
	return nil
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	if v, ok := m.vehicles[id]; ok {
		copied := *v
		return &copied, nil
	}
	return nil, domain.ErrVehicleNotFound
}

func (m *MockVehicleRepository) List(ctx context.Context, filter repository.VehicleFilter, opts repository.ListOptions) ([]*domain.Vehicle, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*domain.Vehicle
	for _, v := range m.vehicles {
		if m.matches(v, filter) {
			result = append(result, v)
		}
	}
	return result, nil
}

func (m *MockVehicleRepository) matches(v *domain.Vehicle, filter repository.VehicleFilter) bool {
	if filter.Status != "" && v.Status != filter.Status {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(v.VehicleNumber), needle) &&
			!strings.Contains(strings.ToLower(v.OwnerName), needle) &&
			!strings.Contains(strings.ToLower(v.VehicleName), needle) &&
			!strings.Contains(strings.ToLower(v.UniqueID), needle) {
			return false
		}
	}
	if filter.FromDate != nil && v.VehicleInDate.Before(*filter.FromDate) {
		return false
	}
	if filter.ToDate != nil && v.VehicleInDate.After(*filter.ToDate) {
		return false
	}
	return true
}

func (m *MockVehicleRepository) Count(ctx context.Context, filter repository.VehicleFilter) (int64, error) {
	if m.listErr != nil {
		return 0, m.listErr
	}
	var count int64
	for _, v := range m.vehicles {
		if m.matches(v, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MockVehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	existing, ok := m.vehicles[vehicle.ID]
	if !ok {
		return domain.ErrVehicleNotFound
	}
	copied := *vehicle
	copied.Photos = existing.Photos
	m.vehicles[vehicle.ID] = &copied
	return nil
}

func (m *MockVehicleRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.vehicles[id]; !ok {
		return domain.ErrVehicleNotFound
	}
	delete(m.vehicles, id)
	return nil
}

func (m *MockVehicleRepository) AddPhotos(ctx context.Context, vehicleID int64, photos []domain.Photo) ([]domain.Photo, error) {
	v, ok := m.vehicles[vehicleID]
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	for i := range photos {
		photos[i].ID = m.nextPhotoID
		m.nextPhotoID++
	}
	v.Photos = append(v.Photos, photos...)
	return photos, nil
}

func (m *MockVehicleRepository) DeletePhoto(ctx context.Context, vehicleID, photoID int64) (*domain.Photo, error) {
	v, ok := m.vehicles[vehicleID]
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	for i, p := range v.Photos {
		if p.ID == photoID {
			v.Photos = append(v.Photos[:i], v.Photos[i+1:]...)
			return &p, nil
		}
	}
	return nil, domain.ErrPhotoNotFound
}

func (m *MockVehicleRepository) ExistsWithValue(ctx context.Context, field repository.UniqueField, value string, excludeID int64) (bool, error) {
	for _, v := range m.vehicles {
		if v.ID == excludeID {
			continue
		}
		var have string
		switch field {
		case repository.FieldVehicleNumber:
			have = v.VehicleNumber
		case repository.FieldChassisNo:
			have = v.ChassisNo
		case repository.FieldEngineNo:
			have = v.EngineNo
		default:
			return false, fmt.Errorf("unknown field %q", field)
		}
		if have == value {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockVehicleRepository) CountByStatus(ctx context.Context, status domain.VehicleStatus) (int64, error) {
	var count int64
	for _, v := range m.vehicles {
		if status == "" || v.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *MockVehicleRepository) MonthlyStats(ctx context.Context, year int) ([]repository.MonthlyCount, error) {
	return m.monthly, nil
}

// MockStorage is an in-memory storage.Backend recording saves and deletes.
type MockStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
	deleted []string
	counter int
}

func NewMockStorage() *MockStorage {
	return &MockStorage{files: make(map[string][]byte)}
}

func (m *MockStorage) Save(ctx context.Context, category string, upload storage.Upload) (*storage.StoredFile, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	filename := fmt.Sprintf("file-%d%s", m.counter, extOf(upload.OriginalName))
	key := storage.Key(category, filename)
	data, _ := io.ReadAll(upload.Reader)
	m.files[key] = data
	return &storage.StoredFile{Filename: filename, Key: key}, nil
}

func (m *MockStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[key]
	if !ok {
		return nil, storage.ErrFileNotFound
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func extOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

// upload builds a small in-memory upload for tests.
func upload(name string) storage.Upload {
	return storage.Upload{
		OriginalName: name,
		ContentType:  "image/jpeg",
		Size:         4,
		Reader:       strings.NewReader("data"),
	}
}

// intakeInput returns a valid create input for tests.
func intakeInput() CreateVehicleInput {
	return CreateVehicleInput{
		VehicleNumber: "MH12AB1234",
		ChassisNo:     "CH123456",
		EngineNo:      "EN123456",
		VehicleName:   "Honda Activa",
		ModelYear:     2020,
		OwnerName:     "Ramesh Patil",
		OwnerType:     "1st",
		MobileNo:      "9876543210",
		CreatedBy:     1,
	}
}
