package handler

import (
	"context"
	"sort"
	"strings"

	"github.com/jivhala-motors/backoffice/internal/domain"
	"github.com/jivhala-motors/backoffice/internal/repository"
)

// In-memory repositories backing the HTTP tests.

type fakeUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User), nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

type fakeVehicleRepo struct {
	vehicles    map[int64]*domain.Vehicle
	nextID      int64
	nextPhotoID int64
	monthly     []repository.MonthlyCount
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{
		vehicles:    make(map[int64]*domain.Vehicle),
		nextID:      1,
		nextPhotoID: 1,
	}
}

func (r *fakeVehicleRepo) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	vehicle.ID = r.nextID
	r.nextID++
	for i := range vehicle.Photos {
		vehicle.Photos[i].ID = r.nextPhotoID
		r.nextPhotoID++
	}
	r.vehicles[vehicle.ID] = vehicle
	return nil
}

func (r *fakeVehicleRepo) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	copied := *v
	return &copied, nil
}

func (r *fakeVehicleRepo) matches(v *domain.Vehicle, filter repository.VehicleFilter) bool {
	if filter.Status != "" && v.Status != filter.Status {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		hay := strings.ToLower(v.VehicleNumber + " " + v.OwnerName + " " + v.VehicleName + " " + v.UniqueID)
		if !strings.Contains(hay, needle) {
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

func (r *fakeVehicleRepo) List(ctx context.Context, filter repository.VehicleFilter, opts repository.ListOptions) ([]*domain.Vehicle, error) {
	var out []*domain.Vehicle
	for _, v := range r.vehicles {
		if r.matches(v, filter) {
			copied := *v
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r *fakeVehicleRepo) Count(ctx context.Context, filter repository.VehicleFilter) (int64, error) {
	var n int64
	for _, v := range r.vehicles {
		if r.matches(v, filter) {
			n++
		}
	}
	return n, nil
}

func (r *fakeVehicleRepo) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	existing, ok := r.vehicles[vehicle.ID]
	if !ok {
		return domain.ErrVehicleNotFound
	}
	vehicle.Photos = existing.Photos
	copied := *vehicle
	r.vehicles[vehicle.ID] = &copied
	return nil
}

func (r *fakeVehicleRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.vehicles[id]; !ok {
		return domain.ErrVehicleNotFound
	}
	delete(r.vehicles, id)
	return nil
}

func (r *fakeVehicleRepo) AddPhotos(ctx context.Context, vehicleID int64, photos []domain.Photo) ([]domain.Photo, error) {
	v, ok := r.vehicles[vehicleID]
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	for i := range photos {
		photos[i].ID = r.nextPhotoID
		r.nextPhotoID++
		v.Photos = append(v.Photos, photos[i])
	}
	return photos, nil
}

func (r *fakeVehicleRepo) DeletePhoto(ctx context.Context, vehicleID, photoID int64) (*domain.Photo, error) {
	v, ok := r.vehicles[vehicleID]
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

func (r *fakeVehicleRepo) ExistsWithValue(ctx context.Context, field repository.UniqueField, value string, excludeID int64) (bool, error) {
	for _, v := range r.vehicles {
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
		}
		if have == value {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVehicleRepo) CountByStatus(ctx context.Context, status domain.VehicleStatus) (int64, error) {
	return r.Count(ctx, repository.VehicleFilter{Status: status})
}

func (r *fakeVehicleRepo) MonthlyStats(ctx context.Context, year int) ([]repository.MonthlyCount, error) {
	if r.monthly != nil {
		return r.monthly, nil
	}
	var out []repository.MonthlyCount
	counts := make(map[[2]interface{}]int64)
	for _, v := range r.vehicles {
		if v.VehicleInDate.Year() != year {
			continue
		}
		counts[[2]interface{}{int(v.VehicleInDate.Month()), v.Status}]++
	}
	for k, n := range counts {
		out = append(out, repository.MonthlyCount{
			Month:  k[0].(int),
			Status: k[1].(domain.VehicleStatus),
			Count:  n,
		})
	}
	return out, nil
}

var (
	_ repository.UserRepository    = (*fakeUserRepo)(nil)
	_ repository.VehicleRepository = (*fakeVehicleRepo)(nil)
)
