package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jivhala-motors/backoffice/internal/domain"
	"github.com/jivhala-motors/backoffice/internal/repository"
	"github.com/jivhala-motors/backoffice/internal/storage"
)

func newVehicleService() (*VehicleService, *MockVehicleRepository, *MockStorage) {
	repo := NewMockVehicleRepository()
	files := NewMockStorage()
	return NewVehicleService(repo, files, zerolog.Nop()), repo, files
}

func TestVehicleCreate(t *testing.T) {
	svc, _, files := newVehicleService()

	input := intakeInput()
	input.VehicleNumber = " mh12ab1234 "
	input.Photos = append(input.Photos, upload("front.jpg"), upload("back.jpg"))

	vehicle, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if vehicle.ID == 0 {
		t.Error("ID not assigned")
	}
	if !strings.HasPrefix(vehicle.UniqueID, "JM-") {
		t.Errorf("UniqueID = %q, want JM- prefix", vehicle.UniqueID)
	}
	if vehicle.VehicleNumber != "MH12AB1234" {
		t.Errorf("VehicleNumber = %q, want normalized MH12AB1234", vehicle.VehicleNumber)
	}
	if vehicle.Status != domain.StatusIn {
		t.Errorf("Status = %q, want in", vehicle.Status)
	}
	if len(vehicle.Photos) != 2 {
		t.Fatalf("photos = %d, want 2", len(vehicle.Photos))
	}
	if len(files.files) != 2 {
		t.Errorf("stored files = %d, want 2", len(files.files))
	}
	if vehicle.Buyer != nil {
		t.Error("Buyer should be nil on intake")
	}
}

func TestVehicleCreateValidation(t *testing.T) {
	svc, _, _ := newVehicleService()

	tests := []struct {
		name      string
		mutate    func(*CreateVehicleInput)
		wantField string
	}{
		{
			name:      "missing vehicle number",
			mutate:    func(i *CreateVehicleInput) { i.VehicleNumber = "" },
			wantField: "vehicleNumber",
		},
		{
			name:      "missing chassis",
			mutate:    func(i *CreateVehicleInput) { i.ChassisNo = "  " },
			wantField: "chassisNo",
		},
		{
			name:      "model year too old",
			mutate:    func(i *CreateVehicleInput) { i.ModelYear = 1985 },
			wantField: "modelYear",
		},
		{
			name:      "model year in future",
			mutate:    func(i *CreateVehicleInput) { i.ModelYear = time.Now().Year() + 2 },
			wantField: "modelYear",
		},
		{
			name:      "bad mobile",
			mutate:    func(i *CreateVehicleInput) { i.MobileNo = "1234567890" },
			wantField: "mobileNo",
		},
		{
			name:      "bad owner type",
			mutate:    func(i *CreateVehicleInput) { i.OwnerType = "4th" },
			wantField: "ownerType",
		},
		{
			name: "too many photos",
			mutate: func(i *CreateVehicleInput) {
				for j := 0; j < domain.MaxPhotos+1; j++ {
					i.Photos = append(i.Photos, upload("p.jpg"))
				}
			},
			wantField: "photos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := intakeInput()
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), input)

			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Create() error = %v, want ValidationError", err)
			}
			found := false
			for _, f := range vErr.Fields {
				if f.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("validation fields = %v, want %q flagged", vErr.Fields, tt.wantField)
			}
		})
	}
}

func TestVehicleCreateConflicts(t *testing.T) {
	svc, _, _ := newVehicleService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, intakeInput()); err != nil {
		t.Fatalf("seed Create() error = %v", err)
	}

	tests := []struct {
		name      string
		mutate    func(*CreateVehicleInput)
		wantField string
	}{
		{
			name:      "duplicate plate",
			mutate:    func(i *CreateVehicleInput) { i.ChassisNo, i.EngineNo = "CH-OTHER", "EN-OTHER" },
			wantField: "vehicleNumber",
		},
		{
			name:      "duplicate chassis",
			mutate:    func(i *CreateVehicleInput) { i.VehicleNumber, i.EngineNo = "MH14XX9999", "EN-OTHER" },
			wantField: "chassisNo",
		},
		{
			name:      "duplicate engine",
			mutate:    func(i *CreateVehicleInput) { i.VehicleNumber, i.ChassisNo = "MH14XX9999", "CH-OTHER" },
			wantField: "engineNo",
		},
		{
			// All three collide; the plate must win.
			name:      "all duplicated reports plate first",
			mutate:    func(i *CreateVehicleInput) {},
			wantField: "vehicleNumber",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := intakeInput()
			tt.mutate(&input)

			_, err := svc.Create(ctx, input)

			var conflict *domain.ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("Create() error = %v, want ConflictError", err)
			}
			if conflict.Field != tt.wantField {
				t.Errorf("conflict field = %q, want %q", conflict.Field, tt.wantField)
			}
		})
	}
}

func TestVehicleCreateCleansUpFilesOnFailure(t *testing.T) {
	svc, repo, files := newVehicleService()
	repo.createErr = errors.New("db down")

	input := intakeInput()
	input.Photos = append(input.Photos, upload("a.jpg"))

	_, err := svc.Create(context.Background(), input)
	if !errors.Is(err, ErrInternalError) {
		t.Fatalf("Create() error = %v, want internal error", err)
	}
	if len(files.deleted) != 1 {
		t.Errorf("deleted files = %d, want 1", len(files.deleted))
	}
}

func TestVehicleListPagination(t *testing.T) {
	svc, _, _ := newVehicleService()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		input := intakeInput()
		input.VehicleNumber = intakeInput().VehicleNumber + string(rune('A'+i))
		input.ChassisNo = intakeInput().ChassisNo + string(rune('A'+i))
		input.EngineNo = intakeInput().EngineNo + string(rune('A'+i))
		if _, err := svc.Create(ctx, input); err != nil {
			t.Fatalf("seed Create() error = %v", err)
		}
	}

	out, err := svc.List(ctx, ListVehiclesInput{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	p := out.Pagination
	if p.CurrentPage != 2 || p.TotalItems != 25 || p.TotalPages != 3 || p.ItemsPerPage != 10 {
		t.Errorf("pagination = %+v, want page 2 of 3, 25 items, 10 per page", p)
	}
}

func TestVehicleListDefaults(t *testing.T) {
	svc, _, _ := newVehicleService()

	out, err := svc.List(context.Background(), ListVehiclesInput{Page: -1, Limit: 500})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if out.Pagination.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1", out.Pagination.CurrentPage)
	}
	if out.Pagination.ItemsPerPage != 100 {
		t.Errorf("ItemsPerPage = %d, want capped at 100", out.Pagination.ItemsPerPage)
	}
}

func TestVehicleSell(t *testing.T) {
	svc, _, _ := newVehicleService()
	ctx := context.Background()

	created, err := svc.Create(ctx, intakeInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	photo := upload("buyer.jpg")
	sold, err := svc.Sell(ctx, SellVehicleInput{
		VehicleID: created.ID,
		BuyerName: "Suresh Kumar",
		MobileNo:  "9123456789",
		Price:     55000,
		Token:     5000,
		Photo:     &photo,
		UpdatedBy: 2,
	})
	if err != nil {
		t.Fatalf("Sell() error = %v", err)
	}

	if sold.Status != domain.StatusOut {
		t.Errorf("Status = %q, want out", sold.Status)
	}
	if sold.OutDate == nil {
		t.Error("OutDate not defaulted")
	}
	if sold.Buyer == nil {
		t.Fatal("Buyer not attached")
	}
	if sold.Buyer.IDProofType != domain.IDProofAadhaar {
		t.Errorf("IDProofType = %q, want default Aadhaar", sold.Buyer.IDProofType)
	}
	if sold.Buyer.Photo == nil {
		t.Error("buyer photo not stored")
	}
	if sold.UpdatedBy == nil || *sold.UpdatedBy != 2 {
		t.Error("UpdatedBy not stamped")
	}

	// Selling again must fail.
	_, err = svc.Sell(ctx, SellVehicleInput{
		VehicleID: created.ID,
		BuyerName: "Another",
		MobileNo:  "9123456789",
	})
	if !errors.Is(err, domain.ErrVehicleAlreadyOut) {
		t.Errorf("second Sell() error = %v, want ErrVehicleAlreadyOut", err)
	}
}

func TestVehicleSellValidation(t *testing.T) {
	svc, _, _ := newVehicleService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, intakeInput())

	_, err := svc.Sell(ctx, SellVehicleInput{
		VehicleID:   created.ID,
		BuyerName:   "",
		MobileNo:    "12345",
		IDProofType: "RationCard",
	})

	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Sell() error = %v, want ValidationError", err)
	}
	if len(vErr.Fields) != 3 {
		t.Errorf("validation fields = %v, want buyerName, mobileNo, idProofType", vErr.Fields)
	}
}

func TestVehicleUpdateSoldGuard(t *testing.T) {
	svc, _, _ := newVehicleService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, intakeInput())
	_, err := svc.Sell(ctx, SellVehicleInput{
		VehicleID: created.ID,
		BuyerName: "Suresh Kumar",
		MobileNo:  "9123456789",
		UpdatedBy: 2,
	})
	if err != nil {
		t.Fatalf("Sell() error = %v", err)
	}

	newName := "Bajaj Chetak"

	// Plain edit on a sold vehicle is rejected.
	_, err = svc.Update(ctx, UpdateVehicleInput{ID: created.ID, VehicleName: &newName, UpdatedBy: 2})
	if !errors.Is(err, domain.ErrVehicleSoldLocked) {
		t.Fatalf("Update() error = %v, want ErrVehicleSoldLocked", err)
	}

	// Explicit status=in unlocks the edit and clears the sale.
	statusIn := "in"
	updated, err := svc.Update(ctx, UpdateVehicleInput{
		ID:          created.ID,
		VehicleName: &newName,
		Status:      &statusIn,
		UpdatedBy:   2,
	})
	if err != nil {
		t.Fatalf("Update() with status=in error = %v", err)
	}
	if updated.Status != domain.StatusIn {
		t.Errorf("Status = %q, want in", updated.Status)
	}
	if updated.Buyer != nil || updated.OutDate != nil {
		t.Error("buyer sub-record not cleared on return to inventory")
	}
	if updated.VehicleName != newName {
		t.Errorf("VehicleName = %q, want %q", updated.VehicleName, newName)
	}
}

func TestVehicleUpdateUniquenessRecheck(t *testing.T) {
	svc, _, _ := newVehicleService()
	ctx := context.Background()

	first, _ := svc.Create(ctx, intakeInput())

	second := intakeInput()
	second.VehicleNumber = "MH14XX9999"
	second.ChassisNo = "CH-OTHER"
	second.EngineNo = "EN-OTHER"
	other, _ := svc.Create(ctx, second)

	// Changing the plate to an existing one must conflict.
	taken := first.VehicleNumber
	_, err := svc.Update(ctx, UpdateVehicleInput{ID: other.ID, VehicleNumber: &taken, UpdatedBy: 1})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Update() error = %v, want ConflictError", err)
	}
	if conflict.Field != string(repository.FieldVehicleNumber) {
		t.Errorf("conflict field = %q, want vehicleNumber", conflict.Field)
	}

	// Keeping its own value is fine.
	own := other.VehicleNumber
	if _, err := svc.Update(ctx, UpdateVehicleInput{ID: other.ID, VehicleNumber: &own, UpdatedBy: 1}); err != nil {
		t.Errorf("Update() with own value error = %v", err)
	}
}

func TestVehicleUpdatePhotoCapacity(t *testing.T) {
	svc, _, _ := newVehicleService()
	ctx := context.Background()

	input := intakeInput()
	for i := 0; i < 5; i++ {
		input.Photos = append(input.Photos, upload("p.jpg"))
	}
	created, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Room for exactly one more.
	updated, err := svc.Update(ctx, UpdateVehicleInput{
		ID:        created.ID,
		NewPhotos: []storage.Upload{upload("extra.jpg")},
		UpdatedBy: 1,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(updated.Photos) != 6 {
		t.Errorf("photos = %d, want 6", len(updated.Photos))
	}

	_, err = svc.Update(ctx, UpdateVehicleInput{
		ID:        created.ID,
		NewPhotos: []storage.Upload{upload("overflow.jpg")},
		UpdatedBy: 1,
	})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("Update() past capacity error = %v, want ValidationError", err)
	}
}

func TestVehicleDeleteRemovesFiles(t *testing.T) {
	svc, _, files := newVehicleService()
	ctx := context.Background()

	input := intakeInput()
	input.Photos = append(input.Photos, upload("a.jpg"), upload("b.jpg"))
	created, _ := svc.Create(ctx, input)

	photo := upload("buyer.jpg")
	if _, err := svc.Sell(ctx, SellVehicleInput{
		VehicleID: created.ID,
		BuyerName: "Suresh",
		MobileNo:  "9123456789",
		Photo:     &photo,
		UpdatedBy: 1,
	}); err != nil {
		t.Fatalf("Sell() error = %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if len(files.deleted) != 3 {
		t.Errorf("deleted files = %d, want 3 (2 photos + buyer photo)", len(files.deleted))
	}

	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, domain.ErrVehicleNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrVehicleNotFound", err)
	}
}

func TestVehicleRemovePhoto(t *testing.T) {
	svc, _, files := newVehicleService()
	ctx := context.Background()

	input := intakeInput()
	input.Photos = append(input.Photos, upload("a.jpg"))
	created, _ := svc.Create(ctx, input)
	photoID := created.Photos[0].ID

	if err := svc.RemovePhoto(ctx, created.ID, photoID, 3); err != nil {
		t.Fatalf("RemovePhoto() error = %v", err)
	}
	if len(files.deleted) != 1 {
		t.Errorf("deleted files = %d, want 1", len(files.deleted))
	}

	if err := svc.RemovePhoto(ctx, created.ID, photoID, 3); !errors.Is(err, domain.ErrPhotoNotFound) {
		t.Errorf("RemovePhoto() twice error = %v, want ErrPhotoNotFound", err)
	}
}

func TestVehicleDashboard(t *testing.T) {
	svc, repo, _ := newVehicleService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, intakeInput()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	second := intakeInput()
	second.VehicleNumber = "MH14XX9999"
	second.ChassisNo = "CH-OTHER"
	second.EngineNo = "EN-OTHER"
	sold, _ := svc.Create(ctx, second)
	if _, err := svc.Sell(ctx, SellVehicleInput{
		VehicleID: sold.ID,
		BuyerName: "Suresh",
		MobileNo:  "9123456789",
		UpdatedBy: 1,
	}); err != nil {
		t.Fatalf("Sell() error = %v", err)
	}

	repo.monthly = []repository.MonthlyCount{
		{Month: 3, Status: domain.StatusIn, Count: 1},
		{Month: 3, Status: domain.StatusOut, Count: 1},
	}

	stats, err := svc.Dashboard(ctx, time.Now())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if stats.TotalVehicles != 2 || stats.VehiclesIn != 1 || stats.VehiclesOut != 1 {
		t.Errorf("summary = %+v, want total 2, in 1, out 1", stats)
	}
	if len(stats.MonthlyData) != 12 {
		t.Fatalf("monthly buckets = %d, want zero-filled 12", len(stats.MonthlyData))
	}
	if stats.MonthlyData[2].VehiclesIn != 1 || stats.MonthlyData[2].VehiclesOut != 1 {
		t.Errorf("march bucket = %+v, want in 1 out 1", stats.MonthlyData[2])
	}
	if stats.MonthlyData[0].VehiclesIn != 0 {
		t.Errorf("january bucket = %+v, want zero", stats.MonthlyData[0])
	}
}
