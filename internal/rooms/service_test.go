package rooms

import (
	"context"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/lowvoltmgr/lowvolt-backend/internal/ledger"
	"github.com/lowvoltmgr/lowvolt-backend/internal/materials"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
)

type fakeRoomsRepo struct {
	rooms        map[string]*models.Room
	requirements []*models.RoomRequirement
	materials    map[string]*models.Material
}

func newFakeRoomsRepo() *fakeRoomsRepo {
	return &fakeRoomsRepo{
		rooms:     map[string]*models.Room{},
		materials: map[string]*models.Material{},
	}
}

func (f *fakeRoomsRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRoomsRepo) FindByID(_ context.Context, id string) (*models.Room, error) {
	if r, ok := f.rooms[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoomsRepo) List(_ context.Context) ([]models.Room, error) {
	out := make([]models.Room, 0, len(f.rooms))
	for _, r := range f.rooms {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRoomsRepo) Upsert(_ context.Context, room *models.Room) error {
	copied := *room
	f.rooms[room.ID] = &copied
	return nil
}

func (f *fakeRoomsRepo) Delete(_ context.Context, id string) error {
	delete(f.rooms, id)
	kept := f.requirements[:0]
	for _, req := range f.requirements {
		if req.TRID != id {
			kept = append(kept, req)
		}
	}
	f.requirements = kept
	return nil
}

func (f *fakeRoomsRepo) DeleteAllRequirements(_ context.Context) (int64, error) {
	n := int64(len(f.requirements))
	f.requirements = nil
	return n, nil
}

func (f *fakeRoomsRepo) DeleteAllRooms(_ context.Context) (int64, error) {
	n := int64(len(f.rooms))
	f.rooms = map[string]*models.Room{}
	return n, nil
}

func (f *fakeRoomsRepo) ListRequirements(_ context.Context, trID string) ([]models.RoomRequirement, error) {
	var out []models.RoomRequirement
	for _, req := range f.requirements {
		if req.TRID != trID {
			continue
		}
		copied := *req
		if m, ok := f.materials[req.MaterialID]; ok {
			material := *m
			copied.Material = &material
		}
		out = append(out, copied)
	}
	return out, nil
}

func (f *fakeRoomsRepo) ListAllRequirements(_ context.Context) ([]models.RoomRequirement, error) {
	var out []models.RoomRequirement
	for _, req := range f.requirements {
		copied := *req
		if m, ok := f.materials[req.MaterialID]; ok {
			material := *m
			copied.Material = &material
		}
		out = append(out, copied)
	}
	return out, nil
}

func (f *fakeRoomsRepo) UpsertRequirement(_ context.Context, requirement *models.RoomRequirement) error {
	for _, req := range f.requirements {
		if req.TRID == requirement.TRID && req.MaterialID == requirement.MaterialID {
			req.QtyRequired = requirement.QtyRequired
			return nil
		}
	}
	copied := *requirement
	f.requirements = append(f.requirements, &copied)
	return nil
}

func (f *fakeRoomsRepo) SaveRequirement(_ context.Context, requirement *models.RoomRequirement) error {
	for _, req := range f.requirements {
		if req.TRID == requirement.TRID && req.MaterialID == requirement.MaterialID {
			req.QtyRequired = requirement.QtyRequired
			req.QtyFulfilled = requirement.QtyFulfilled
			return nil
		}
	}
	copied := *requirement
	f.requirements = append(f.requirements, &copied)
	return nil
}

// fakeMaterialsRepo implements the slice of materials.Repository the
// rooms service touches; the rest panics to catch unexpected calls.
type fakeMaterialsRepo struct {
	store *fakeRoomsRepo
}

func (f *fakeMaterialsRepo) WithTx(tx *gorm.DB) materials.Repository { return f }

func (f *fakeMaterialsRepo) FindByID(_ context.Context, id string) (*models.Material, error) {
	if m, ok := f.store.materials[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMaterialsRepo) FindByPartNumber(context.Context, string) (*models.Material, error) {
	panic("not used")
}

func (f *fakeMaterialsRepo) FirstByNameLike(context.Context, string) (*models.Material, error) {
	panic("not used")
}

func (f *fakeMaterialsRepo) List(context.Context) ([]models.Material, error) {
	panic("not used")
}

func (f *fakeMaterialsRepo) Create(context.Context, *models.Material) error {
	panic("not used")
}

func (f *fakeMaterialsRepo) Save(_ context.Context, material *models.Material) error {
	copied := *material
	f.store.materials[material.ID] = &copied
	return nil
}

func (f *fakeMaterialsRepo) Delete(context.Context, string) error { panic("not used") }

func (f *fakeMaterialsRepo) FindRequirement(context.Context, string, string) (*models.RoomRequirement, error) {
	panic("not used")
}

func (f *fakeMaterialsRepo) SaveRequirement(context.Context, *models.RoomRequirement) error {
	panic("not used")
}

type fakeLedgerRepo struct {
	entries []models.LedgerEntry
}

func (f *fakeLedgerRepo) WithTx(tx *gorm.DB) ledger.Repository { return f }

func (f *fakeLedgerRepo) Create(_ context.Context, entry *models.LedgerEntry) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLedgerRepo) ListByMaterialID(context.Context, string, int) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (f *fakeLedgerRepo) ListRecent(context.Context, int) ([]models.LedgerEntry, error) {
	return nil, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T) (Service, *fakeRoomsRepo, *fakeLedgerRepo) {
	t.Helper()
	repo := newFakeRoomsRepo()
	ledgerRepo := &fakeLedgerRepo{}
	svc, err := NewService(repo, &fakeMaterialsRepo{store: repo}, ledgerRepo, fakeTxRunner{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, ledgerRepo
}

func seed(repo *fakeRoomsRepo, room models.Room, material models.Material, required, fulfilled int) {
	r := room
	repo.rooms[room.ID] = &r
	m := material
	repo.materials[material.ID] = &m
	repo.requirements = append(repo.requirements, &models.RoomRequirement{
		TRID: room.ID, MaterialID: material.ID, QtyRequired: required, QtyFulfilled: fulfilled,
	})
}

func TestCreate_RequiresIDAndBuilding(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{ID: "", BuildingNumber: "B1"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Create(context.Background(), CreateInput{ID: "tr-1.2", BuildingNumber: ""})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	got, err := svc.Create(context.Background(), CreateInput{ID: " tr-1.2 ", BuildingNumber: "B1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != "TR-1.2" {
		t.Errorf("expected normalized id TR-1.2, got %q", got.ID)
	}
}

func TestQuickDeploy_AllOrNothingValidation(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seed(repo, models.Room{ID: "TR-1.2", BuildingNumber: "B1"},
		models.Material{ID: "VM-AAAAA", Name: "Rack", QtyAtSite: 3}, 5, 0)
	seed(repo, models.Room{ID: "TR-1.2", BuildingNumber: "B1"},
		models.Material{ID: "VM-BBBBB", Name: "PDU", QtyAtSite: 10}, 2, 0)

	_, err := svc.QuickDeploy(context.Background(), "TR-1.2", "Mike")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if !strings.Contains(appErr.Message(), "Rack") {
		t.Errorf("error should name the short material, got %q", appErr.Message())
	}

	if repo.materials["VM-BBBBB"].QtyAtSite != 10 {
		t.Errorf("fulfillable line mutated despite failed validation")
	}
	for _, req := range repo.requirements {
		if req.QtyFulfilled != 0 {
			t.Errorf("requirement mutated despite failed validation: %+v", req)
		}
	}
	if len(ledgerRepo.entries) != 0 {
		t.Errorf("failed validation must not write ledger entries")
	}
}

func TestQuickDeploy_Success(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seed(repo, models.Room{ID: "TR-1.2", BuildingNumber: "B1"},
		models.Material{ID: "VM-CCCCC", Name: "UPS", QtyAtSite: 5}, 3, 1)

	got, err := svc.QuickDeploy(context.Background(), "TR-1.2", "Mike")
	if err != nil {
		t.Fatalf("QuickDeploy: %v", err)
	}
	if got.LinesDeployed != 1 || got.UnitsDrawn != 2 {
		t.Errorf("unexpected result %+v", got)
	}
	if repo.materials["VM-CCCCC"].QtyAtSite != 3 {
		t.Errorf("expected site 3, got %d", repo.materials["VM-CCCCC"].QtyAtSite)
	}
	if repo.requirements[0].QtyFulfilled != 3 {
		t.Errorf("expected fulfilled set to required, got %d", repo.requirements[0].QtyFulfilled)
	}
	if len(ledgerRepo.entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(ledgerRepo.entries))
	}
	entry := ledgerRepo.entries[0]
	if entry.Quantity != -2 || entry.Reason != "QUICK_DEPLOY_TR-1.2_Mike" {
		t.Errorf("unexpected ledger entry %+v", entry)
	}
}

func TestQuickDeploy_SkipsCompleteLines(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seed(repo, models.Room{ID: "TR-2.1", BuildingNumber: "B2"},
		models.Material{ID: "VM-DDDDD", Name: "Panel", QtyAtSite: 0}, 2, 2)

	got, err := svc.QuickDeploy(context.Background(), "TR-2.1", "Mike")
	if err != nil {
		t.Fatalf("QuickDeploy: %v", err)
	}
	if got.LinesDeployed != 0 || got.UnitsDrawn != 0 {
		t.Errorf("complete lines must be skipped, got %+v", got)
	}
	if len(ledgerRepo.entries) != 0 {
		t.Errorf("no draw expected for complete room")
	}
}

func TestFulfillmentView_StatusesAndUnlinked(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seed(repo, models.Room{ID: "TR-3.1", BuildingNumber: "B3"},
		models.Material{ID: "VM-EEEEE", Name: "Rack", QtyAtSite: 9}, 4, 4)
	repo.requirements = append(repo.requirements,
		&models.RoomRequirement{TRID: "TR-3.1", MaterialID: "VM-FFFFF", QtyRequired: 2},
		&models.RoomRequirement{TRID: "TR-3.1", MaterialID: "VM-EEEEE2", QtyRequired: 1})
	repo.materials["VM-FFFFF"] = &models.Material{ID: "VM-FFFFF", Name: "PDU", QtyAtSite: 5}

	detail, err := svc.RoomDetail(context.Background(), "tr-3.1")
	if err != nil {
		t.Fatalf("RoomDetail: %v", err)
	}
	statuses := map[string]string{}
	names := map[string]string{}
	for _, item := range detail.Items {
		statuses[item.MaterialID] = item.Status
		names[item.MaterialID] = item.MaterialName
	}
	if statuses["VM-EEEEE"] != StatusComplete {
		t.Errorf("expected COMPLETE, got %q", statuses["VM-EEEEE"])
	}
	if statuses["VM-FFFFF"] != StatusReady {
		t.Errorf("expected READY, got %q", statuses["VM-FFFFF"])
	}
	if statuses["VM-EEEEE2"] != StatusNoStock {
		t.Errorf("expected NO_STOCK for unlinked, got %q", statuses["VM-EEEEE2"])
	}
	if names["VM-EEEEE2"] != "Unlinked Item (VM-EEEEE2)" {
		t.Errorf("unexpected unlinked name %q", names["VM-EEEEE2"])
	}
}

func TestWipeAll_ReturnsCounts(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seed(repo, models.Room{ID: "TR-4.1", BuildingNumber: "B4"},
		models.Material{ID: "VM-GGGGG", Name: "UPS", QtyAtSite: 1}, 1, 0)
	seed(repo, models.Room{ID: "TR-4.2", BuildingNumber: "B4"},
		models.Material{ID: "VM-HHHHH", Name: "PDU", QtyAtSite: 1}, 1, 0)

	got, err := svc.WipeAll(context.Background())
	if err != nil {
		t.Fatalf("WipeAll: %v", err)
	}
	if got.RoomsDeleted != 2 || got.RequirementsDeleted != 2 {
		t.Errorf("unexpected wipe counts %+v", got)
	}
	if len(repo.rooms) != 0 || len(repo.requirements) != 0 {
		t.Errorf("wipe left rows behind")
	}
}

func TestExportCSV(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.rooms["TR-5.1"] = &models.Room{ID: "TR-5.1", BuildingNumber: "B5"}

	data, err := svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "TR,Building\n") {
		t.Errorf("unexpected header in %q", text)
	}
	if !strings.Contains(text, "TR-5.1,B5") {
		t.Errorf("missing room row in %q", text)
	}
}
