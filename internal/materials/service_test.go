package materials

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/lowvoltmgr/lowvolt-backend/internal/ledger"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/enums"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
)

type fakeRepository struct {
	materials    map[string]*models.Material
	requirements map[string]*models.RoomRequirement // keyed tr_id|material_id
	createErr    error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		materials:    map[string]*models.Material{},
		requirements: map[string]*models.RoomRequirement{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindByID(_ context.Context, id string) (*models.Material, error) {
	if m, ok := f.materials[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByPartNumber(_ context.Context, part string) (*models.Material, error) {
	for _, m := range f.materials {
		if m.PartNumber == part {
			copied := *m
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FirstByNameLike(_ context.Context, query string) (*models.Material, error) {
	needle := strings.ToLower(query)
	for _, m := range f.materials {
		if strings.Contains(strings.ToLower(m.Name), needle) {
			copied := *m
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) List(_ context.Context) ([]models.Material, error) {
	out := make([]models.Material, 0, len(f.materials))
	for _, m := range f.materials {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeRepository) Create(_ context.Context, material *models.Material) error {
	if f.createErr != nil {
		return f.createErr
	}
	copied := *material
	f.materials[material.ID] = &copied
	return nil
}

func (f *fakeRepository) Save(_ context.Context, material *models.Material) error {
	copied := *material
	f.materials[material.ID] = &copied
	return nil
}

func (f *fakeRepository) Delete(_ context.Context, id string) error {
	delete(f.materials, id)
	return nil
}

func (f *fakeRepository) FindRequirement(_ context.Context, trID, materialID string) (*models.RoomRequirement, error) {
	if r, ok := f.requirements[trID+"|"+materialID]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) SaveRequirement(_ context.Context, requirement *models.RoomRequirement) error {
	copied := *requirement
	f.requirements[requirement.TRID+"|"+requirement.MaterialID] = &copied
	return nil
}

type fakeLedgerRepo struct {
	entries []models.LedgerEntry
}

func (f *fakeLedgerRepo) WithTx(tx *gorm.DB) ledger.Repository { return f }

func (f *fakeLedgerRepo) Create(_ context.Context, entry *models.LedgerEntry) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLedgerRepo) ListByMaterialID(_ context.Context, materialID string, limit int) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range f.entries {
		if e.MaterialID == materialID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) ListRecent(_ context.Context, limit int) ([]models.LedgerEntry, error) {
	return f.entries, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T) (Service, *fakeRepository, *fakeLedgerRepo) {
	t.Helper()
	repo := newFakeRepository()
	ledgerRepo := &fakeLedgerRepo{}
	svc, err := NewService(repo, ledgerRepo, fakeTxRunner{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, ledgerRepo
}

func seedMaterial(repo *fakeRepository, m models.Material) {
	copied := m
	repo.materials[m.ID] = &copied
}

func TestReceive_ClampsOnOrder(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seedMaterial(repo, models.Material{ID: "VM-AAAAA", Name: "Cat6 Cable", QtyOnOrder: 3, QtyAtOffice: 1})

	got, err := svc.Receive(context.Background(), ReceiveInput{
		MaterialID: "VM-AAAAA", Amount: 5, Target: enums.ReceiveTargetOffice,
	})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got.QtyOnOrder != 0 {
		t.Errorf("expected on_order clamped to 0, got %d", got.QtyOnOrder)
	}
	if got.QtyAtOffice != 6 {
		t.Errorf("expected office 6, got %d", got.QtyAtOffice)
	}
	if len(ledgerRepo.entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(ledgerRepo.entries))
	}
	entry := ledgerRepo.entries[0]
	if entry.Quantity != 5 || entry.Reason != "RECEIVED_TO_OFFICE" {
		t.Errorf("unexpected ledger entry %+v", entry)
	}
}

func TestReceive_ToSite(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seedMaterial(repo, models.Material{ID: "VM-BBBBB", Name: "Patch Panel", QtyOnOrder: 10})

	got, err := svc.Receive(context.Background(), ReceiveInput{
		MaterialID: "VM-BBBBB", Amount: 4, Target: enums.ReceiveTargetSite,
	})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got.QtyAtSite != 4 || got.QtyOnOrder != 6 {
		t.Errorf("unexpected counters %+v", got)
	}
	if ledgerRepo.entries[0].Reason != "RECEIVED_TO_SITE" {
		t.Errorf("unexpected reason %q", ledgerRepo.entries[0].Reason)
	}
}

func TestReceive_RejectsNonPositiveAmount(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Receive(context.Background(), ReceiveInput{MaterialID: "VM-AAAAA", Amount: 0, Target: enums.ReceiveTargetOffice})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendToSite_ConservesTotal(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seedMaterial(repo, models.Material{ID: "VM-CCCCC", Name: "Rack", QtyAtOffice: 8, QtyAtSite: 2})

	got, err := svc.SendToSite(context.Background(), "VM-CCCCC", 5)
	if err != nil {
		t.Fatalf("SendToSite: %v", err)
	}
	if got.QtyAtOffice != 3 || got.QtyAtSite != 7 {
		t.Errorf("unexpected counters office=%d site=%d", got.QtyAtOffice, got.QtyAtSite)
	}
	if got.QtyAtOffice+got.QtyAtSite != 10 {
		t.Errorf("office+site not conserved")
	}
	if len(ledgerRepo.entries) != 0 {
		t.Errorf("send to site must not write ledger entries, got %d", len(ledgerRepo.entries))
	}
}

func TestSendToSite_InsufficientStockLeavesCountersUntouched(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seedMaterial(repo, models.Material{ID: "VM-DDDDD", Name: "UPS", QtyAtOffice: 2, QtyAtSite: 1})

	_, err := svc.SendToSite(context.Background(), "VM-DDDDD", 3)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	m := repo.materials["VM-DDDDD"]
	if m.QtyAtOffice != 2 || m.QtyAtSite != 1 {
		t.Errorf("counters mutated on rejected send: %+v", m)
	}
	if len(ledgerRepo.entries) != 0 {
		t.Errorf("rejected send must not write ledger entries")
	}
}

func TestInstall_AgainstRoomIncrementsFulfilledUncapped(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seedMaterial(repo, models.Material{ID: "VM-EEEEE", Name: "PDU", QtyAtSite: 10, QtyBidDay: 4})
	repo.requirements["TR-1.2|VM-EEEEE"] = &models.RoomRequirement{
		TRID: "TR-1.2", MaterialID: "VM-EEEEE", QtyRequired: 2, QtyFulfilled: 1,
	}

	got, err := svc.Install(context.Background(), InstallInput{
		MaterialID: "VM-EEEEE", Amount: 6, RoomID: "tr-1.2", Actor: "Mike",
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if got.QtyAtSite != 4 {
		t.Errorf("expected site 4, got %d", got.QtyAtSite)
	}
	if got.QtyBidDay != 0 {
		t.Errorf("expected bid_day clamped to 0, got %d", got.QtyBidDay)
	}

	req := repo.requirements["TR-1.2|VM-EEEEE"]
	if req.QtyFulfilled != 7 {
		t.Errorf("expected fulfilled 7 (uncapped), got %d", req.QtyFulfilled)
	}

	if len(ledgerRepo.entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(ledgerRepo.entries))
	}
	entry := ledgerRepo.entries[0]
	if entry.Quantity != -6 || entry.Reason != "INSTALLED_TR_TR-1.2" {
		t.Errorf("unexpected ledger entry %+v", entry)
	}
}

func TestInstall_WithoutRoomRecordsFieldConsumption(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seedMaterial(repo, models.Material{ID: "VM-FFFFF", Name: "Velcro", QtyAtSite: 5, QtyBidDay: 10})

	_, err := svc.Install(context.Background(), InstallInput{MaterialID: "VM-FFFFF", Amount: 2})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if ledgerRepo.entries[0].Reason != "FIELD_CONSUMPTION" {
		t.Errorf("unexpected reason %q", ledgerRepo.entries[0].Reason)
	}
}

func TestInstall_UnlinkedRoomStillConsumes(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seedMaterial(repo, models.Material{ID: "VM-GGGGG", Name: "J-Hook", QtyAtSite: 5})

	got, err := svc.Install(context.Background(), InstallInput{MaterialID: "VM-GGGGG", Amount: 3, RoomID: "TR-9.9"})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if got.QtyAtSite != 2 {
		t.Errorf("expected site 2, got %d", got.QtyAtSite)
	}
	if ledgerRepo.entries[0].Reason != "INSTALLED_TR_TR-9.9" {
		t.Errorf("unexpected reason %q", ledgerRepo.entries[0].Reason)
	}
}

func TestInstall_InsufficientSiteStock(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seedMaterial(repo, models.Material{ID: "VM-HHHHH", Name: "Faceplate", QtyAtSite: 1})

	_, err := svc.Install(context.Background(), InstallInput{MaterialID: "VM-HHHHH", Amount: 2})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if repo.materials["VM-HHHHH"].QtyAtSite != 1 {
		t.Errorf("counters mutated on rejected install")
	}
	if len(ledgerRepo.entries) != 0 {
		t.Errorf("rejected install must not write ledger entries")
	}
}

func TestAuditCorrect_IdenticalValuesWriteNothing(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seedMaterial(repo, models.Material{ID: "VM-IIIII", Name: "Camera", QtyOnOrder: 3, QtyAtOffice: 2, QtyAtSite: 1})

	_, err := svc.AuditCorrect(context.Background(), AuditCorrectInput{
		MaterialID: "VM-IIIII", NewOnOrder: 3, NewAtOffice: 2, NewAtSite: 1, Actor: "Mike",
	})
	if err != nil {
		t.Fatalf("AuditCorrect: %v", err)
	}
	if len(ledgerRepo.entries) != 0 {
		t.Errorf("no-op audit must not write ledger entries, got %d", len(ledgerRepo.entries))
	}
}

func TestAuditCorrect_WritesZeroQuantityEntryWithDeltas(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seedMaterial(repo, models.Material{ID: "VM-JJJJJ", Name: "Switch", QtyOnOrder: 5, QtyAtOffice: 0, QtyAtSite: 1})

	got, err := svc.AuditCorrect(context.Background(), AuditCorrectInput{
		MaterialID: "VM-JJJJJ", NewOnOrder: 3, NewAtOffice: 3, NewAtSite: 1, Actor: "Mike",
	})
	if err != nil {
		t.Fatalf("AuditCorrect: %v", err)
	}
	if got.QtyOnOrder != 3 || got.QtyAtOffice != 3 || got.QtyAtSite != 1 {
		t.Errorf("counters not overwritten: %+v", got)
	}
	if len(ledgerRepo.entries) != 1 {
		t.Fatalf("expected exactly 1 ledger entry, got %d", len(ledgerRepo.entries))
	}
	entry := ledgerRepo.entries[0]
	if entry.Quantity != 0 {
		t.Errorf("audit entry quantity must be 0, got %d", entry.Quantity)
	}
	want := "AUDIT_FIX_BY_Mike (Order:-2, Office:3, Site:0)"
	if entry.Reason != want {
		t.Errorf("reason %q, want %q", entry.Reason, want)
	}
}

func TestLookup_IDThenNameFallback(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedMaterial(repo, models.Material{ID: "VM-KKKKK", Name: "Cat6A Plenum Blue"})

	got, err := svc.Lookup(context.Background(), "vm-kkkkk")
	if err != nil {
		t.Fatalf("Lookup by id: %v", err)
	}
	if got.ID != "VM-KKKKK" {
		t.Errorf("unexpected material %+v", got)
	}

	got, err = svc.Lookup(context.Background(), "plenum")
	if err != nil {
		t.Fatalf("Lookup by name: %v", err)
	}
	if got.ID != "VM-KKKKK" {
		t.Errorf("unexpected material %+v", got)
	}

	_, err = svc.Lookup(context.Background(), "nothing-matches")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreate_MintsIDAndDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	got, err := svc.Create(context.Background(), CreateInput{Name: "Ground Bar", QtyBidDay: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(got.ID, "VM-") || len(got.ID) != 8 {
		t.Errorf("unexpected minted id %q", got.ID)
	}
	if got.Category != "General" || got.Unit != "pcs" {
		t.Errorf("unexpected defaults %+v", got)
	}
}

func TestHistory_FiltersByMaterial(t *testing.T) {
	svc, repo, ledgerRepo := newTestService(t)
	seedMaterial(repo, models.Material{ID: "VM-AAAAA", Name: "Cat6 Cable", Unit: "ft"})
	seedMaterial(repo, models.Material{ID: "VM-BBBBB", Name: "Rack"})
	ledgerRepo.entries = []models.LedgerEntry{
		{MaterialID: "VM-AAAAA", Quantity: 5, Reason: "RECEIVED_TO_OFFICE"},
		{MaterialID: "VM-BBBBB", Quantity: 1, Reason: "RECEIVED_TO_SITE"},
	}

	got, err := svc.History(context.Background(), "vm-aaaaa", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 1 || got[0].MaterialID != "VM-AAAAA" || got[0].MaterialName != "Cat6 Cable" {
		t.Errorf("unexpected filtered history %+v", got)
	}

	all, err := svc.History(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected full history with empty filter, got %d entries", len(all))
	}
}

func TestCreate_DuplicateIDMapsToConflict(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.createErr = errors.New("UNIQUE constraint failed: materials.id")

	_, err := svc.Create(context.Background(), CreateInput{ID: "VM-AAAAA", Name: "Cat6 Cable"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUnknownMaterialAbortsBeforeWrites(t *testing.T) {
	svc, _, ledgerRepo := newTestService(t)

	_, err := svc.Receive(context.Background(), ReceiveInput{MaterialID: "VM-NOPE", Amount: 1, Target: enums.ReceiveTargetOffice})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(ledgerRepo.entries) != 0 {
		t.Errorf("unknown material must not write ledger entries")
	}
}
