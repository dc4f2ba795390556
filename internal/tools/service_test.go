package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/enums"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
)

type fakeRepository struct {
	tools     map[uuid.UUID]*models.Tool
	logs      []models.ToolLog
	createErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{tools: map[uuid.UUID]*models.Tool{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Tool, error) {
	if t, ok := f.tools[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByQRCode(_ context.Context, code string) (*models.Tool, error) {
	for _, t := range f.tools {
		if t.QRCode == code {
			copied := *t
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) List(_ context.Context, status *enums.ToolStatus) ([]models.Tool, error) {
	var out []models.Tool
	for _, t := range f.tools {
		if status == nil || t.Status == *status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepository) Create(_ context.Context, tool *models.Tool) error {
	if f.createErr != nil {
		return f.createErr
	}
	copied := *tool
	f.tools[tool.ID] = &copied
	return nil
}

func (f *fakeRepository) Save(_ context.Context, tool *models.Tool) error {
	copied := *tool
	f.tools[tool.ID] = &copied
	return nil
}

func (f *fakeRepository) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.tools, id)
	return nil
}

func (f *fakeRepository) CountByStatus(_ context.Context, status enums.ToolStatus) (int64, error) {
	var n int64
	for _, t := range f.tools {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepository) CreateLog(_ context.Context, log *models.ToolLog) error {
	f.logs = append(f.logs, *log)
	return nil
}

func (f *fakeRepository) ListLogs(_ context.Context, limit int) ([]models.ToolLog, error) {
	return f.logs, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T) (Service, *fakeRepository) {
	t.Helper()
	repo := newFakeRepository()
	svc, err := NewService(repo, fakeTxRunner{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func seedTool(repo *fakeRepository, name string, status enums.ToolStatus) uuid.UUID {
	id := uuid.New()
	repo.tools[id] = &models.Tool{ID: id, Name: name, QRCode: id.String(), Status: status}
	return id
}

func TestCheckout_OnlyFromAvailable(t *testing.T) {
	svc, repo := newTestService(t)
	id := seedTool(repo, "Hammer Drill", enums.ToolStatusAvailable)

	got, err := svc.Checkout(context.Background(), TransitionInput{ToolID: id.String(), User: "Mike"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if got.Status != enums.ToolStatusCheckedOut {
		t.Errorf("expected checked_out, got %s", got.Status)
	}
	if len(repo.logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(repo.logs))
	}
	log := repo.logs[0]
	if log.ActionType != enums.ToolActionCheckOut || log.UserName != "Mike" || log.Location != "Field" {
		t.Errorf("unexpected log %+v", log)
	}

	// already out: second checkout must fail without a log
	_, err = svc.Checkout(context.Background(), TransitionInput{ToolID: id.String(), User: "Raul"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(repo.logs) != 1 {
		t.Errorf("illegal transition must not log, got %d logs", len(repo.logs))
	}
}

func TestMaintenanceUnreachableToCheckedOutWithoutForce(t *testing.T) {
	svc, repo := newTestService(t)
	id := seedTool(repo, "Bander", enums.ToolStatusMaintenance)

	if _, err := svc.Checkout(context.Background(), TransitionInput{ToolID: id.String(), User: "Mike"}); err == nil {
		t.Fatal("checkout from maintenance must fail")
	}
	if _, err := svc.Checkin(context.Background(), TransitionInput{ToolID: id.String(), User: "Mike"}); err == nil {
		t.Fatal("checkin from maintenance must fail")
	}
	if repo.tools[id].Status != enums.ToolStatusMaintenance {
		t.Errorf("status mutated by rejected transitions")
	}

	got, err := svc.ForceStatus(context.Background(), ForceStatusInput{
		ToolID: id.String(), Status: enums.ToolStatusCheckedOut, User: "Dana",
	})
	if err != nil {
		t.Fatalf("ForceStatus: %v", err)
	}
	if got.Status != enums.ToolStatusCheckedOut {
		t.Errorf("expected checked_out, got %s", got.Status)
	}
	log := repo.logs[len(repo.logs)-1]
	if log.ActionType != "ADMIN_FORCE_CHECKED_OUT" {
		t.Errorf("unexpected action %q", log.ActionType)
	}
	if log.UserName != "Dana (Admin)" {
		t.Errorf("unexpected user %q", log.UserName)
	}
}

func TestReportBroken_FromAvailableOrCheckedOut(t *testing.T) {
	svc, repo := newTestService(t)
	out := seedTool(repo, "Tone Probe", enums.ToolStatusCheckedOut)

	got, err := svc.ReportBroken(context.Background(), TransitionInput{ToolID: out.String(), User: "Mike", Note: "no tone"})
	if err != nil {
		t.Fatalf("ReportBroken: %v", err)
	}
	if got.Status != enums.ToolStatusMaintenance {
		t.Errorf("expected maintenance, got %s", got.Status)
	}

	// already broken: flagging again is illegal
	_, err = svc.ReportBroken(context.Background(), TransitionInput{ToolID: out.String(), User: "Mike"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRepairComplete_OnlyFromMaintenance(t *testing.T) {
	svc, repo := newTestService(t)
	broken := seedTool(repo, "Crimper", enums.ToolStatusMaintenance)
	fine := seedTool(repo, "Snips", enums.ToolStatusAvailable)

	got, err := svc.RepairComplete(context.Background(), TransitionInput{ToolID: broken.String(), User: "Dana"})
	if err != nil {
		t.Fatalf("RepairComplete: %v", err)
	}
	if got.Status != enums.ToolStatusAvailable {
		t.Errorf("expected available, got %s", got.Status)
	}

	_, err = svc.RepairComplete(context.Background(), TransitionInput{ToolID: fine.String(), User: "Dana"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestTransition_UnknownToolNoLog(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Checkout(context.Background(), TransitionInput{ToolID: uuid.NewString(), User: "Mike"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(repo.logs) != 0 {
		t.Errorf("unknown tool must not log")
	}
}

func TestAuditSweep_IgnoresMaintenanceAndLogsSummary(t *testing.T) {
	svc, repo := newTestService(t)
	present := seedTool(repo, "Drill", enums.ToolStatusAvailable)
	seedTool(repo, "Ladder", enums.ToolStatusCheckedOut)
	seedTool(repo, "Fish Tape", enums.ToolStatusMaintenance)

	got, err := svc.AuditSweep(context.Background(), AuditSweepInput{
		FoundIDs: []string{present.String()},
	})
	if err != nil {
		t.Fatalf("AuditSweep: %v", err)
	}
	if got.Expected != 2 || got.Found != 1 {
		t.Errorf("unexpected counts %+v", got)
	}
	if len(got.Missing) != 1 || got.Missing[0] != "Ladder" {
		t.Errorf("unexpected missing %v", got.Missing)
	}
	if got.Note != "Audit Complete. Found 1/2. Missing: Ladder" {
		t.Errorf("unexpected note %q", got.Note)
	}

	if len(repo.logs) != 1 {
		t.Fatalf("expected 1 summary log, got %d", len(repo.logs))
	}
	log := repo.logs[0]
	if log.ToolID != nil {
		t.Errorf("summary log must have no tool id")
	}
	if log.ActionType != enums.ToolActionAudit || log.UserName != "Admin" || log.Location != "Site Container" {
		t.Errorf("unexpected log %+v", log)
	}
}

func TestAuditSweep_AllFound(t *testing.T) {
	svc, repo := newTestService(t)
	a := seedTool(repo, "Drill", enums.ToolStatusAvailable)
	b := seedTool(repo, "Ladder", enums.ToolStatusAvailable)

	got, err := svc.AuditSweep(context.Background(), AuditSweepInput{
		FoundIDs: []string{a.String(), b.String()}, Actor: "Dana",
	})
	if err != nil {
		t.Fatalf("AuditSweep: %v", err)
	}
	if !strings.HasSuffix(got.Note, "Missing: None") {
		t.Errorf("unexpected note %q", got.Note)
	}
	if repo.logs[0].UserName != "Dana" {
		t.Errorf("actor not recorded, got %q", repo.logs[0].UserName)
	}
}

func TestLookup_ByQRCodeFallback(t *testing.T) {
	svc, repo := newTestService(t)
	id := uuid.New()
	repo.tools[id] = &models.Tool{ID: id, Name: "Labeler", QRCode: "TOOL-77", Status: enums.ToolStatusAvailable}

	got, err := svc.Lookup(context.Background(), "TOOL-77")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.ID != id {
		t.Errorf("unexpected tool %+v", got)
	}

	_, err = svc.Lookup(context.Background(), "TOOL-78")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreate_DuplicateQRCodeMapsToConflict(t *testing.T) {
	svc, repo := newTestService(t)
	repo.createErr = errors.New("UNIQUE constraint failed: tools.qr_code")

	_, err := svc.Create(context.Background(), CreateInput{Name: "Labeler", QRCode: "TOOL-77"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}
