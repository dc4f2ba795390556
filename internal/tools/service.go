package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lowvoltmgr/lowvolt-backend/pkg/db"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/enums"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
)

const (
	defaultLogLimit       = 50
	defaultSweepLocation  = "Site Container"
	defaultCheckoutPlace  = "Field"
	auditSweepDefaultUser = "Admin"
)

// Service exposes the tool status state machine. Standard transitions
// enforce legality; only ForceStatus may move a tool between arbitrary
// statuses. Every committed transition appends exactly one log row in
// the same transaction.
type Service interface {
	Lookup(ctx context.Context, query string) (*ToolDTO, error)
	List(ctx context.Context, filter string) ([]ToolDTO, error)
	Create(ctx context.Context, input CreateInput) (*ToolDTO, error)
	Delete(ctx context.Context, id string) error
	Checkout(ctx context.Context, input TransitionInput) (*ToolDTO, error)
	Checkin(ctx context.Context, input TransitionInput) (*ToolDTO, error)
	ReportBroken(ctx context.Context, input TransitionInput) (*ToolDTO, error)
	RepairComplete(ctx context.Context, input TransitionInput) (*ToolDTO, error)
	ForceStatus(ctx context.Context, input ForceStatusInput) (*ToolDTO, error)
	History(ctx context.Context, limit int) ([]LogDTO, error)
	AuditSweep(ctx context.Context, input AuditSweepInput) (*AuditSweepResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a tools service with its repository.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tools repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Lookup(ctx context.Context, query string) (*ToolDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is required")
	}

	if id, err := uuid.Parse(query); err == nil {
		tool, err := s.repo.FindByID(ctx, id)
		if err == nil {
			return toDTO(tool), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tool by id")
		}
	}

	tool, err := s.repo.FindByQRCode(ctx, query)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tool not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tool by qr code")
	}
	return toDTO(tool), nil
}

func (s *service) List(ctx context.Context, filter string) ([]ToolDTO, error) {
	var status *enums.ToolStatus
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", "all":
	case "available":
		v := enums.ToolStatusAvailable
		status = &v
	case "out":
		v := enums.ToolStatusCheckedOut
		status = &v
	case "broken":
		v := enums.ToolStatusMaintenance
		status = &v
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid filter %q", filter))
	}

	rows, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tools")
	}
	out := make([]ToolDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ToolDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	tool := &models.Tool{
		ID:     uuid.New(),
		Name:   name,
		Brand:  strings.TrimSpace(input.Brand),
		QRCode: strings.TrimSpace(input.QRCode),
		Status: enums.ToolStatusAvailable,
	}
	if tool.QRCode == "" {
		tool.QRCode = tool.ID.String()
	}
	if err := s.repo.Create(ctx, tool); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("qr code %s already assigned", tool.QRCode))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert tool")
	}
	return toDTO(tool), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	tool, err := s.findTool(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tool.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete tool")
	}
	return nil
}

func (s *service) Checkout(ctx context.Context, input TransitionInput) (*ToolDTO, error) {
	location := strings.TrimSpace(input.Location)
	if location == "" {
		location = defaultCheckoutPlace
	}
	return s.transition(ctx, input.ToolID, input.User, transitionRule{
		from:     []enums.ToolStatus{enums.ToolStatusAvailable},
		to:       enums.ToolStatusCheckedOut,
		action:   enums.ToolActionCheckOut,
		location: location,
		note:     input.Note,
	})
}

func (s *service) Checkin(ctx context.Context, input TransitionInput) (*ToolDTO, error) {
	return s.transition(ctx, input.ToolID, input.User, transitionRule{
		from:     []enums.ToolStatus{enums.ToolStatusCheckedOut},
		to:       enums.ToolStatusAvailable,
		action:   enums.ToolActionReturn,
		location: defaultSweepLocation,
		note:     input.Note,
	})
}

func (s *service) ReportBroken(ctx context.Context, input TransitionInput) (*ToolDTO, error) {
	return s.transition(ctx, input.ToolID, input.User, transitionRule{
		from:     []enums.ToolStatus{enums.ToolStatusAvailable, enums.ToolStatusCheckedOut},
		to:       enums.ToolStatusMaintenance,
		action:   enums.ToolActionFlagBroken,
		location: strings.TrimSpace(input.Location),
		note:     input.Note,
	})
}

func (s *service) RepairComplete(ctx context.Context, input TransitionInput) (*ToolDTO, error) {
	return s.transition(ctx, input.ToolID, input.User, transitionRule{
		from:     []enums.ToolStatus{enums.ToolStatusMaintenance},
		to:       enums.ToolStatusAvailable,
		action:   enums.ToolActionRepairComplete,
		location: defaultSweepLocation,
		note:     input.Note,
	})
}

// ForceStatus bypasses the legality table. The acting user is recorded
// with an (Admin) suffix so forced moves are visible in the log.
func (s *service) ForceStatus(ctx context.Context, input ForceStatusInput) (*ToolDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid tool status %q", input.Status))
	}
	user := strings.TrimSpace(input.User)
	if user == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is required")
	}

	var result *models.Tool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		tool, err := s.findTool(ctx, repo, input.ToolID)
		if err != nil {
			return err
		}

		tool.Status = input.Status
		if err := repo.Save(ctx, tool); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update tool")
		}

		log := &models.ToolLog{
			ToolID:     &tool.ID,
			ActionType: enums.AdminForceAction(input.Status),
			UserName:   fmt.Sprintf("%s (Admin)", user),
			Note:       input.Note,
		}
		if err := repo.CreateLog(ctx, log); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append tool log")
		}
		result = tool
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDTO(result), nil
}

func (s *service) History(ctx context.Context, limit int) ([]LogDTO, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	logs, err := s.repo.ListLogs(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tool logs")
	}
	out := make([]LogDTO, 0, len(logs))
	for i := range logs {
		out = append(out, toLogDTO(&logs[i]))
	}
	return out, nil
}

// AuditSweep reconciles a physical container check against the roster.
// Tools in maintenance are not expected in the container, so they do
// not count as missing. The sweep writes a single summary log row with
// no tool id.
func (s *service) AuditSweep(ctx context.Context, input AuditSweepInput) (*AuditSweepResult, error) {
	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		actor = auditSweepDefaultUser
	}
	location := strings.TrimSpace(input.Location)
	if location == "" {
		location = defaultSweepLocation
	}

	rows, err := s.repo.List(ctx, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tools")
	}

	found := make(map[string]bool, len(input.FoundIDs))
	for _, id := range input.FoundIDs {
		found[strings.TrimSpace(id)] = true
	}

	expected := 0
	foundCount := 0
	var missing []string
	for _, tool := range rows {
		if tool.Status == enums.ToolStatusMaintenance {
			continue
		}
		expected++
		if found[tool.ID.String()] || found[tool.QRCode] {
			foundCount++
			continue
		}
		missing = append(missing, tool.Name)
	}
	sort.Strings(missing)

	missingText := "None"
	if len(missing) > 0 {
		missingText = strings.Join(missing, ", ")
	}
	note := fmt.Sprintf("Audit Complete. Found %d/%d. Missing: %s", foundCount, expected, missingText)

	log := &models.ToolLog{
		ToolID:     nil,
		ActionType: enums.ToolActionAudit,
		UserName:   actor,
		Location:   location,
		Note:       note,
	}
	if err := s.repo.CreateLog(ctx, log); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append audit log")
	}

	return &AuditSweepResult{
		Expected: expected,
		Found:    foundCount,
		Missing:  missing,
		Note:     note,
	}, nil
}

type transitionRule struct {
	from     []enums.ToolStatus
	to       enums.ToolStatus
	action   enums.ToolAction
	location string
	note     string
}

func (s *service) transition(ctx context.Context, toolID, user string, rule transitionRule) (*ToolDTO, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is required")
	}

	var result *models.Tool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		tool, err := s.findTool(ctx, repo, toolID)
		if err != nil {
			return err
		}

		legal := false
		for _, from := range rule.from {
			if tool.Status == from {
				legal = true
				break
			}
		}
		if !legal {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("tool is %s, cannot %s", tool.Status, rule.action))
		}

		tool.Status = rule.to
		if err := repo.Save(ctx, tool); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update tool")
		}

		log := &models.ToolLog{
			ToolID:     &tool.ID,
			ActionType: rule.action,
			UserName:   user,
			Location:   rule.location,
			Note:       rule.note,
		}
		if err := repo.CreateLog(ctx, log); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append tool log")
		}
		result = tool
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDTO(result), nil
}

func (s *service) findTool(ctx context.Context, repo Repository, rawID string) (*models.Tool, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tool id is required")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tool id")
	}
	tool, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tool not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tool")
	}
	return tool, nil
}
