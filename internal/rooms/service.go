package rooms

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/lowvoltmgr/lowvolt-backend/internal/ledger"
	"github.com/lowvoltmgr/lowvolt-backend/internal/materials"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
)

// Service exposes room and fulfillment operations. QuickDeploy validates
// the whole room up front but executes line by line; an execution fault
// leaves earlier lines committed, which is reported as a CONFLICT with
// per-line counts rather than silently rolled back.
type Service interface {
	List(ctx context.Context) ([]RoomDTO, error)
	Create(ctx context.Context, input CreateInput) (*RoomDTO, error)
	Delete(ctx context.Context, id string) error
	WipeAll(ctx context.Context) (*WipeResult, error)
	FulfillmentView(ctx context.Context) ([]RoomFulfillment, error)
	RoomDetail(ctx context.Context, trID string) (*RoomFulfillment, error)
	QuickDeploy(ctx context.Context, trID, actor string) (*QuickDeployResult, error)
	ExportCSV(ctx context.Context) ([]byte, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo         Repository
	materialRepo materials.Repository
	ledgerRepo   ledger.Repository
	tx           txRunner
}

// NewService wires a rooms service with its repositories.
func NewService(repo Repository, materialRepo materials.Repository, ledgerRepo ledger.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rooms repository required")
	}
	if materialRepo == nil {
		return nil, fmt.Errorf("materials repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, materialRepo: materialRepo, ledgerRepo: ledgerRepo, tx: tx}, nil
}

func (s *service) List(ctx context.Context) ([]RoomDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rooms")
	}
	out := make([]RoomDTO, 0, len(rows))
	for _, room := range rows {
		out = append(out, RoomDTO{ID: room.ID, BuildingNumber: room.BuildingNumber})
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*RoomDTO, error) {
	id := strings.ToUpper(strings.TrimSpace(input.ID))
	building := strings.TrimSpace(input.BuildingNumber)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room id is required")
	}
	if building == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "building number is required")
	}

	room := &models.Room{ID: id, BuildingNumber: building}
	if err := s.repo.Upsert(ctx, room); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert room")
	}
	return &RoomDTO{ID: room.ID, BuildingNumber: room.BuildingNumber}, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := s.findRoom(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete room")
	}
	return nil
}

func (s *service) WipeAll(ctx context.Context) (*WipeResult, error) {
	var result WipeResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		requirements, err := repo.DeleteAllRequirements(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: wipe requirements")
		}
		rooms, err := repo.DeleteAllRooms(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: wipe rooms")
		}
		result = WipeResult{RequirementsDeleted: requirements, RoomsDeleted: rooms}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) FulfillmentView(ctx context.Context) ([]RoomFulfillment, error) {
	roomRows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rooms")
	}
	requirementRows, err := s.repo.ListAllRequirements(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requirements")
	}

	itemsByRoom := make(map[string][]FulfillmentItem, len(roomRows))
	for i := range requirementRows {
		req := &requirementRows[i]
		itemsByRoom[req.TRID] = append(itemsByRoom[req.TRID], buildItem(req))
	}

	out := make([]RoomFulfillment, 0, len(roomRows))
	for _, room := range roomRows {
		out = append(out, RoomFulfillment{
			RoomID:         room.ID,
			BuildingNumber: room.BuildingNumber,
			Items:          itemsByRoom[room.ID],
		})
	}
	return out, nil
}

func (s *service) RoomDetail(ctx context.Context, trID string) (*RoomFulfillment, error) {
	room, err := s.findRoom(ctx, trID)
	if err != nil {
		return nil, err
	}
	requirements, err := s.repo.ListRequirements(ctx, room.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requirements")
	}

	items := make([]FulfillmentItem, 0, len(requirements))
	for i := range requirements {
		items = append(items, buildItem(&requirements[i]))
	}
	return &RoomFulfillment{
		RoomID:         room.ID,
		BuildingNumber: room.BuildingNumber,
		Items:          items,
	}, nil
}

// QuickDeploy installs every outstanding requirement line of a room in
// one action. Validation covers all lines before anything moves; the
// first short line rejects the whole room so a half-stocked room never
// deploys partially by design. Execution then runs one transaction per
// line in order.
func (s *service) QuickDeploy(ctx context.Context, trID, actor string) (*QuickDeployResult, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	room, err := s.findRoom(ctx, trID)
	if err != nil {
		return nil, err
	}

	requirements, err := s.repo.ListRequirements(ctx, room.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requirements")
	}

	type line struct {
		requirement models.RoomRequirement
		needed      int
	}
	var lines []line
	for i := range requirements {
		req := requirements[i]
		needed := clampZero(req.QtyRequired - req.QtyFulfilled)
		if needed == 0 {
			continue
		}
		stock := 0
		name := fmt.Sprintf("Unlinked Item (%s)", req.MaterialID)
		if req.Material != nil {
			stock = req.Material.QtyAtSite
			name = req.Material.Name
		}
		if stock < needed {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("insufficient site stock for %s: need %d, have %d", name, needed, stock))
		}
		lines = append(lines, line{requirement: req, needed: needed})
	}

	deployed := 0
	drawn := 0
	for _, l := range lines {
		req := l.requirement
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			materialRepo := s.materialRepo.WithTx(tx)
			material, err := materialRepo.FindByID(ctx, req.MaterialID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
			}
			material.QtyAtSite -= l.needed
			if err := materialRepo.Save(ctx, material); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update material")
			}

			req.QtyFulfilled = req.QtyRequired
			req.Material = nil
			if err := s.repo.WithTx(tx).SaveRequirement(ctx, &req); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update requirement")
			}

			entry := &models.LedgerEntry{
				MaterialID: req.MaterialID,
				Quantity:   -l.needed,
				Reason:     ledger.QuickDeployReason(room.ID, actor),
			}
			return s.ledgerRepo.WithTx(tx).Create(ctx, entry)
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err,
				fmt.Sprintf("quick deploy stopped at %s", req.MaterialID)).
				WithDetails(map[string]any{
					"room_id":         room.ID,
					"lines_deployed":  deployed,
					"lines_remaining": len(lines) - deployed,
					"failed_material": req.MaterialID,
				})
		}
		deployed++
		drawn += l.needed
	}

	return &QuickDeployResult{RoomID: room.ID, LinesDeployed: deployed, UnitsDrawn: drawn}, nil
}

func (s *service) ExportCSV(ctx context.Context) ([]byte, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rooms")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"TR", "Building"}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for _, room := range rows {
		if err := w.Write([]string{room.ID, room.BuildingNumber}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	return buf.Bytes(), nil
}

func (s *service) findRoom(ctx context.Context, id string) (*models.Room, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room id is required")
	}
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "room not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load room")
	}
	return room, nil
}

func buildItem(req *models.RoomRequirement) FulfillmentItem {
	item := FulfillmentItem{
		MaterialID:   req.MaterialID,
		MaterialName: fmt.Sprintf("Unlinked Item (%s)", req.MaterialID),
		QtyRequired:  req.QtyRequired,
		QtyFulfilled: req.QtyFulfilled,
	}
	if req.Material != nil {
		item.MaterialName = req.Material.Name
		item.Unit = req.Material.Unit
		item.SiteStock = req.Material.QtyAtSite
	}

	item.Needed = clampZero(req.QtyRequired - req.QtyFulfilled)
	switch {
	case item.Needed == 0:
		item.Status = StatusComplete
	case item.SiteStock >= item.Needed:
		item.Status = StatusReady
	default:
		item.Status = StatusNoStock
	}
	return item
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
