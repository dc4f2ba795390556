package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/lowvoltmgr/lowvolt-backend/internal/ledger"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/db"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/enums"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
)

const defaultHistoryLimit = 50

// Service exposes the material flow operations. Every mutation appends
// its ledger entry inside the same transaction as the counter update,
// except SendToSite which by contract writes no ledger entry.
type Service interface {
	Lookup(ctx context.Context, query string) (*MaterialDTO, error)
	List(ctx context.Context) ([]MaterialDTO, error)
	Create(ctx context.Context, input CreateInput) (*MaterialDTO, error)
	Delete(ctx context.Context, id string) error
	Receive(ctx context.Context, input ReceiveInput) (*MaterialDTO, error)
	SendToSite(ctx context.Context, id string, amount int) (*MaterialDTO, error)
	Install(ctx context.Context, input InstallInput) (*MaterialDTO, error)
	AuditCorrect(ctx context.Context, input AuditCorrectInput) (*MaterialDTO, error)
	History(ctx context.Context, materialID string, limit int) ([]HistoryEntry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo       Repository
	ledgerRepo ledger.Repository
	tx         txRunner
}

// NewService wires a materials service with its repositories.
func NewService(repo Repository, ledgerRepo ledger.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("materials repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, ledgerRepo: ledgerRepo, tx: tx}, nil
}

func (s *service) Lookup(ctx context.Context, query string) (*MaterialDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is required")
	}

	material, err := s.repo.FindByID(ctx, strings.ToUpper(query))
	if err == nil {
		return toDTO(material), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup material by id")
	}

	material, err = s.repo.FirstByNameLike(ctx, query)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup material by name")
	}
	return toDTO(material), nil
}

func (s *service) List(ctx context.Context) ([]MaterialDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list materials")
	}
	out := make([]MaterialDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*MaterialDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.QtyBidDay < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty_bid_day cannot be negative")
	}

	id := strings.ToUpper(strings.TrimSpace(input.ID))
	if id == "" {
		id = NewMaterialID()
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "General"
	}
	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "pcs"
	}

	material := &models.Material{
		ID:         id,
		PartNumber: strings.TrimSpace(input.PartNumber),
		Name:       name,
		Category:   category,
		Unit:       unit,
		QtyBidDay:  input.QtyBidDay,
	}

	if err := s.repo.Create(ctx, material); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("material %s already exists", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert material")
	}
	return toDTO(material), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := s.findMaterial(ctx, s.repo, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete material")
	}
	return nil
}

// Receive books a delivery in. The open-order counter clamps at zero so
// over-receiving (vendor ships more than the PO) does not drive it
// negative.
func (s *service) Receive(ctx context.Context, input ReceiveInput) (*MaterialDTO, error) {
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid receive target %q", input.Target))
	}

	var result *models.Material
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		material, err := s.findMaterial(ctx, repo, input.MaterialID)
		if err != nil {
			return err
		}

		material.QtyOnOrder = clampZero(material.QtyOnOrder - input.Amount)
		reason := ledger.ReasonReceivedToOffice
		if input.Target == enums.ReceiveTargetSite {
			material.QtyAtSite += input.Amount
			reason = ledger.ReasonReceivedToSite
		} else {
			material.QtyAtOffice += input.Amount
		}

		if err := repo.Save(ctx, material); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update material")
		}
		entry := &models.LedgerEntry{
			MaterialID: material.ID,
			Quantity:   input.Amount,
			Reason:     reason,
		}
		if err := s.ledgerRepo.WithTx(tx).Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append ledger entry")
		}
		result = material
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDTO(result), nil
}

// SendToSite moves stock from the office to the site container. The
// movement is internal, so no ledger entry is written; the ledger only
// records quantity entering or leaving the project.
func (s *service) SendToSite(ctx context.Context, id string, amount int) (*MaterialDTO, error) {
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var result *models.Material
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		material, err := s.findMaterial(ctx, repo, id)
		if err != nil {
			return err
		}
		if material.QtyAtOffice < amount {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("only %d at office, cannot send %d", material.QtyAtOffice, amount))
		}

		material.QtyAtOffice -= amount
		material.QtyAtSite += amount
		if err := repo.Save(ctx, material); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update material")
		}
		result = material
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDTO(result), nil
}

// Install consumes site stock. With a room it also advances that room's
// fulfillment counter, uncapped: installing more than required records
// the overage rather than hiding it. A missing requirement link is not
// an error; the consumption still books against the material.
func (s *service) Install(ctx context.Context, input InstallInput) (*MaterialDTO, error) {
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	roomID := strings.ToUpper(strings.TrimSpace(input.RoomID))

	var result *models.Material
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		material, err := s.findMaterial(ctx, repo, input.MaterialID)
		if err != nil {
			return err
		}
		if material.QtyAtSite < input.Amount {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("only %d at site, cannot install %d", material.QtyAtSite, input.Amount))
		}

		material.QtyAtSite -= input.Amount
		material.QtyBidDay = clampZero(material.QtyBidDay - input.Amount)
		if err := repo.Save(ctx, material); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update material")
		}

		reason := ledger.ReasonFieldConsumption
		if roomID != "" {
			reason = ledger.InstallReason(roomID)
			requirement, err := repo.FindRequirement(ctx, roomID, material.ID)
			switch {
			case err == nil:
				requirement.QtyFulfilled += input.Amount
				if err := repo.SaveRequirement(ctx, requirement); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update requirement")
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				// room has no link for this material; consumption still counts
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load requirement")
			}
		}

		entry := &models.LedgerEntry{
			MaterialID: material.ID,
			Quantity:   -input.Amount,
			Reason:     reason,
		}
		if err := s.ledgerRepo.WithTx(tx).Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append ledger entry")
		}
		result = material
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDTO(result), nil
}

// AuditCorrect overwrites the three live counters with counted values.
// When nothing changed it writes nothing, so re-submitting the same
// audit is a no-op. Otherwise it appends a single zero-quantity ledger
// entry carrying the deltas in its reason text.
func (s *service) AuditCorrect(ctx context.Context, input AuditCorrectInput) (*MaterialDTO, error) {
	if input.NewOnOrder < 0 || input.NewAtOffice < 0 || input.NewAtSite < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counted quantities cannot be negative")
	}
	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}

	var result *models.Material
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		material, err := s.findMaterial(ctx, repo, input.MaterialID)
		if err != nil {
			return err
		}

		orderDelta := input.NewOnOrder - material.QtyOnOrder
		officeDelta := input.NewAtOffice - material.QtyAtOffice
		siteDelta := input.NewAtSite - material.QtyAtSite
		if orderDelta == 0 && officeDelta == 0 && siteDelta == 0 {
			result = material
			return nil
		}

		material.QtyOnOrder = input.NewOnOrder
		material.QtyAtOffice = input.NewAtOffice
		material.QtyAtSite = input.NewAtSite
		if err := repo.Save(ctx, material); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update material")
		}

		entry := &models.LedgerEntry{
			MaterialID: material.ID,
			Quantity:   0,
			Reason:     ledger.AuditFixReason(actor, orderDelta, officeDelta, siteDelta),
		}
		if err := s.ledgerRepo.WithTx(tx).Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append ledger entry")
		}
		result = material
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDTO(result), nil
}

func (s *service) History(ctx context.Context, materialID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var (
		entries []models.LedgerEntry
		err     error
	)
	if materialID = strings.ToUpper(strings.TrimSpace(materialID)); materialID != "" {
		entries, err = s.ledgerRepo.ListByMaterialID(ctx, materialID, limit)
	} else {
		entries, err = s.ledgerRepo.ListRecent(ctx, limit)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list materials")
	}

	byID := make(map[string]*models.Material, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	out := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		row := HistoryEntry{
			ID:         entry.ID,
			MaterialID: entry.MaterialID,
			Quantity:   entry.Quantity,
			Reason:     entry.Reason,
			CreatedAt:  entry.CreatedAt,
		}
		if material, ok := byID[entry.MaterialID]; ok {
			row.MaterialName = material.Name
			row.Unit = material.Unit
		} else {
			row.MaterialName = fmt.Sprintf("Unlinked Item (%s)", entry.MaterialID)
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *service) findMaterial(ctx context.Context, repo Repository, id string) (*models.Material, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id is required")
	}
	material, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
	}
	return material, nil
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
