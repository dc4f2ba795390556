package ledger

import (
	"context"

	"gorm.io/gorm"

	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
)

// Repository manages persistence for inventory ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	ListByMaterialID(ctx context.Context, materialID string, limit int) ([]models.LedgerEntry, error)
	ListRecent(ctx context.Context, limit int) ([]models.LedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByMaterialID(ctx context.Context, materialID string, limit int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	q := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
