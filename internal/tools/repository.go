package tools

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/enums"
)

// Repository manages persistence for tools and their movement log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tool, error)
	FindByQRCode(ctx context.Context, code string) (*models.Tool, error)
	List(ctx context.Context, status *enums.ToolStatus) ([]models.Tool, error)
	Create(ctx context.Context, tool *models.Tool) error
	Save(ctx context.Context, tool *models.Tool) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context, status enums.ToolStatus) (int64, error)
	CreateLog(ctx context.Context, log *models.ToolLog) error
	ListLogs(ctx context.Context, limit int) ([]models.ToolLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tools repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tool, error) {
	var tool models.Tool
	if err := r.db.WithContext(ctx).First(&tool, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tool, nil
}

func (r *repository) FindByQRCode(ctx context.Context, code string) (*models.Tool, error) {
	var tool models.Tool
	if err := r.db.WithContext(ctx).First(&tool, "qr_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &tool, nil
}

func (r *repository) List(ctx context.Context, status *enums.ToolStatus) ([]models.Tool, error) {
	var tools []models.Tool
	q := r.db.WithContext(ctx).Order("name ASC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Find(&tools).Error; err != nil {
		return nil, err
	}
	return tools, nil
}

func (r *repository) Create(ctx context.Context, tool *models.Tool) error {
	return r.db.WithContext(ctx).Create(tool).Error
}

func (r *repository) Save(ctx context.Context, tool *models.Tool) error {
	return r.db.WithContext(ctx).Save(tool).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Tool{}, "id = ?", id).Error
}

func (r *repository) CountByStatus(ctx context.Context, status enums.ToolStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Tool{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateLog(ctx context.Context, log *models.ToolLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) ListLogs(ctx context.Context, limit int) ([]models.ToolLog, error) {
	var logs []models.ToolLog
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
