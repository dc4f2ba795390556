package materials

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
)

// Repository manages persistence for materials and the room requirement
// rows an install touches. Requirement access lives here rather than in
// the rooms repository so an install can mutate both inside one
// transaction without crossing packages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id string) (*models.Material, error)
	FindByPartNumber(ctx context.Context, partNumber string) (*models.Material, error)
	FirstByNameLike(ctx context.Context, query string) (*models.Material, error)
	List(ctx context.Context) ([]models.Material, error)
	Create(ctx context.Context, material *models.Material) error
	Save(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id string) error
	FindRequirement(ctx context.Context, trID, materialID string) (*models.RoomRequirement, error)
	SaveRequirement(ctx context.Context, requirement *models.RoomRequirement) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a materials repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	var material models.Material
	if err := r.db.WithContext(ctx).First(&material, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *repository) FindByPartNumber(ctx context.Context, partNumber string) (*models.Material, error) {
	var material models.Material
	if err := r.db.WithContext(ctx).First(&material, "part_number = ?", partNumber).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *repository) FirstByNameLike(ctx context.Context, query string) (*models.Material, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var material models.Material
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", pattern).
		Order("name ASC").
		First(&material).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *repository) List(ctx context.Context) ([]models.Material, error) {
	var materials []models.Material
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *repository) Create(ctx context.Context, material *models.Material) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *repository) Save(ctx context.Context, material *models.Material) error {
	return r.db.WithContext(ctx).Save(material).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Material{}, "id = ?", id).Error
}

func (r *repository) FindRequirement(ctx context.Context, trID, materialID string) (*models.RoomRequirement, error) {
	var requirement models.RoomRequirement
	if err := r.db.WithContext(ctx).
		First(&requirement, "tr_id = ? AND material_id = ?", trID, materialID).Error; err != nil {
		return nil, err
	}
	return &requirement, nil
}

func (r *repository) SaveRequirement(ctx context.Context, requirement *models.RoomRequirement) error {
	return r.db.WithContext(ctx).Save(requirement).Error
}
