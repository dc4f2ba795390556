package rooms

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
)

// Repository manages persistence for rooms and their requirement links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id string) (*models.Room, error)
	List(ctx context.Context) ([]models.Room, error)
	Upsert(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
	DeleteAllRequirements(ctx context.Context) (int64, error)
	DeleteAllRooms(ctx context.Context) (int64, error)
	ListRequirements(ctx context.Context, trID string) ([]models.RoomRequirement, error)
	ListAllRequirements(ctx context.Context) ([]models.RoomRequirement, error)
	UpsertRequirement(ctx context.Context, requirement *models.RoomRequirement) error
	SaveRequirement(ctx context.Context, requirement *models.RoomRequirement) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a rooms repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *repository) List(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *repository) Upsert(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"building_number"}),
		}).
		Create(room).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.RoomRequirement{}, "tr_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Room{}, "id = ?", id).Error
	})
}

func (r *repository) DeleteAllRequirements(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.RoomRequirement{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteAllRooms(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Room{})
	return res.RowsAffected, res.Error
}

func (r *repository) ListRequirements(ctx context.Context, trID string) ([]models.RoomRequirement, error) {
	var requirements []models.RoomRequirement
	if err := r.db.WithContext(ctx).
		Preload("Material").
		Where("tr_id = ?", trID).
		Order("material_id ASC").
		Find(&requirements).Error; err != nil {
		return nil, err
	}
	return requirements, nil
}

func (r *repository) ListAllRequirements(ctx context.Context) ([]models.RoomRequirement, error) {
	var requirements []models.RoomRequirement
	if err := r.db.WithContext(ctx).
		Preload("Material").
		Order("tr_id ASC, material_id ASC").
		Find(&requirements).Error; err != nil {
		return nil, err
	}
	return requirements, nil
}

func (r *repository) UpsertRequirement(ctx context.Context, requirement *models.RoomRequirement) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tr_id"}, {Name: "material_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"qty_required"}),
		}).
		Create(requirement).Error
}

func (r *repository) SaveRequirement(ctx context.Context, requirement *models.RoomRequirement) error {
	return r.db.WithContext(ctx).Save(requirement).Error
}
