package models

import "github.com/google/uuid"

// RoomRequirement links a room to a material it needs. QtyFulfilled may
// exceed QtyRequired; Install records overage rather than capping it.
type RoomRequirement struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TRID         string    `gorm:"column:tr_id;type:text;not null;uniqueIndex:idx_room_requirements_tr_material"`
	MaterialID   string    `gorm:"column:material_id;type:text;not null;uniqueIndex:idx_room_requirements_tr_material"`
	QtyRequired  int       `gorm:"column:qty_required;not null;default:0"`
	QtyFulfilled int       `gorm:"column:qty_fulfilled;not null;default:0"`

	Material *Material `gorm:"foreignKey:MaterialID;references:ID"`
}

func (RoomRequirement) TableName() string { return "room_requirements" }
