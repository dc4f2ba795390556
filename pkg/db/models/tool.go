package models

import (
	"github.com/google/uuid"

	"github.com/lowvoltmgr/lowvolt-backend/pkg/enums"
)

// Tool is a trackable piece of site equipment. QRCode is the payload
// printed on its label and scanned at checkout.
type Tool struct {
	ID     uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name   string           `gorm:"column:name;type:text;not null"`
	Brand  string           `gorm:"column:brand;type:text"`
	QRCode string           `gorm:"column:qr_code;type:text;uniqueIndex"`
	Status enums.ToolStatus `gorm:"column:status;type:text;not null;default:'available'"`
}

func (Tool) TableName() string { return "tools" }
