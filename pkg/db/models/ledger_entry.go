package models

import "time"

// LedgerEntry is one append-only inventory movement. Audit corrections
// write a zero-quantity entry whose reason text carries the per-counter
// deltas.
type LedgerEntry struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	MaterialID string    `gorm:"column:material_id;type:text;not null;index"`
	Quantity   int       `gorm:"column:quantity;not null"`
	Reason     string    `gorm:"column:reason;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;default:now()"`
}

func (LedgerEntry) TableName() string { return "inventory_ledger" }
