package materials

import (
	"time"

	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/enums"
)

// CreateInput holds the validated payload to add a catalog material.
type CreateInput struct {
	ID         string
	PartNumber string
	Name       string
	Category   string
	Unit       string
	QtyBidDay  int
}

// ReceiveInput records a delivery of a material against its open order.
type ReceiveInput struct {
	MaterialID string
	Amount     int
	Target     enums.ReceiveTarget
}

// InstallInput draws site stock down, optionally against a room
// requirement. An empty RoomID records field consumption instead.
type InstallInput struct {
	MaterialID string
	Amount     int
	RoomID     string
	Actor      string
}

// AuditCorrectInput overwrites the three live counters with counted
// values from a physical audit.
type AuditCorrectInput struct {
	MaterialID  string
	NewOnOrder  int
	NewAtOffice int
	NewAtSite   int
	Actor       string
}

// HistoryEntry is a ledger row joined with its material's display fields.
type HistoryEntry struct {
	ID           int64     `json:"id"`
	MaterialID   string    `json:"material_id"`
	MaterialName string    `json:"material_name"`
	Unit         string    `json:"unit"`
	Quantity     int       `json:"quantity"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}

// MaterialDTO is the API shape of a catalog material.
type MaterialDTO struct {
	ID          string `json:"id"`
	PartNumber  string `json:"part_number"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Unit        string `json:"unit"`
	QtyBidDay   int    `json:"qty_bid_day"`
	QtyOnOrder  int    `json:"qty_on_order"`
	QtyAtOffice int    `json:"qty_at_office"`
	QtyAtSite   int    `json:"qty_at_site"`
}

func toDTO(m *models.Material) *MaterialDTO {
	return &MaterialDTO{
		ID:          m.ID,
		PartNumber:  m.PartNumber,
		Name:        m.Name,
		Category:    m.Category,
		Unit:        m.Unit,
		QtyBidDay:   m.QtyBidDay,
		QtyOnOrder:  m.QtyOnOrder,
		QtyAtOffice: m.QtyAtOffice,
		QtyAtSite:   m.QtyAtSite,
	}
}
