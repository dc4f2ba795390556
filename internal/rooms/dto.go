package rooms

// Fulfillment status per requirement line.
const (
	StatusComplete = "COMPLETE"
	StatusReady    = "READY"
	StatusNoStock  = "NO_STOCK"
)

// RoomDTO is the API shape of a telecom room.
type RoomDTO struct {
	ID             string `json:"id"`
	BuildingNumber string `json:"building_number"`
}

// FulfillmentItem is one requirement line joined with live site stock.
type FulfillmentItem struct {
	MaterialID   string `json:"material_id"`
	MaterialName string `json:"material_name"`
	Unit         string `json:"unit"`
	QtyRequired  int    `json:"qty_required"`
	QtyFulfilled int    `json:"qty_fulfilled"`
	Needed       int    `json:"needed"`
	SiteStock    int    `json:"site_stock"`
	Status       string `json:"status"`
}

// RoomFulfillment is a room with its requirement lines.
type RoomFulfillment struct {
	RoomID         string            `json:"room_id"`
	BuildingNumber string            `json:"building_number"`
	Items          []FulfillmentItem `json:"items"`
}

// CreateInput holds the validated payload to add or update a room.
type CreateInput struct {
	ID             string
	BuildingNumber string
}

// WipeResult reports how many rows a full wipe removed.
type WipeResult struct {
	RequirementsDeleted int64 `json:"requirements_deleted"`
	RoomsDeleted        int64 `json:"rooms_deleted"`
}

// QuickDeployResult reports a completed quick-deploy run.
type QuickDeployResult struct {
	RoomID        string `json:"room_id"`
	LinesDeployed int    `json:"lines_deployed"`
	UnitsDrawn    int    `json:"units_drawn"`
}
