package models

// Material is a catalog line item with one quantity counter per
// procurement state. Quantities are conserved across Receive and
// SendToSite; Install only ever draws from QtyAtSite.
type Material struct {
	ID          string `gorm:"column:id;type:text;primaryKey"`
	PartNumber  string `gorm:"column:part_number;type:text"`
	Name        string `gorm:"column:name;type:text;not null"`
	Category    string `gorm:"column:category;type:text"`
	Unit        string `gorm:"column:unit;type:text"`
	QtyBidDay   int    `gorm:"column:qty_bid_day;not null;default:0"`
	QtyOnOrder  int    `gorm:"column:qty_on_order;not null;default:0"`
	QtyAtOffice int    `gorm:"column:qty_at_office;not null;default:0"`
	QtyAtSite   int    `gorm:"column:qty_at_site;not null;default:0"`
}

func (Material) TableName() string { return "materials" }
