package models

// Room is a telecom room (TR) identified by the tracker sheet's room id.
type Room struct {
	ID             string `gorm:"column:id;type:text;primaryKey"`
	BuildingNumber string `gorm:"column:building_number;type:text"`
}

func (Room) TableName() string { return "rooms" }
