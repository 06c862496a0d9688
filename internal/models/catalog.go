package models

// Team is a constructor on the grid. Color is a #RRGGBB hex string.
type Team struct {
	ID      uint     `gorm:"primaryKey" json:"id"`
	Name    string   `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Color   string   `gorm:"size:7;not null;default:'#000000'" json:"color"`
	Drivers []Driver `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"drivers,omitempty"`
}

// Driver races for exactly one team and is removed with it.
type Driver struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:100;not null" json:"name"`
	TeamID uint   `gorm:"not null;index" json:"team_id"`
}

// DriverOption is the id/name pair served by the driver lookup endpoint.
type DriverOption struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}
