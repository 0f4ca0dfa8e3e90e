package database

import (
	"time"
)

// System is a hydroponic growing system owned by a single user. The
// composite unique index on (owner, name) backs the application level
// duplicate check so that concurrent creates cannot slip past it.
type System struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex:idx_systems_owner_name" json:"name"`
	Description string    `json:"description"`
	Owner       string    `gorm:"size:150;uniqueIndex:idx_systems_owner_name" json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`

	Sensors []Sensor `gorm:"constraint:OnDelete:CASCADE" json:"sensors,omitempty"`
}

type Sensor struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	SystemID   uint   `gorm:"index" json:"systemID"`
	System     System `json:"-"`
	Name       string `gorm:"size:100" json:"name"`
	SensorType string `gorm:"size:10" json:"sensorType"`

	Measurements []Measurement `gorm:"constraint:OnDelete:CASCADE" json:"measurements,omitempty"`
}

type Measurement struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	SensorID   uint      `gorm:"index" json:"sensorID"`
	Sensor     Sensor    `json:"-"`
	Value      float64   `gorm:"type:numeric(10,2)" json:"value"`
	MeasuredAt time.Time `gorm:"index" json:"measuredAt"`
}
