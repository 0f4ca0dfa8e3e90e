package types

import (
	"time"
)

const (
	SensorTypePH          string = "PH"
	SensorTypeTemperature string = "TEMP"
	SensorTypeTDS         string = "TDS"
)

func IsValidSensorType(sensorType string) bool {
	switch sensorType {
	case SensorTypePH, SensorTypeTemperature, SensorTypeTDS:
		return true
	}
	return false
}

type System struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Owner       string    `json:"owner"`
	Sensors     []uint    `json:"sensors"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SystemDetails is the detail representation of a system. It extends the
// collection representation with the ten most recent measurements taken
// across all of the system's sensors.
type SystemDetails struct {
	System
	RecentMeasurements []Measurement `json:"last10Measurements"`
}

type Sensor struct {
	ID                uint   `json:"id"`
	SystemID          uint   `json:"systemID"`
	Name              string `json:"name"`
	SensorType        string `json:"sensorType"`
	SensorTypeDisplay string `json:"sensorTypeDisplay,omitempty"`

	Measurements []Measurement `json:"measurements,omitempty"`
}

type Measurement struct {
	ID         uint      `json:"id"`
	SensorID   uint      `json:"sensorID"`
	Value      float64   `json:"value"`
	MeasuredAt time.Time `json:"measuredAt"`
}

type Collection[T any] struct {
	Data       []T
	Count      uint64
	Offset     uint64
	Limit      uint64
	TotalCount uint64
}
