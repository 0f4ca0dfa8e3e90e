package types

import "time"

type SystemCreated struct {
	SystemID  uint      `json:"systemID"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *SystemCreated) ContentType() string {
	return "application/json"
}
func (s *SystemCreated) TopicName() string {
	return "system.created"
}

type SystemUpdated struct {
	SystemID  uint      `json:"systemID"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *SystemUpdated) ContentType() string {
	return "application/json"
}
func (s *SystemUpdated) TopicName() string {
	return "system.updated"
}

type SystemDeleted struct {
	SystemID  uint      `json:"systemID"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *SystemDeleted) ContentType() string {
	return "application/json"
}
func (s *SystemDeleted) TopicName() string {
	return "system.deleted"
}

type SensorCreated struct {
	SensorID   uint      `json:"sensorID"`
	SystemID   uint      `json:"systemID"`
	SensorType string    `json:"sensorType"`
	Owner      string    `json:"owner"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s *SensorCreated) ContentType() string {
	return "application/json"
}
func (s *SensorCreated) TopicName() string {
	return "sensor.created"
}

type MeasurementCreated struct {
	MeasurementID uint      `json:"measurementID"`
	SensorID      uint      `json:"sensorID"`
	Value         float64   `json:"value"`
	Owner         string    `json:"owner"`
	Timestamp     time.Time `json:"timestamp"`
}

func (m *MeasurementCreated) ContentType() string {
	return "application/json"
}
func (m *MeasurementCreated) TopicName() string {
	return "measurement.created"
}
