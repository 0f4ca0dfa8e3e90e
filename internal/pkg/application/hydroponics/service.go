package hydroponics

import (
	"context"
	"fmt"
	"io"

	"github.com/diwise/hydroponic-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-mgmt/pkg/types"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"gopkg.in/yaml.v2"
)

var tracer = otel.Tracer("hydroponic-mgmt/hydroponics")

// ErrForbidden signals an attempt to attach a resource under a parent
// that belongs to somebody else. Operations on resources that are not
// owned by the caller fail with the resource's not-found error instead,
// so that foreign identifiers stay indistinguishable from unknown ones.
var ErrForbidden = fmt.Errorf("forbidden")

type HydroponicsManagement interface {
	QuerySystems(ctx context.Context, owner string, params map[string][]string) (types.Collection[types.System], error)
	GetSystem(ctx context.Context, owner string, systemID uint) (types.SystemDetails, error)
	CreateSystem(ctx context.Context, owner string, system types.System) (types.System, error)
	UpdateSystem(ctx context.Context, owner string, systemID uint, system types.System) (types.System, error)
	DeleteSystem(ctx context.Context, owner string, systemID uint) error

	QuerySensors(ctx context.Context, owner string, params map[string][]string) (types.Collection[types.Sensor], error)
	GetSensor(ctx context.Context, owner string, sensorID uint) (types.Sensor, error)
	CreateSensor(ctx context.Context, owner string, sensor types.Sensor) (types.Sensor, error)
	UpdateSensor(ctx context.Context, owner string, sensorID uint, sensor types.Sensor) (types.Sensor, error)
	DeleteSensor(ctx context.Context, owner string, sensorID uint) error

	QueryMeasurements(ctx context.Context, owner string, params map[string][]string) (types.Collection[types.Measurement], error)
	GetMeasurement(ctx context.Context, owner string, measurementID uint) (types.Measurement, error)
	CreateMeasurement(ctx context.Context, owner string, measurement types.Measurement) (types.Measurement, error)
	UpdateMeasurement(ctx context.Context, owner string, measurementID uint, measurement types.Measurement) (types.Measurement, error)
	DeleteMeasurement(ctx context.Context, owner string, measurementID uint) error

	Seed(ctx context.Context, reader io.Reader, allowedOwners []string) error
}

type service struct {
	systems      database.SystemRepository
	sensors      database.SensorRepository
	measurements database.MeasurementRepository

	messenger messaging.MsgContext
	config    *Config
}

func New(systems database.SystemRepository, sensors database.SensorRepository, measurements database.MeasurementRepository, messenger messaging.MsgContext, config *Config) HydroponicsManagement {
	if config == nil {
		config = &Config{}
	}

	return &service{
		systems:      systems,
		sensors:      sensors,
		measurements: measurements,
		messenger:    messenger,
		config:       config,
	}
}

type Config struct {
	SensorTypes []SensorTypeConfig `yaml:"sensortypes"`
}

type SensorTypeConfig struct {
	Type  string `yaml:"type"`
	Label string `yaml:"label"`
}

func NewConfig(data io.Reader) (*Config, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration data: %w", err)
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

var defaultLabels = map[string]string{
	types.SensorTypePH:          "pH",
	types.SensorTypeTemperature: "Temperature",
	types.SensorTypeTDS:         "TDS",
}

// DisplayName resolves a human readable label for a sensor type code,
// preferring configured labels over the built in defaults.
func (c *Config) DisplayName(sensorType string) string {
	for _, st := range c.SensorTypes {
		if st.Type == sensorType {
			return st.Label
		}
	}

	if label, ok := defaultLabels[sensorType]; ok {
		return label
	}

	return sensorType
}

func (s *service) toSystemDTO(system database.System) types.System {
	return types.System{
		ID:          system.ID,
		Name:        system.Name,
		Description: system.Description,
		Owner:       system.Owner,
		Sensors: lo.Map(system.Sensors, func(sensor database.Sensor, _ int) uint {
			return sensor.ID
		}),
		CreatedAt: system.CreatedAt,
	}
}

func (s *service) toSensorDTO(sensor database.Sensor) types.Sensor {
	return types.Sensor{
		ID:                sensor.ID,
		SystemID:          sensor.SystemID,
		Name:              sensor.Name,
		SensorType:        sensor.SensorType,
		SensorTypeDisplay: s.config.DisplayName(sensor.SensorType),
		Measurements: lo.Map(sensor.Measurements, func(m database.Measurement, _ int) types.Measurement {
			return toMeasurementDTO(m)
		}),
	}
}

func toMeasurementDTO(measurement database.Measurement) types.Measurement {
	return types.Measurement{
		ID:         measurement.ID,
		SensorID:   measurement.SensorID,
		Value:      measurement.Value,
		MeasuredAt: measurement.MeasuredAt,
	}
}
