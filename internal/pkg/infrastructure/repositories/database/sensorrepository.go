package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/diwise/hydroponic-mgmt/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"gorm.io/gorm"
)

var ErrSensorNotFound = fmt.Errorf("sensor not found")

type SensorRepository interface {
	QuerySensors(ctx context.Context, owner string, conditions ...ConditionFunc) (types.Collection[Sensor], error)
	GetSensorByID(ctx context.Context, sensorID uint) (Sensor, error)
	Save(ctx context.Context, sensor *Sensor) error
	Delete(ctx context.Context, sensorID uint) error
}

type sensorRepository struct {
	db *gorm.DB
}

func NewSensorRepository(connect ConnectorFunc) (SensorRepository, error) {
	impl, _, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&System{}, &Sensor{}, &Measurement{})
	if err != nil {
		return nil, err
	}

	return &sensorRepository{
		db: impl,
	}, nil
}

func (d *sensorRepository) QuerySensors(ctx context.Context, owner string, conditions ...ConditionFunc) (types.Collection[Sensor], error) {
	logger := logging.GetFromContext(ctx)

	c := NewCondition(conditions...)

	query := func() *gorm.DB {
		q := d.db.WithContext(ctx).Model(&Sensor{}).
			Joins("JOIN systems ON systems.id = sensors.system_id").
			Where("systems.owner = ?", owner)

		if c.SystemID != 0 {
			q = q.Where("sensors.system_id = ?", c.SystemID)
		}
		if c.SystemName != "" {
			q = q.Where("systems.name = ?", c.SystemName)
		}
		if c.SystemNameContains != "" {
			q = q.Where("lower(systems.name) LIKE ?", containsPattern(c.SystemNameContains))
		}
		if c.NameContains != "" {
			q = q.Where("lower(sensors.name) LIKE ?", containsPattern(c.NameContains))
		}
		if c.SensorType != "" {
			q = q.Where("sensors.sensor_type = ?", c.SensorType)
		}

		return q
	}

	var total int64
	err := query().Count(&total).Error
	if err != nil {
		logger.Error().Err(err).Msg("gorm error")
		return types.Collection[Sensor]{}, ErrRepositoryError
	}

	orderBy := "sensors.name ASC"
	switch c.SortBy() {
	case "name":
		orderBy = orderDirection("sensors.name", c.SortDesc())
	case "sensor_type":
		orderBy = orderDirection("sensors.sensor_type", c.SortDesc())
	case "system_id":
		orderBy = orderDirection("sensors.system_id", c.SortDesc())
	case "system_name":
		orderBy = orderDirection("systems.name", c.SortDesc())
	}

	var sensors []Sensor
	err = query().
		Order(orderBy).
		Offset(c.Offset()).
		Limit(c.Limit()).
		Find(&sensors).Error
	if err != nil {
		logger.Error().Err(err).Msg("gorm error")
		return types.Collection[Sensor]{}, ErrRepositoryError
	}

	return types.Collection[Sensor]{
		Data:       sensors,
		Count:      uint64(len(sensors)),
		Offset:     uint64(c.Offset()),
		Limit:      uint64(c.Limit()),
		TotalCount: uint64(total),
	}, nil
}

// GetSensorByID loads the sensor with its owning system so that callers
// can resolve ownership without a second round trip.
func (d *sensorRepository) GetSensorByID(ctx context.Context, sensorID uint) (Sensor, error) {
	logger := logging.GetFromContext(ctx)

	var sensor Sensor

	result := d.db.WithContext(ctx).
		Preload("System").
		First(&sensor, sensorID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Sensor{}, ErrSensorNotFound
		}

		logger.Error().Err(result.Error).Msg("gorm error")

		return Sensor{}, ErrRepositoryError
	}

	return sensor, nil
}

func (d *sensorRepository) Save(ctx context.Context, sensor *Sensor) error {
	return d.db.WithContext(ctx).Save(sensor).Error
}

func (d *sensorRepository) Delete(ctx context.Context, sensorID uint) error {
	result := d.db.WithContext(ctx).Delete(&Sensor{}, sensorID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSensorNotFound
	}
	return nil
}
