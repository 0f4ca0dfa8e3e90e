package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/diwise/hydroponic-mgmt/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"gorm.io/gorm"
)

var ErrMeasurementNotFound = fmt.Errorf("measurement not found")

type MeasurementRepository interface {
	QueryMeasurements(ctx context.Context, owner string, conditions ...ConditionFunc) (types.Collection[Measurement], error)
	GetMeasurementByID(ctx context.Context, measurementID uint) (Measurement, error)
	Save(ctx context.Context, measurement *Measurement) error
	Delete(ctx context.Context, measurementID uint) error
}

type measurementRepository struct {
	db *gorm.DB
}

func NewMeasurementRepository(connect ConnectorFunc) (MeasurementRepository, error) {
	impl, _, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&System{}, &Sensor{}, &Measurement{})
	if err != nil {
		return nil, err
	}

	return &measurementRepository{
		db: impl,
	}, nil
}

func (d *measurementRepository) QueryMeasurements(ctx context.Context, owner string, conditions ...ConditionFunc) (types.Collection[Measurement], error) {
	logger := logging.GetFromContext(ctx)

	c := NewCondition(conditions...)

	query := func() *gorm.DB {
		q := d.db.WithContext(ctx).Model(&Measurement{}).
			Joins("JOIN sensors ON sensors.id = measurements.sensor_id").
			Joins("JOIN systems ON systems.id = sensors.system_id").
			Where("systems.owner = ?", owner)

		if c.SensorID != 0 {
			q = q.Where("measurements.sensor_id = ?", c.SensorID)
		}
		if c.SystemID != 0 {
			q = q.Where("sensors.system_id = ?", c.SystemID)
		}
		if c.SystemName != "" {
			q = q.Where("systems.name = ?", c.SystemName)
		}
		if c.SystemNameContains != "" {
			q = q.Where("lower(systems.name) LIKE ?", containsPattern(c.SystemNameContains))
		}
		if c.SensorType != "" {
			q = q.Where("sensors.sensor_type = ?", c.SensorType)
		}
		if c.ValueFrom != nil {
			q = q.Where("measurements.value >= ?", *c.ValueFrom)
		}
		if c.ValueTo != nil {
			q = q.Where("measurements.value <= ?", *c.ValueTo)
		}
		if c.MeasuredAfter != nil {
			q = q.Where("measurements.measured_at >= ?", *c.MeasuredAfter)
		}
		if c.MeasuredBefore != nil {
			q = q.Where("measurements.measured_at <= ?", *c.MeasuredBefore)
		}

		return q
	}

	var total int64
	err := query().Count(&total).Error
	if err != nil {
		logger.Error().Err(err).Msg("gorm error")
		return types.Collection[Measurement]{}, ErrRepositoryError
	}

	orderBy := "measurements.measured_at DESC"
	switch c.SortBy() {
	case "value":
		orderBy = orderDirection("measurements.value", c.SortDesc())
	case "measured_at":
		orderBy = orderDirection("measurements.measured_at", c.SortDesc())
	case "sensor":
		orderBy = orderDirection("measurements.sensor_id", c.SortDesc())
	}

	var measurements []Measurement
	err = query().
		Order(orderBy).
		Offset(c.Offset()).
		Limit(c.Limit()).
		Find(&measurements).Error
	if err != nil {
		logger.Error().Err(err).Msg("gorm error")
		return types.Collection[Measurement]{}, ErrRepositoryError
	}

	return types.Collection[Measurement]{
		Data:       measurements,
		Count:      uint64(len(measurements)),
		Offset:     uint64(c.Offset()),
		Limit:      uint64(c.Limit()),
		TotalCount: uint64(total),
	}, nil
}

// GetMeasurementByID loads the full parent chain so that ownership can be
// resolved from the returned value alone.
func (d *measurementRepository) GetMeasurementByID(ctx context.Context, measurementID uint) (Measurement, error) {
	logger := logging.GetFromContext(ctx)

	var measurement Measurement

	result := d.db.WithContext(ctx).
		Preload("Sensor").
		Preload("Sensor.System").
		First(&measurement, measurementID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Measurement{}, ErrMeasurementNotFound
		}

		logger.Error().Err(result.Error).Msg("gorm error")

		return Measurement{}, ErrRepositoryError
	}

	return measurement, nil
}

func (d *measurementRepository) Save(ctx context.Context, measurement *Measurement) error {
	return d.db.WithContext(ctx).Save(measurement).Error
}

func (d *measurementRepository) Delete(ctx context.Context, measurementID uint) error {
	result := d.db.WithContext(ctx).Delete(&Measurement{}, measurementID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMeasurementNotFound
	}
	return nil
}
