package hydroponics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diwise/hydroponic-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-mgmt/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/samber/lo"
)

func (s *service) QuerySensors(ctx context.Context, owner string, params map[string][]string) (types.Collection[types.Sensor], error) {
	conditions, err := database.ParseConditions(params)
	if err != nil {
		return types.Collection[types.Sensor]{}, err
	}

	err = s.checkFilterOwnership(ctx, owner, database.NewCondition(conditions...))
	if err != nil {
		return types.Collection[types.Sensor]{}, err
	}

	collection, err := s.sensors.QuerySensors(ctx, owner, conditions...)
	if err != nil {
		return types.Collection[types.Sensor]{}, err
	}

	return types.Collection[types.Sensor]{
		Data: lo.Map(collection.Data, func(sensor database.Sensor, _ int) types.Sensor {
			return s.toSensorDTO(sensor)
		}),
		Count:      collection.Count,
		Offset:     collection.Offset,
		Limit:      collection.Limit,
		TotalCount: collection.TotalCount,
	}, nil
}

func (s *service) GetSensor(ctx context.Context, owner string, sensorID uint) (types.Sensor, error) {
	sensor, err := s.sensors.GetSensorByID(ctx, sensorID)
	if err != nil {
		return types.Sensor{}, err
	}

	if !IsOwnedBy(sensor, owner) {
		return types.Sensor{}, database.ErrSensorNotFound
	}

	measurements, err := s.measurements.QueryMeasurements(ctx, owner, database.WithSensorID(sensorID))
	if err != nil {
		return types.Sensor{}, err
	}

	sensor.Measurements = measurements.Data

	return s.toSensorDTO(sensor), nil
}

func (s *service) CreateSensor(ctx context.Context, owner string, sensor types.Sensor) (types.Sensor, error) {
	var err error
	ctx, span := tracer.Start(ctx, "create-sensor")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	name := strings.TrimSpace(sensor.Name)
	if name == "" {
		err = ErrNameRequired
		return types.Sensor{}, err
	}

	if !types.IsValidSensorType(sensor.SensorType) {
		err = ErrInvalidSensorType
		return types.Sensor{}, err
	}

	system, err := s.systems.GetSystemByID(ctx, sensor.SystemID)
	if err != nil {
		// unknown parents answer the same as foreign ones
		if errors.Is(err, database.ErrSystemNotFound) {
			err = ErrForbidden
		}
		return types.Sensor{}, err
	}
	if !IsOwnedBy(system, owner) {
		err = ErrForbidden
		return types.Sensor{}, err
	}

	entity := database.Sensor{
		SystemID:   system.ID,
		Name:       name,
		SensorType: sensor.SensorType,
	}

	err = s.sensors.Save(ctx, &entity)
	if err != nil {
		return types.Sensor{}, err
	}

	s.publish(ctx, &types.SensorCreated{
		SensorID:   entity.ID,
		SystemID:   entity.SystemID,
		SensorType: entity.SensorType,
		Owner:      owner,
		Timestamp:  time.Now().UTC(),
	})

	return s.toSensorDTO(entity), nil
}

func (s *service) UpdateSensor(ctx context.Context, owner string, sensorID uint, sensor types.Sensor) (types.Sensor, error) {
	var err error
	ctx, span := tracer.Start(ctx, "update-sensor")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	entity, err := s.sensors.GetSensorByID(ctx, sensorID)
	if err != nil {
		return types.Sensor{}, err
	}

	if !IsOwnedBy(entity, owner) {
		err = database.ErrSensorNotFound
		return types.Sensor{}, err
	}

	name := strings.TrimSpace(sensor.Name)
	if name == "" {
		err = ErrNameRequired
		return types.Sensor{}, err
	}

	if !types.IsValidSensorType(sensor.SensorType) {
		err = ErrInvalidSensorType
		return types.Sensor{}, err
	}

	// a sensor may move, but only between systems of the same owner
	if sensor.SystemID != 0 && sensor.SystemID != entity.SystemID {
		target, terr := s.systems.GetSystemByID(ctx, sensor.SystemID)
		if terr != nil {
			if errors.Is(terr, database.ErrSystemNotFound) {
				terr = ErrForbidden
			}
			err = terr
			return types.Sensor{}, err
		}
		if !IsOwnedBy(target, owner) {
			err = ErrForbidden
			return types.Sensor{}, err
		}
		entity.SystemID = target.ID
		entity.System = target
	}

	entity.Name = name
	entity.SensorType = sensor.SensorType

	err = s.sensors.Save(ctx, &entity)
	if err != nil {
		return types.Sensor{}, err
	}

	return s.toSensorDTO(entity), nil
}

func (s *service) DeleteSensor(ctx context.Context, owner string, sensorID uint) error {
	var err error
	ctx, span := tracer.Start(ctx, "delete-sensor")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	entity, err := s.sensors.GetSensorByID(ctx, sensorID)
	if err != nil {
		return err
	}

	if !IsOwnedBy(entity, owner) {
		err = database.ErrSensorNotFound
		return err
	}

	return s.sensors.Delete(ctx, sensorID)
}

// checkFilterOwnership rejects filters that reference another owner's
// resources by id, so that a query can never be widened (or probed)
// through foreign identifiers.
func (s *service) checkFilterOwnership(ctx context.Context, owner string, c *database.Condition) error {
	if c.SystemID != 0 {
		system, err := s.systems.GetSystemByID(ctx, c.SystemID)
		if err != nil && !errors.Is(err, database.ErrSystemNotFound) {
			return err
		}
		if err != nil || !IsOwnedBy(system, owner) {
			return fmt.Errorf("%w: system_id %d is not a valid choice", database.ErrInvalidParameter, c.SystemID)
		}
	}

	if c.SensorID != 0 {
		sensor, err := s.sensors.GetSensorByID(ctx, c.SensorID)
		if err != nil && !errors.Is(err, database.ErrSensorNotFound) {
			return err
		}
		if err != nil || !IsOwnedBy(sensor, owner) {
			return fmt.Errorf("%w: sensor_id %d is not a valid choice", database.ErrInvalidParameter, c.SensorID)
		}
	}

	return nil
}
