package hydroponics

import (
	"context"
	"errors"
	"time"

	"github.com/diwise/hydroponic-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-mgmt/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/samber/lo"
)

func (s *service) QueryMeasurements(ctx context.Context, owner string, params map[string][]string) (types.Collection[types.Measurement], error) {
	conditions, err := database.ParseConditions(params)
	if err != nil {
		return types.Collection[types.Measurement]{}, err
	}

	err = s.checkFilterOwnership(ctx, owner, database.NewCondition(conditions...))
	if err != nil {
		return types.Collection[types.Measurement]{}, err
	}

	collection, err := s.measurements.QueryMeasurements(ctx, owner, conditions...)
	if err != nil {
		return types.Collection[types.Measurement]{}, err
	}

	return types.Collection[types.Measurement]{
		Data: lo.Map(collection.Data, func(m database.Measurement, _ int) types.Measurement {
			return toMeasurementDTO(m)
		}),
		Count:      collection.Count,
		Offset:     collection.Offset,
		Limit:      collection.Limit,
		TotalCount: collection.TotalCount,
	}, nil
}

func (s *service) GetMeasurement(ctx context.Context, owner string, measurementID uint) (types.Measurement, error) {
	measurement, err := s.measurements.GetMeasurementByID(ctx, measurementID)
	if err != nil {
		return types.Measurement{}, err
	}

	if !IsOwnedBy(measurement, owner) {
		return types.Measurement{}, database.ErrMeasurementNotFound
	}

	return toMeasurementDTO(measurement), nil
}

func (s *service) CreateMeasurement(ctx context.Context, owner string, measurement types.Measurement) (types.Measurement, error) {
	var err error
	ctx, span := tracer.Start(ctx, "create-measurement")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	sensor, err := s.sensors.GetSensorByID(ctx, measurement.SensorID)
	if err != nil {
		// unknown parents answer the same as foreign ones
		if errors.Is(err, database.ErrSensorNotFound) {
			err = ErrForbidden
		}
		return types.Measurement{}, err
	}
	if !IsOwnedBy(sensor, owner) {
		err = ErrForbidden
		return types.Measurement{}, err
	}

	value := round2(measurement.Value)

	err = ValidateMeasurementValue(sensor.SensorType, value)
	if err != nil {
		return types.Measurement{}, err
	}

	entity := database.Measurement{
		SensorID:   sensor.ID,
		Value:      value,
		MeasuredAt: time.Now().UTC(),
	}

	err = s.measurements.Save(ctx, &entity)
	if err != nil {
		return types.Measurement{}, err
	}

	s.publish(ctx, &types.MeasurementCreated{
		MeasurementID: entity.ID,
		SensorID:      entity.SensorID,
		Value:         entity.Value,
		Owner:         owner,
		Timestamp:     entity.MeasuredAt,
	})

	return toMeasurementDTO(entity), nil
}

func (s *service) UpdateMeasurement(ctx context.Context, owner string, measurementID uint, measurement types.Measurement) (types.Measurement, error) {
	var err error
	ctx, span := tracer.Start(ctx, "update-measurement")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	entity, err := s.measurements.GetMeasurementByID(ctx, measurementID)
	if err != nil {
		return types.Measurement{}, err
	}

	if !IsOwnedBy(entity, owner) {
		err = database.ErrMeasurementNotFound
		return types.Measurement{}, err
	}

	// the sensor a value was measured by cannot change after the fact
	value := round2(measurement.Value)

	err = ValidateMeasurementValue(entity.Sensor.SensorType, value)
	if err != nil {
		return types.Measurement{}, err
	}

	entity.Value = value

	err = s.measurements.Save(ctx, &entity)
	if err != nil {
		return types.Measurement{}, err
	}

	return toMeasurementDTO(entity), nil
}

func (s *service) DeleteMeasurement(ctx context.Context, owner string, measurementID uint) error {
	var err error
	ctx, span := tracer.Start(ctx, "delete-measurement")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	entity, err := s.measurements.GetMeasurementByID(ctx, measurementID)
	if err != nil {
		return err
	}

	if !IsOwnedBy(entity, owner) {
		err = database.ErrMeasurementNotFound
		return err
	}

	return s.measurements.Delete(ctx, measurementID)
}
