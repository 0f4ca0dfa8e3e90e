package database

import (
	"errors"
	"testing"
	"time"
)

func TestSaveAndGetMeasurement(t *testing.T) {
	is, ctx, systems, sensors, measurements := testSetup(t)
	owner := newOwner()

	system := createSystem(is, ctx, systems, owner, "nutrients")
	sensor := createSensor(is, ctx, sensors, system.ID, "tds-meter", "TDS")
	created := createMeasurement(is, ctx, measurements, sensor.ID, 850, time.Now().UTC())

	fetched, err := measurements.GetMeasurementByID(ctx, created.ID)
	is.NoErr(err)
	is.Equal(fetched.Value, 850.0)
	is.Equal(fetched.Sensor.System.Owner, owner)
}

func TestGetUnknownMeasurementReturnsNotFound(t *testing.T) {
	is, ctx, _, _, measurements := testSetup(t)

	_, err := measurements.GetMeasurementByID(ctx, 4711000)
	is.True(errors.Is(err, ErrMeasurementNotFound))
}

func TestQueryMeasurementsIsScopedToOwner(t *testing.T) {
	is, ctx, systems, sensors, measurements := testSetup(t)
	alice := newOwner()
	bob := newOwner()

	aliceSystem := createSystem(is, ctx, systems, alice, "alice-rack")
	bobSystem := createSystem(is, ctx, systems, bob, "bob-rack")

	aliceSensor := createSensor(is, ctx, sensors, aliceSystem.ID, "ph-probe", "PH")
	bobSensor := createSensor(is, ctx, sensors, bobSystem.ID, "ph-probe", "PH")

	createMeasurement(is, ctx, measurements, aliceSensor.ID, 6.5, time.Now().UTC())
	createMeasurement(is, ctx, measurements, bobSensor.ID, 7.5, time.Now().UTC())

	collection, err := measurements.QueryMeasurements(ctx, alice)
	is.NoErr(err)
	is.Equal(collection.TotalCount, uint64(1))
	is.Equal(collection.Data[0].Value, 6.5)
}

func TestQueryMeasurementsByValueRange(t *testing.T) {
	is, ctx, systems, sensors, measurements := testSetup(t)
	owner := newOwner()

	system := createSystem(is, ctx, systems, owner, "ranged")
	sensor := createSensor(is, ctx, sensors, system.ID, "ph-probe", "PH")

	now := time.Now().UTC()
	for _, v := range []float64{5.5, 6.0, 6.5, 7.0, 7.5} {
		createMeasurement(is, ctx, measurements, sensor.ID, v, now)
	}

	collection, err := measurements.QueryMeasurements(ctx, owner, WithValueFrom(6.0), WithValueTo(7.0))
	is.NoErr(err)
	is.Equal(collection.TotalCount, uint64(3))
}

func TestQueryMeasurementsByTimeRange(t *testing.T) {
	is, ctx, systems, sensors, measurements := testSetup(t)
	owner := newOwner()

	system := createSystem(is, ctx, systems, owner, "timed")
	sensor := createSensor(is, ctx, sensors, system.ID, "thermometer", "TEMP")

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 5; day++ {
		createMeasurement(is, ctx, measurements, sensor.ID, 21.5, start.AddDate(0, 0, day))
	}

	collection, err := measurements.QueryMeasurements(ctx, owner,
		WithMeasuredAfter(start.AddDate(0, 0, 1)),
		WithMeasuredBefore(start.AddDate(0, 0, 3)),
	)
	is.NoErr(err)
	is.Equal(collection.TotalCount, uint64(3))
}

func TestQueryMeasurementsBySensorType(t *testing.T) {
	is, ctx, systems, sensors, measurements := testSetup(t)
	owner := newOwner()

	system := createSystem(is, ctx, systems, owner, "mixed")
	ph := createSensor(is, ctx, sensors, system.ID, "ph-probe", "PH")
	tds := createSensor(is, ctx, sensors, system.ID, "tds-meter", "TDS")

	now := time.Now().UTC()
	createMeasurement(is, ctx, measurements, ph.ID, 6.5, now)
	createMeasurement(is, ctx, measurements, tds.ID, 900, now)

	collection, err := measurements.QueryMeasurements(ctx, owner, WithSensorType("TDS"))
	is.NoErr(err)
	is.Equal(collection.TotalCount, uint64(1))
	is.Equal(collection.Data[0].Value, 900.0)
}

func TestQueryMeasurementsBySystemNameContains(t *testing.T) {
	is, ctx, systems, sensors, measurements := testSetup(t)
	owner := newOwner()

	basement := createSystem(is, ctx, systems, owner, "Basement Tower")
	kitchen := createSystem(is, ctx, systems, owner, "Kitchen Rack")

	basementSensor := createSensor(is, ctx, sensors, basement.ID, "ph-probe", "PH")
	kitchenSensor := createSensor(is, ctx, sensors, kitchen.ID, "ph-probe", "PH")

	now := time.Now().UTC()
	createMeasurement(is, ctx, measurements, basementSensor.ID, 6.5, now)
	createMeasurement(is, ctx, measurements, kitchenSensor.ID, 7.0, now)

	collection, err := measurements.QueryMeasurements(ctx, owner, WithSystemNameContains("basement"))
	is.NoErr(err)
	is.Equal(collection.TotalCount, uint64(1))
	is.Equal(collection.Data[0].Value, 6.5)
}

func TestQueryMeasurementsDefaultOrderIsNewestFirst(t *testing.T) {
	is, ctx, systems, sensors, measurements := testSetup(t)
	owner := newOwner()

	system := createSystem(is, ctx, systems, owner, "recent")
	sensor := createSensor(is, ctx, sensors, system.ID, "ph-probe", "PH")

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	createMeasurement(is, ctx, measurements, sensor.ID, 6.0, start)
	newest := createMeasurement(is, ctx, measurements, sensor.ID, 6.2, start.Add(time.Hour))

	collection, err := measurements.QueryMeasurements(ctx, owner)
	is.NoErr(err)
	is.Equal(collection.Data[0].ID, newest.ID)
}

func TestQueryMeasurementsOrderedByValue(t *testing.T) {
	is, ctx, systems, sensors, measurements := testSetup(t)
	owner := newOwner()

	system := createSystem(is, ctx, systems, owner, "sorted")
	sensor := createSensor(is, ctx, sensors, system.ID, "ph-probe", "PH")

	now := time.Now().UTC()
	createMeasurement(is, ctx, measurements, sensor.ID, 7.2, now)
	createMeasurement(is, ctx, measurements, sensor.ID, 5.8, now)

	collection, err := measurements.QueryMeasurements(ctx, owner, WithSortBy("value"))
	is.NoErr(err)
	is.Equal(collection.Data[0].Value, 5.8)
}

func TestDeleteMeasurement(t *testing.T) {
	is, ctx, systems, sensors, measurements := testSetup(t)
	owner := newOwner()

	system := createSystem(is, ctx, systems, owner, "cleanup")
	sensor := createSensor(is, ctx, sensors, system.ID, "ph-probe", "PH")
	measurement := createMeasurement(is, ctx, measurements, sensor.ID, 6.5, time.Now().UTC())

	is.NoErr(measurements.Delete(ctx, measurement.ID))

	_, err := measurements.GetMeasurementByID(ctx, measurement.ID)
	is.True(errors.Is(err, ErrMeasurementNotFound))

	err = measurements.Delete(ctx, measurement.ID)
	is.True(errors.Is(err, ErrMeasurementNotFound))
}
