package database

import (
	"errors"
	"testing"
)

func TestSaveAndGetSensor(t *testing.T) {
	is, ctx, systems, sensors, _ := testSetup(t)
	owner := newOwner()

	system := createSystem(is, ctx, systems, owner, "lettuce-rack")
	created := createSensor(is, ctx, sensors, system.ID, "ph-probe", "PH")

	fetched, err := sensors.GetSensorByID(ctx, created.ID)
	is.NoErr(err)
	is.Equal(fetched.Name, "ph-probe")
	is.Equal(fetched.SensorType, "PH")
	is.Equal(fetched.System.Owner, owner)
}

func TestGetUnknownSensorReturnsNotFound(t *testing.T) {
	is, ctx, _, sensors, _ := testSetup(t)

	_, err := sensors.GetSensorByID(ctx, 4711000)
	is.True(errors.Is(err, ErrSensorNotFound))
}

func TestQuerySensorsIsScopedToOwner(t *testing.T) {
	is, ctx, systems, sensors, _ := testSetup(t)
	alice := newOwner()
	bob := newOwner()

	aliceSystem := createSystem(is, ctx, systems, alice, "alice-rack")
	bobSystem := createSystem(is, ctx, systems, bob, "bob-rack")

	createSensor(is, ctx, sensors, aliceSystem.ID, "ph-probe", "PH")
	createSensor(is, ctx, sensors, bobSystem.ID, "tds-meter", "TDS")

	collection, err := sensors.QuerySensors(ctx, alice)
	is.NoErr(err)
	is.Equal(collection.TotalCount, uint64(1))
	is.Equal(collection.Data[0].Name, "ph-probe")
}

func TestQuerySensorsBySystemAndType(t *testing.T) {
	is, ctx, systems, sensors, _ := testSetup(t)
	owner := newOwner()

	first := createSystem(is, ctx, systems, owner, "rack-one")
	second := createSystem(is, ctx, systems, owner, "rack-two")

	createSensor(is, ctx, sensors, first.ID, "ph-probe", "PH")
	createSensor(is, ctx, sensors, first.ID, "thermometer", "TEMP")
	createSensor(is, ctx, sensors, second.ID, "thermometer", "TEMP")

	collection, err := sensors.QuerySensors(ctx, owner, WithSystemID(first.ID))
	is.NoErr(err)
	is.Equal(collection.TotalCount, uint64(2))

	collection, err = sensors.QuerySensors(ctx, owner, WithSystemID(first.ID), WithSensorType("TEMP"))
	is.NoErr(err)
	is.Equal(collection.TotalCount, uint64(1))
	is.Equal(collection.Data[0].Name, "thermometer")
}

func TestQuerySensorsBySystemNameContains(t *testing.T) {
	is, ctx, systems, sensors, _ := testSetup(t)
	owner := newOwner()

	basement := createSystem(is, ctx, systems, owner, "Basement Tower")
	kitchen := createSystem(is, ctx, systems, owner, "Kitchen Rack")

	createSensor(is, ctx, sensors, basement.ID, "ph-probe", "PH")
	createSensor(is, ctx, sensors, kitchen.ID, "ph-probe", "PH")

	collection, err := sensors.QuerySensors(ctx, owner, WithSystemNameContains("basement"))
	is.NoErr(err)
	is.Equal(collection.TotalCount, uint64(1))
	is.Equal(collection.Data[0].SystemID, basement.ID)
}

func TestQuerySensorsDefaultOrderIsByName(t *testing.T) {
	is, ctx, systems, sensors, _ := testSetup(t)
	owner := newOwner()

	system := createSystem(is, ctx, systems, owner, "ordered")
	createSensor(is, ctx, sensors, system.ID, "zeta", "PH")
	createSensor(is, ctx, sensors, system.ID, "alpha", "TDS")

	collection, err := sensors.QuerySensors(ctx, owner)
	is.NoErr(err)
	is.Equal(collection.Data[0].Name, "alpha")
	is.Equal(collection.Data[1].Name, "zeta")
}

func TestDeleteSensorCascadesToMeasurements(t *testing.T) {
	is, ctx, systems, sensors, measurements := testSetup(t)
	owner := newOwner()

	system := createSystem(is, ctx, systems, owner, "pruned")
	sensor := createSensor(is, ctx, sensors, system.ID, "ph-probe", "PH")
	measurement := createMeasurement(is, ctx, measurements, sensor.ID, 6.8, system.CreatedAt)

	is.NoErr(sensors.Delete(ctx, sensor.ID))

	_, err := measurements.GetMeasurementByID(ctx, measurement.ID)
	is.True(errors.Is(err, ErrMeasurementNotFound))

	// the system itself is untouched
	_, err = systems.GetSystemByID(ctx, system.ID)
	is.NoErr(err)
}
