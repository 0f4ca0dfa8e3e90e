package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func testSetup(t *testing.T) (*is.I, context.Context, SystemRepository, SensorRepository, MeasurementRepository) {
	is := is.New(t)
	ctx := context.Background()

	conn := NewSQLiteConnector(zerolog.Nop())

	systems, err := NewSystemRepository(conn)
	is.NoErr(err)

	sensors, err := NewSensorRepository(conn)
	is.NoErr(err)

	measurements, err := NewMeasurementRepository(conn)
	is.NoErr(err)

	return is, ctx, systems, sensors, measurements
}

// newOwner returns a unique owner identity so that tests sharing the
// in-memory database cannot observe each other's rows.
func newOwner() string {
	return "user-" + uuid.NewString()
}

func createSystem(is *is.I, ctx context.Context, repo SystemRepository, owner, name string) System {
	system := System{
		Name:        name,
		Description: "test system",
		Owner:       owner,
		CreatedAt:   time.Now().UTC(),
	}
	is.NoErr(repo.Save(ctx, &system))
	return system
}

func createSensor(is *is.I, ctx context.Context, repo SensorRepository, systemID uint, name, sensorType string) Sensor {
	sensor := Sensor{
		SystemID:   systemID,
		Name:       name,
		SensorType: sensorType,
	}
	is.NoErr(repo.Save(ctx, &sensor))
	return sensor
}

func createMeasurement(is *is.I, ctx context.Context, repo MeasurementRepository, sensorID uint, value float64, measuredAt time.Time) Measurement {
	measurement := Measurement{
		SensorID:   sensorID,
		Value:      value,
		MeasuredAt: measuredAt,
	}
	is.NoErr(repo.Save(ctx, &measurement))
	return measurement
}

func seedSystems(is *is.I, ctx context.Context, repo SystemRepository, owner string, count int) []System {
	systems := make([]System, 0, count)
	for i := 0; i < count; i++ {
		systems = append(systems, createSystem(is, ctx, repo, owner, fmt.Sprintf("system-%02d", i)))
	}
	return systems
}
