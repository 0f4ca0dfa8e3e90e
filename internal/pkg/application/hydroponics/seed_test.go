package hydroponics

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/diwise/hydroponic-mgmt/pkg/types"
)

func TestSeedCreatesSystemsSensorsAndMeasurements(t *testing.T) {
	is, ctx, svc, _ := testSetup(t)
	owner := newOwner()

	data := seedData(owner, "tower-1")

	is.NoErr(svc.Seed(ctx, bytes.NewBufferString(data), []string{owner}))

	systems, err := svc.QuerySystems(ctx, owner, nil)
	is.NoErr(err)
	is.Equal(systems.TotalCount, uint64(1))
	is.Equal(systems.Data[0].Name, "tower-1")
	is.Equal(len(systems.Data[0].Sensors), 2)

	details, err := svc.GetSystem(ctx, owner, systems.Data[0].ID)
	is.NoErr(err)
	is.Equal(len(details.RecentMeasurements), 2)
}

func TestSeedSkipsDisallowedOwners(t *testing.T) {
	is, ctx, svc, _ := testSetup(t)
	allowed := newOwner()
	disallowed := newOwner()

	data := seedData(allowed, "allowed-rack") + seedRow(disallowed, "sneaky-rack", "PH", "ph-probe", "6.5")

	is.NoErr(svc.Seed(ctx, bytes.NewBufferString(data), []string{allowed}))

	systems, err := svc.QuerySystems(ctx, disallowed, nil)
	is.NoErr(err)
	is.Equal(systems.TotalCount, uint64(0))
}

func TestSeedIsIdempotent(t *testing.T) {
	is, ctx, svc, _ := testSetup(t)
	owner := newOwner()

	data := seedData(owner, "stable")

	is.NoErr(svc.Seed(ctx, bytes.NewBufferString(data), []string{owner}))
	is.NoErr(svc.Seed(ctx, bytes.NewBufferString(data), []string{owner}))

	systems, err := svc.QuerySystems(ctx, owner, nil)
	is.NoErr(err)
	is.Equal(systems.TotalCount, uint64(1))
	is.Equal(len(systems.Data[0].Sensors), 2)
}

func TestSeedRejectsOutOfRangeValues(t *testing.T) {
	is, ctx, svc, _ := testSetup(t)
	owner := newOwner()

	data := "owner;system;description;sensorType;sensorName;value\n" +
		seedRow(owner, "broken", types.SensorTypePH, "ph-probe", "15.2")

	err := svc.Seed(ctx, bytes.NewBufferString(data), []string{owner})
	is.True(err != nil)
}

func seedData(owner, systemName string) string {
	return "owner;system;description;sensorType;sensorName;value\n" +
		seedRow(owner, systemName, types.SensorTypePH, "ph-probe", "6.8") +
		seedRow(owner, systemName, types.SensorTypeTemperature, "thermometer", "21.5")
}

func seedRow(owner, systemName, sensorType, sensorName, value string) string {
	return fmt.Sprintf("%s;%s;seeded;%s;%s;%s\n", owner, systemName, sensorType, sensorName, value)
}
