package hydroponics

import (
	"testing"

	"github.com/diwise/hydroponic-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/matryer/is"
)

func TestSystemsAreOwnedDirectly(t *testing.T) {
	is := is.New(t)

	system := database.System{Owner: "alice"}

	is.True(IsOwnedBy(system, "alice"))
	is.True(IsOwnedBy(&system, "alice"))
	is.True(!IsOwnedBy(system, "bob"))
}

func TestSensorOwnershipFollowsTheSystem(t *testing.T) {
	is := is.New(t)

	sensor := database.Sensor{System: database.System{Owner: "alice"}}

	is.True(IsOwnedBy(sensor, "alice"))
	is.True(!IsOwnedBy(sensor, "bob"))
}

func TestMeasurementOwnershipFollowsTheFullChain(t *testing.T) {
	is := is.New(t)

	measurement := database.Measurement{
		Sensor: database.Sensor{System: database.System{Owner: "alice"}},
	}

	is.True(IsOwnedBy(measurement, "alice"))
	is.True(IsOwnedBy(&measurement, "alice"))
	is.True(!IsOwnedBy(measurement, "bob"))
}

func TestUnknownResourceKindsAreNotOwned(t *testing.T) {
	is := is.New(t)

	is.True(!IsOwnedBy("a string", "alice"))
	is.True(!IsOwnedBy(struct{ Owner string }{Owner: "alice"}, "alice"))
	is.True(!IsOwnedBy(nil, "alice"))
}

func TestNobodyOwnsAnythingAnonymously(t *testing.T) {
	is := is.New(t)

	is.True(!IsOwnedBy(database.System{Owner: ""}, ""))
}
