package hydroponics

import (
	"github.com/diwise/hydroponic-mgmt/internal/pkg/infrastructure/repositories/database"
)

// IsOwnedBy reports whether the given resource belongs to owner. Sensors
// and measurements resolve ownership transitively through their parent
// chain, so callers must fetch them with the chain loaded.
//
// The switch is deliberately closed: a resource kind that is not listed
// here is not owned by anyone. New resource kinds get their own case.
func IsOwnedBy(resource any, owner string) bool {
	if owner == "" {
		return false
	}

	switch r := resource.(type) {
	case database.System:
		return r.Owner == owner
	case *database.System:
		return r != nil && r.Owner == owner
	case database.Sensor:
		return r.System.Owner == owner
	case *database.Sensor:
		return r != nil && r.System.Owner == owner
	case database.Measurement:
		return r.Sensor.System.Owner == owner
	case *database.Measurement:
		return r != nil && r.Sensor.System.Owner == owner
	}

	return false
}
