package hydroponics

import (
	"fmt"
	"math"
)

type Range struct {
	Min float64
	Max float64
}

// AllowedRanges holds the inclusive plausibility bounds per sensor type.
// Values outside these bounds are rejected as physically implausible for
// a hydroponic installation, not clamped.
var AllowedRanges = map[string]Range{
	"PH":   {Min: 0, Max: 14},
	"TEMP": {Min: -50, Max: 150},
	"TDS":  {Min: 0, Max: 9999},
}

type RangeError struct {
	SensorType string
	Value      float64
	Min        float64
	Max        float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("value %g is out of range [%g, %g] for sensor type %s", e.Value, e.Min, e.Max, e.SensorType)
}

type DuplicateError struct {
	Owner string
	Name  string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("a system named %s already exists for this owner", e.Name)
}

var ErrInvalidSensorType = fmt.Errorf("invalid sensor type")
var ErrNameRequired = fmt.Errorf("name must not be empty")

func ValidateMeasurementValue(sensorType string, value float64) error {
	r, ok := AllowedRanges[sensorType]
	if !ok {
		return ErrInvalidSensorType
	}

	if value < r.Min || value > r.Max {
		return &RangeError{
			SensorType: sensorType,
			Value:      value,
			Min:        r.Min,
			Max:        r.Max,
		}
	}

	return nil
}

// round2 rounds half away from zero to two decimals, which is the
// precision measurements are stored with.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
