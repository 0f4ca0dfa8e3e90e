package hydroponics

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/diwise/hydroponic-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-mgmt/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/samber/lo"
)

// Seed loads systems, sensors and an initial measurement per sensor from
// a semicolon separated file on the format
//
//	owner;system;description;sensorType;sensorName;value
//
// Rows for owners outside allowedOwners are skipped, as are rows for
// systems the owner already has, which makes reseeding idempotent.
func (s *service) Seed(ctx context.Context, reader io.Reader, allowedOwners []string) error {
	logger := logging.GetFromContext(ctx)

	r := csv.NewReader(reader)
	r.Comma = ';'

	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read seed data: %w", err)
	}

	rowCount := 0
	skipped := 0

	// systems created during this run, so that multi sensor systems can
	// span several rows while preexisting systems are left untouched
	created := map[string]database.System{}

	for idx, row := range rows {
		if idx == 0 {
			// header
			continue
		}

		if len(row) != 6 {
			return fmt.Errorf("seed row %d has %d fields, expected 6", idx, len(row))
		}

		owner := row[0]

		if !lo.Contains(allowedOwners, owner) {
			skipped++
			continue
		}

		systemName := row[1]
		sensorType := row[3]

		if !types.IsValidSensorType(sensorType) {
			return fmt.Errorf("seed row %d: %s is not a known sensor type", idx, sensorType)
		}

		value, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return fmt.Errorf("seed row %d: %s is not a number", idx, row[5])
		}

		key := owner + "/" + systemName

		system, ok := created[key]
		if !ok {
			_, err = s.systems.GetSystemByName(ctx, owner, systemName)
			if err == nil {
				skipped++
				continue
			}
			if !errors.Is(err, database.ErrSystemNotFound) {
				return err
			}

			system = database.System{
				Name:        systemName,
				Description: row[2],
				Owner:       owner,
				CreatedAt:   time.Now().UTC(),
			}

			err = s.systems.Save(ctx, &system)
			if err != nil {
				return err
			}

			created[key] = system
		}

		sensor := database.Sensor{
			SystemID:   system.ID,
			Name:       row[4],
			SensorType: sensorType,
		}

		err = s.sensors.Save(ctx, &sensor)
		if err != nil {
			return err
		}

		value = round2(value)

		err = ValidateMeasurementValue(sensorType, value)
		if err != nil {
			return fmt.Errorf("seed row %d: %w", idx, err)
		}

		err = s.measurements.Save(ctx, &database.Measurement{
			SensorID:   sensor.ID,
			Value:      value,
			MeasuredAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		rowCount++
	}

	logger.Info().Msgf("seeded %d sensors (%d rows skipped)", rowCount, skipped)

	return nil
}
