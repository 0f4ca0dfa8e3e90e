package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diwise/hydroponic-mgmt/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"gorm.io/gorm"
)

var ErrSystemNotFound = fmt.Errorf("system not found")
var ErrRepositoryError = fmt.Errorf("could not fetch data from repository")

type SystemRepository interface {
	QuerySystems(ctx context.Context, owner string, conditions ...ConditionFunc) (types.Collection[System], error)
	GetSystemByID(ctx context.Context, systemID uint) (System, error)
	GetSystemByName(ctx context.Context, owner, name string) (System, error)
	SystemNameExists(ctx context.Context, owner, name string, excludeID uint) (bool, error)
	GetRecentMeasurements(ctx context.Context, systemID uint, limit int) ([]Measurement, error)
	Save(ctx context.Context, system *System) error
	Delete(ctx context.Context, systemID uint) error
}

type systemRepository struct {
	db *gorm.DB
}

func NewSystemRepository(connect ConnectorFunc) (SystemRepository, error) {
	impl, _, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&System{}, &Sensor{}, &Measurement{})
	if err != nil {
		return nil, err
	}

	return &systemRepository{
		db: impl,
	}, nil
}

func (d *systemRepository) QuerySystems(ctx context.Context, owner string, conditions ...ConditionFunc) (types.Collection[System], error) {
	logger := logging.GetFromContext(ctx)

	c := NewCondition(conditions...)

	// ownership scoping is applied before any caller supplied filter
	query := func() *gorm.DB {
		q := d.db.WithContext(ctx).Model(&System{}).Where("owner = ?", owner)

		if c.SystemName != "" {
			q = q.Where("name = ?", c.SystemName)
		}
		if c.NameContains != "" {
			q = q.Where("lower(name) LIKE ?", containsPattern(c.NameContains))
		}
		if c.CreatedAfter != nil {
			q = q.Where("created_at >= ?", *c.CreatedAfter)
		}
		if c.CreatedBefore != nil {
			q = q.Where("created_at <= ?", *c.CreatedBefore)
		}

		return q
	}

	var total int64
	err := query().Count(&total).Error
	if err != nil {
		logger.Error().Err(err).Msg("gorm error")
		return types.Collection[System]{}, ErrRepositoryError
	}

	orderBy := "created_at DESC"
	switch c.SortBy() {
	case "name":
		orderBy = orderDirection("name", c.SortDesc())
	case "created_at":
		orderBy = orderDirection("created_at", c.SortDesc())
	}

	var systems []System
	err = query().
		Order(orderBy).
		Offset(c.Offset()).
		Limit(c.Limit()).
		Preload("Sensors").
		Find(&systems).Error
	if err != nil {
		logger.Error().Err(err).Msg("gorm error")
		return types.Collection[System]{}, ErrRepositoryError
	}

	return types.Collection[System]{
		Data:       systems,
		Count:      uint64(len(systems)),
		Offset:     uint64(c.Offset()),
		Limit:      uint64(c.Limit()),
		TotalCount: uint64(total),
	}, nil
}

func (d *systemRepository) GetSystemByID(ctx context.Context, systemID uint) (System, error) {
	logger := logging.GetFromContext(ctx)

	var system System

	result := d.db.WithContext(ctx).
		Preload("Sensors").
		First(&system, systemID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return System{}, ErrSystemNotFound
		}

		logger.Error().Err(result.Error).Msg("gorm error")

		return System{}, ErrRepositoryError
	}

	return system, nil
}

func (d *systemRepository) GetSystemByName(ctx context.Context, owner, name string) (System, error) {
	var system System

	result := d.db.WithContext(ctx).
		Where("owner = ? AND name = ?", owner, name).
		First(&system)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return System{}, ErrSystemNotFound
		}
		return System{}, ErrRepositoryError
	}

	return system, nil
}

func (d *systemRepository) SystemNameExists(ctx context.Context, owner, name string, excludeID uint) (bool, error) {
	var count int64

	err := d.db.WithContext(ctx).
		Model(&System{}).
		Where("owner = ? AND name = ? AND id <> ?", owner, name, excludeID).
		Count(&count).Error

	if err != nil {
		return false, ErrRepositoryError
	}

	return count > 0, nil
}

// GetRecentMeasurements returns the newest measurements taken by any of the
// system's sensors, most recent first, independent of pagination.
func (d *systemRepository) GetRecentMeasurements(ctx context.Context, systemID uint, limit int) ([]Measurement, error) {
	var measurements []Measurement

	err := d.db.WithContext(ctx).
		Model(&Measurement{}).
		Joins("JOIN sensors ON sensors.id = measurements.sensor_id").
		Where("sensors.system_id = ?", systemID).
		Order("measurements.measured_at DESC, measurements.id DESC").
		Limit(limit).
		Find(&measurements).Error

	if err != nil {
		return nil, ErrRepositoryError
	}

	return measurements, nil
}

func (d *systemRepository) Save(ctx context.Context, system *System) error {
	return d.db.WithContext(ctx).Save(system).Error
}

func (d *systemRepository) Delete(ctx context.Context, systemID uint) error {
	result := d.db.WithContext(ctx).Delete(&System{}, systemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSystemNotFound
	}
	return nil
}

func containsPattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

func orderDirection(column string, desc bool) string {
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}
