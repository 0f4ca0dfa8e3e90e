package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var ErrInvalidParameter = fmt.Errorf("invalid query parameter")

type ConditionFunc func(*Condition) *Condition

// Condition is an explicit parameter object for collection queries. It
// enumerates the supported filter operators per field, the requested
// ordering and the requested page. Owner scoping is NOT part of a
// Condition; the repositories always apply it first, so no combination
// of conditions can widen a result set beyond the ownership boundary.
type Condition struct {
	SystemID           uint
	SensorID           uint
	SystemName         string
	SystemNameContains string
	NameContains       string
	SensorType         string

	ValueFrom *float64
	ValueTo   *float64

	MeasuredAfter  *time.Time
	MeasuredBefore *time.Time

	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	sortBy   string
	sortDesc bool

	page     int
	pageSize int
}

func NewCondition(conditions ...ConditionFunc) *Condition {
	c := &Condition{
		page:     1,
		pageSize: DefaultPageSize,
	}
	for _, condition := range conditions {
		c = condition(c)
	}
	return c
}

// SortBy returns the requested ordering key as-is. Each repository maps
// it against its own allow-list and falls back to the default ordering
// for keys it does not recognize.
func (c Condition) SortBy() string {
	return c.sortBy
}

func (c Condition) SortDesc() bool {
	return c.sortDesc
}

func (c Condition) Offset() int {
	return (c.page - 1) * c.pageSize
}

func (c Condition) Limit() int {
	return c.pageSize
}

func WithSystemID(systemID uint) ConditionFunc {
	return func(c *Condition) *Condition {
		c.SystemID = systemID
		return c
	}
}

func WithSensorID(sensorID uint) ConditionFunc {
	return func(c *Condition) *Condition {
		c.SensorID = sensorID
		return c
	}
}

func WithSystemName(name string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.SystemName = name
		return c
	}
}

func WithSystemNameContains(s string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.SystemNameContains = strings.TrimSpace(s)
		return c
	}
}

func WithNameContains(s string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.NameContains = strings.TrimSpace(s)
		return c
	}
}

func WithSensorType(sensorType string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.SensorType = sensorType
		return c
	}
}

func WithValueFrom(v float64) ConditionFunc {
	return func(c *Condition) *Condition {
		c.ValueFrom = &v
		return c
	}
}

func WithValueTo(v float64) ConditionFunc {
	return func(c *Condition) *Condition {
		c.ValueTo = &v
		return c
	}
}

func WithMeasuredAfter(ts time.Time) ConditionFunc {
	return func(c *Condition) *Condition {
		c.MeasuredAfter = &ts
		return c
	}
}

func WithMeasuredBefore(ts time.Time) ConditionFunc {
	return func(c *Condition) *Condition {
		c.MeasuredBefore = &ts
		return c
	}
}

func WithCreatedAfter(ts time.Time) ConditionFunc {
	return func(c *Condition) *Condition {
		c.CreatedAfter = &ts
		return c
	}
}

func WithCreatedBefore(ts time.Time) ConditionFunc {
	return func(c *Condition) *Condition {
		c.CreatedBefore = &ts
		return c
	}
}

func WithSortBy(sortBy string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.sortBy = strings.ToLower(sortBy)
		return c
	}
}

func WithSortDesc(desc bool) ConditionFunc {
	return func(c *Condition) *Condition {
		c.sortDesc = desc
		return c
	}
}

func WithPage(page int) ConditionFunc {
	return func(c *Condition) *Condition {
		c.page = page
		return c
	}
}

// WithPageSize silently clamps oversized page sizes to MaxPageSize.
func WithPageSize(pageSize int) ConditionFunc {
	return func(c *Condition) *Condition {
		if pageSize > MaxPageSize {
			pageSize = MaxPageSize
		}
		c.pageSize = pageSize
		return c
	}
}

// ParseConditions maps request query parameters onto condition options.
// Unknown parameters and unknown ordering keys are ignored, but malformed
// page numbers, page sizes and range bounds fail with ErrInvalidParameter.
func ParseConditions(params map[string][]string) ([]ConditionFunc, error) {
	conditions := make([]ConditionFunc, 0, len(params))

	for k, v := range params {
		if len(v) == 0 || v[0] == "" {
			continue
		}

		switch strings.ToLower(k) {
		case "system_id":
			id, err := strconv.ParseUint(v[0], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: system_id %s is not a valid identifier", ErrInvalidParameter, v[0])
			}
			conditions = append(conditions, WithSystemID(uint(id)))
		case "sensor_id":
			id, err := strconv.ParseUint(v[0], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: sensor_id %s is not a valid identifier", ErrInvalidParameter, v[0])
			}
			conditions = append(conditions, WithSensorID(uint(id)))
		case "system_name":
			conditions = append(conditions, WithSystemName(v[0]))
		case "system_name_contains":
			conditions = append(conditions, WithSystemNameContains(v[0]))
		case "name":
			conditions = append(conditions, WithNameContains(v[0]))
		case "sensor_type":
			conditions = append(conditions, WithSensorType(v[0]))
		case "value_gte":
			value, err := strconv.ParseFloat(v[0], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: value_gte %s is not a number", ErrInvalidParameter, v[0])
			}
			conditions = append(conditions, WithValueFrom(value))
		case "value_lte":
			value, err := strconv.ParseFloat(v[0], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: value_lte %s is not a number", ErrInvalidParameter, v[0])
			}
			conditions = append(conditions, WithValueTo(value))
		case "measured_gte":
			ts, err := parseTimestamp(v[0])
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, WithMeasuredAfter(ts))
		case "measured_lte":
			ts, err := parseTimestamp(v[0])
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, WithMeasuredBefore(ts))
		case "created_gte":
			ts, err := parseTimestamp(v[0])
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, WithCreatedAfter(ts))
		case "created_lte":
			ts, err := parseTimestamp(v[0])
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, WithCreatedBefore(ts))
		case "sort_by":
			conditions = append(conditions, WithSortBy(v[0]))
		case "sort_order":
			conditions = append(conditions, WithSortDesc(strings.EqualFold(v[0], "desc")))
		case "page":
			page, err := strconv.Atoi(v[0])
			if err != nil || page < 1 {
				return nil, fmt.Errorf("%w: page %s is not a valid page number", ErrInvalidParameter, v[0])
			}
			conditions = append(conditions, WithPage(page))
		case "page_size":
			pageSize, err := strconv.Atoi(v[0])
			if err != nil || pageSize < 1 {
				return nil, fmt.Errorf("%w: page_size %s is not a valid page size", ErrInvalidParameter, v[0])
			}
			conditions = append(conditions, WithPageSize(pageSize))
		}
	}

	return conditions, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s is not a valid timestamp", ErrInvalidParameter, s)
}
