package hydroponics

import (
	"context"
	"strings"
	"time"

	"github.com/diwise/hydroponic-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-mgmt/pkg/types"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/samber/lo"
)

func (s *service) QuerySystems(ctx context.Context, owner string, params map[string][]string) (types.Collection[types.System], error) {
	conditions, err := database.ParseConditions(params)
	if err != nil {
		return types.Collection[types.System]{}, err
	}

	collection, err := s.systems.QuerySystems(ctx, owner, conditions...)
	if err != nil {
		return types.Collection[types.System]{}, err
	}

	return types.Collection[types.System]{
		Data: lo.Map(collection.Data, func(system database.System, _ int) types.System {
			return s.toSystemDTO(system)
		}),
		Count:      collection.Count,
		Offset:     collection.Offset,
		Limit:      collection.Limit,
		TotalCount: collection.TotalCount,
	}, nil
}

func (s *service) GetSystem(ctx context.Context, owner string, systemID uint) (types.SystemDetails, error) {
	system, err := s.systems.GetSystemByID(ctx, systemID)
	if err != nil {
		return types.SystemDetails{}, err
	}

	if !IsOwnedBy(system, owner) {
		return types.SystemDetails{}, database.ErrSystemNotFound
	}

	recent, err := s.systems.GetRecentMeasurements(ctx, systemID, 10)
	if err != nil {
		return types.SystemDetails{}, err
	}

	return types.SystemDetails{
		System: s.toSystemDTO(system),
		RecentMeasurements: lo.Map(recent, func(m database.Measurement, _ int) types.Measurement {
			return toMeasurementDTO(m)
		}),
	}, nil
}

func (s *service) CreateSystem(ctx context.Context, owner string, system types.System) (types.System, error) {
	var err error
	ctx, span := tracer.Start(ctx, "create-system")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	name := strings.TrimSpace(system.Name)
	if name == "" {
		err = ErrNameRequired
		return types.System{}, err
	}

	exists, err := s.systems.SystemNameExists(ctx, owner, name, 0)
	if err != nil {
		return types.System{}, err
	}
	if exists {
		err = &DuplicateError{Owner: owner, Name: name}
		return types.System{}, err
	}

	// the owner is always the authenticated caller, regardless of body
	entity := database.System{
		Name:        name,
		Description: system.Description,
		Owner:       owner,
		CreatedAt:   time.Now().UTC(),
	}

	err = s.systems.Save(ctx, &entity)
	if err != nil {
		return types.System{}, err
	}

	s.publish(ctx, &types.SystemCreated{
		SystemID:  entity.ID,
		Owner:     owner,
		Timestamp: entity.CreatedAt,
	})

	return s.toSystemDTO(entity), nil
}

func (s *service) UpdateSystem(ctx context.Context, owner string, systemID uint, system types.System) (types.System, error) {
	var err error
	ctx, span := tracer.Start(ctx, "update-system")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	entity, err := s.systems.GetSystemByID(ctx, systemID)
	if err != nil {
		return types.System{}, err
	}

	if !IsOwnedBy(entity, owner) {
		err = database.ErrSystemNotFound
		return types.System{}, err
	}

	name := strings.TrimSpace(system.Name)
	if name == "" {
		err = ErrNameRequired
		return types.System{}, err
	}

	exists, err := s.systems.SystemNameExists(ctx, owner, name, entity.ID)
	if err != nil {
		return types.System{}, err
	}
	if exists {
		err = &DuplicateError{Owner: owner, Name: name}
		return types.System{}, err
	}

	// owner and creation time are immutable
	entity.Name = name
	entity.Description = system.Description

	err = s.systems.Save(ctx, &entity)
	if err != nil {
		return types.System{}, err
	}

	s.publish(ctx, &types.SystemUpdated{
		SystemID:  entity.ID,
		Owner:     owner,
		Timestamp: time.Now().UTC(),
	})

	return s.toSystemDTO(entity), nil
}

func (s *service) DeleteSystem(ctx context.Context, owner string, systemID uint) error {
	var err error
	ctx, span := tracer.Start(ctx, "delete-system")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	entity, err := s.systems.GetSystemByID(ctx, systemID)
	if err != nil {
		return err
	}

	if !IsOwnedBy(entity, owner) {
		err = database.ErrSystemNotFound
		return err
	}

	err = s.systems.Delete(ctx, systemID)
	if err != nil {
		return err
	}

	s.publish(ctx, &types.SystemDeleted{
		SystemID:  systemID,
		Owner:     owner,
		Timestamp: time.Now().UTC(),
	})

	return nil
}

func (s *service) publish(ctx context.Context, message messaging.TopicMessage) {
	logger := logging.GetFromContext(ctx)

	err := s.messenger.PublishOnTopic(ctx, message)
	if err != nil {
		logger.Error().Err(err).Msgf("failed to publish message on topic %s", message.TopicName())
	}
}
