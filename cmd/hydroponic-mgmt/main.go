package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/diwise/hydroponic-mgmt/internal/pkg/application/hydroponics"
	"github.com/diwise/hydroponic-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-mgmt/internal/pkg/infrastructure/router"
	"github.com/diwise/hydroponic-mgmt/internal/pkg/presentation/api"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/rs/zerolog"
)

const serviceName string = "hydroponic-mgmt"

func main() {
	serviceVersion := buildinfo.SourceVersion()
	ctx, logger, cleanup := o11y.Init(context.Background(), serviceName, serviceVersion)
	defer cleanup()

	policiesFile := env.GetVariableOrDefault(logger, "POLICIES_FILE", "/opt/diwise/config/authz.rego")
	configFile := env.GetVariableOrDefault(logger, "CONFIG_FILE", "")
	seedFile := env.GetVariableOrDefault(logger, "SEED_FILE", "")

	flag.StringVar(&policiesFile, "policies", policiesFile, "an authorization policy file")
	flag.StringVar(&configFile, "config", configFile, "a service configuration file")
	flag.StringVar(&seedFile, "seed", seedFile, "a csv file with seed data")
	flag.Parse()

	policies, err := os.Open(policiesFile)
	exitIf(err, logger, "unable to open opa policy file")
	defer policies.Close()

	svc := setupHydroponicsService(ctx, logger, configFile)

	if seedFile != "" {
		seed, err := os.Open(seedFile)
		exitIf(err, logger, "unable to open seed data file")

		allowedOwners := strings.Split(
			env.GetVariableOrDefault(logger, "ALLOWED_SEED_OWNERS", "default"), ",",
		)

		err = svc.Seed(ctx, seed, allowedOwners)
		seed.Close()
		exitIf(err, logger, "failed to seed database")
	}

	apiPort := env.GetVariableOrDefault(logger, "SERVICE_PORT", "8080")

	r, err := setupRouter(ctx, policies, svc)
	exitIf(err, logger, "failed to setup router")

	logger.Info().Str("port", apiPort).Msg("starting to listen for incoming connections")

	err = http.ListenAndServe(":"+apiPort, r)
	exitIf(err, logger, "failed to start request router")
}

func setupHydroponicsService(ctx context.Context, logger zerolog.Logger, configFile string) hydroponics.HydroponicsManagement {
	connect := database.NewPostgreSQLConnector(logger)

	systems, err := database.NewSystemRepository(connect)
	exitIf(err, logger, "failed to connect to system repository")

	sensors, err := database.NewSensorRepository(connect)
	exitIf(err, logger, "failed to connect to sensor repository")

	measurements, err := database.NewMeasurementRepository(connect)
	exitIf(err, logger, "failed to connect to measurement repository")

	var cfg *hydroponics.Config

	if configFile != "" {
		f, err := os.Open(configFile)
		exitIf(err, logger, "unable to open configuration file")

		cfg, err = hydroponics.NewConfig(f)
		f.Close()
		exitIf(err, logger, "unable to parse configuration file")
	}

	config := messaging.LoadConfiguration(serviceName, logger)
	messenger, err := messaging.Initialize(config)
	exitIf(err, logger, "failed to init messenger")

	return hydroponics.New(systems, sensors, measurements, messenger, cfg)
}

func setupRouter(ctx context.Context, policies io.Reader, svc hydroponics.HydroponicsManagement) (http.Handler, error) {
	r := router.New(serviceName)

	return api.RegisterHandlers(ctx, r, policies, svc)
}

func exitIf(err error, logger zerolog.Logger, msg string, args ...any) {
	if err != nil {
		logger.Fatal().Err(err).Msg(fmt.Sprintf(msg, args...))
	}
}
