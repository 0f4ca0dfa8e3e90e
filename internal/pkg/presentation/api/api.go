package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/diwise/hydroponic-mgmt/internal/pkg/application/hydroponics"
	"github.com/diwise/hydroponic-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-mgmt/internal/pkg/presentation/api/auth"
	"github.com/diwise/hydroponic-mgmt/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("hydroponic-mgmt/api")

func RegisterHandlers(ctx context.Context, router *chi.Mux, policies io.Reader, svc hydroponics.HydroponicsManagement) (*chi.Mux, error) {

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	log := logging.GetFromContext(ctx)

	authenticator, err := auth.NewAuthenticator(ctx, log, policies)
	if err != nil {
		return nil, fmt.Errorf("failed to create api authenticator: %w", err)
	}

	router.Route("/api/v0", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Route("/systems", func(r chi.Router) {
				r.Get("/", querySystemsHandler(log, svc))
				r.Post("/", createSystemHandler(log, svc))
				r.Get("/{systemID}", getSystemHandler(log, svc))
				r.Put("/{systemID}", updateSystemHandler(log, svc))
				r.Delete("/{systemID}", deleteSystemHandler(log, svc))
			})

			r.Route("/sensors", func(r chi.Router) {
				r.Get("/", querySensorsHandler(log, svc))
				r.Post("/", createSensorHandler(log, svc))
				r.Get("/{sensorID}", getSensorHandler(log, svc))
				r.Put("/{sensorID}", updateSensorHandler(log, svc))
				r.Delete("/{sensorID}", deleteSensorHandler(log, svc))
			})

			r.Route("/measurements", func(r chi.Router) {
				r.Get("/", queryMeasurementsHandler(log, svc))
				r.Post("/", createMeasurementHandler(log, svc))
				r.Get("/{measurementID}", getMeasurementHandler(log, svc))
				r.Put("/{measurementID}", updateMeasurementHandler(log, svc))
				r.Delete("/{measurementID}", deleteMeasurementHandler(log, svc))
			})
		})
	})

	return router, nil
}

func querySystemsHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "query-systems")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		collection, err := svc.QuerySystems(ctx, auth.GetUserFromContext(ctx), r.URL.Query())
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusOK, newCollectionResponse(r.URL.Path, collection))
	}
}

func getSystemHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "get-system")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		systemID, ok := uintParam(r, "systemID")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		details, err := svc.GetSystem(ctx, auth.GetUserFromContext(ctx), systemID)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusOK, ApiResponse{Data: details})
	}
}

func createSystemHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-system")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var system types.System
		err = decodeBody(r, &system)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		created, err := svc.CreateSystem(ctx, auth.GetUserFromContext(ctx), system)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusCreated, ApiResponse{Data: created})
	}
}

func updateSystemHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "update-system")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		systemID, ok := uintParam(r, "systemID")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var system types.System
		err = decodeBody(r, &system)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		updated, err := svc.UpdateSystem(ctx, auth.GetUserFromContext(ctx), systemID, system)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusOK, ApiResponse{Data: updated})
	}
}

func deleteSystemHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "delete-system")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		systemID, ok := uintParam(r, "systemID")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		err = svc.DeleteSystem(ctx, auth.GetUserFromContext(ctx), systemID)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func querySensorsHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "query-sensors")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		collection, err := svc.QuerySensors(ctx, auth.GetUserFromContext(ctx), r.URL.Query())
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusOK, newCollectionResponse(r.URL.Path, collection))
	}
}

func getSensorHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "get-sensor")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		sensorID, ok := uintParam(r, "sensorID")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		sensor, err := svc.GetSensor(ctx, auth.GetUserFromContext(ctx), sensorID)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusOK, ApiResponse{Data: sensor})
	}
}

func createSensorHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-sensor")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var sensor types.Sensor
		err = decodeBody(r, &sensor)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		created, err := svc.CreateSensor(ctx, auth.GetUserFromContext(ctx), sensor)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusCreated, ApiResponse{Data: created})
	}
}

func updateSensorHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "update-sensor")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		sensorID, ok := uintParam(r, "sensorID")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var sensor types.Sensor
		err = decodeBody(r, &sensor)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		updated, err := svc.UpdateSensor(ctx, auth.GetUserFromContext(ctx), sensorID, sensor)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusOK, ApiResponse{Data: updated})
	}
}

func deleteSensorHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "delete-sensor")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		sensorID, ok := uintParam(r, "sensorID")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		err = svc.DeleteSensor(ctx, auth.GetUserFromContext(ctx), sensorID)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func queryMeasurementsHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "query-measurements")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		collection, err := svc.QueryMeasurements(ctx, auth.GetUserFromContext(ctx), r.URL.Query())
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusOK, newCollectionResponse(r.URL.Path, collection))
	}
}

func getMeasurementHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "get-measurement")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		measurementID, ok := uintParam(r, "measurementID")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		measurement, err := svc.GetMeasurement(ctx, auth.GetUserFromContext(ctx), measurementID)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusOK, ApiResponse{Data: measurement})
	}
}

func createMeasurementHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-measurement")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var measurement types.Measurement
		err = decodeBody(r, &measurement)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		created, err := svc.CreateMeasurement(ctx, auth.GetUserFromContext(ctx), measurement)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusCreated, ApiResponse{Data: created})
	}
}

func updateMeasurementHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "update-measurement")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		measurementID, ok := uintParam(r, "measurementID")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var measurement types.Measurement
		err = decodeBody(r, &measurement)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		updated, err := svc.UpdateMeasurement(ctx, auth.GetUserFromContext(ctx), measurementID, measurement)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJSON(w, http.StatusOK, ApiResponse{Data: updated})
	}
}

func deleteMeasurementHandler(log zerolog.Logger, svc hydroponics.HydroponicsManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "delete-measurement")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		measurementID, ok := uintParam(r, "measurementID")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		err = svc.DeleteMeasurement(ctx, auth.GetUserFromContext(ctx), measurementID)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

var errBadRequestBody = fmt.Errorf("bad request body")

func decodeBody(r *http.Request, into any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errBadRequestBody
	}

	err = json.Unmarshal(body, into)
	if err != nil {
		return errBadRequestBody
	}

	return nil
}

func uintParam(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, statusCode int, response ApiResponse) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(response.Byte())
}

// writeError maps the service error taxonomy onto status codes. Foreign
// resources surface as not found on object routes, so only attempts to
// create under somebody else's parent are answered with 403.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	response := errorResponse{Error: err.Error()}
	statusCode := http.StatusInternalServerError

	rangeErr := &hydroponics.RangeError{}
	dupErr := &hydroponics.DuplicateError{}

	switch {
	case errors.Is(err, database.ErrSystemNotFound),
		errors.Is(err, database.ErrSensorNotFound),
		errors.Is(err, database.ErrMeasurementNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, hydroponics.ErrForbidden):
		statusCode = http.StatusForbidden
	case errors.Is(err, database.ErrInvalidParameter), errors.Is(err, errBadRequestBody):
		statusCode = http.StatusBadRequest
	case errors.As(err, &rangeErr):
		statusCode = http.StatusBadRequest
		response.Field = "value"
	case errors.As(err, &dupErr):
		statusCode = http.StatusBadRequest
		response.Field = "name"
	case errors.Is(err, hydroponics.ErrInvalidSensorType):
		statusCode = http.StatusBadRequest
		response.Field = "sensorType"
	case errors.Is(err, hydroponics.ErrNameRequired):
		statusCode = http.StatusBadRequest
		response.Field = "name"
	default:
		logger.Error().Err(err).Msg("request failed")
	}

	body, _ := json.Marshal(response)

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}
