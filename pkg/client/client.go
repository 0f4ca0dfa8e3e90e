package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/diwise/hydroponic-mgmt/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

type HydroponicsClient interface {
	GetSystem(ctx context.Context, systemID uint) (*SystemResult, error)
	CreateMeasurement(ctx context.Context, sensorID uint, value float64) (*types.Measurement, error)
}

type hydroponicsClient struct {
	url   string
	token string
}

var tracer = otel.Tracer("hydroponics-client")

// SystemResult is the detail representation returned by the management
// api, including the most recent measurements across the system.
type SystemResult struct {
	Data types.SystemDetails `json:"data"`
}

type measurementResult struct {
	Data types.Measurement `json:"data"`
}

func NewHydroponicsClient(url, accessToken string) HydroponicsClient {
	return &hydroponicsClient{
		url:   url,
		token: accessToken,
	}
}

func (c *hydroponicsClient) GetSystem(ctx context.Context, systemID uint) (*SystemResult, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-system")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)

	log.Debug().Msgf("looking up system %d", systemID)

	httpClient := http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	url := fmt.Sprintf("%s/api/v0/systems/%d", c.url, systemID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err = fmt.Errorf("failed to create http request: %w", err)
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to retrieve system information: %w", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("request failed with status code %d", resp.StatusCode)
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body: %w", err)
		return nil, err
	}

	result := &SystemResult{}

	err = json.Unmarshal(respBody, result)
	if err != nil {
		err = fmt.Errorf("failed to unmarshal response body: %w", err)
		return nil, err
	}

	return result, nil
}

func (c *hydroponicsClient) CreateMeasurement(ctx context.Context, sensorID uint, value float64) (*types.Measurement, error) {
	var err error
	ctx, span := tracer.Start(ctx, "create-measurement")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)

	body, err := json.Marshal(types.Measurement{SensorID: sensorID, Value: value})
	if err != nil {
		err = fmt.Errorf("failed to marshal measurement: %w", err)
		return nil, err
	}

	httpClient := http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/v0/measurements", bytes.NewBuffer(body))
	if err != nil {
		err = fmt.Errorf("failed to create http request: %w", err)
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Error().Msgf("failed to post measurement: %s", err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		err = fmt.Errorf("request failed with status code %d", resp.StatusCode)
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body: %w", err)
		return nil, err
	}

	result := &measurementResult{}

	err = json.Unmarshal(respBody, result)
	if err != nil {
		err = fmt.Errorf("failed to unmarshal response body: %w", err)
		return nil, err
	}

	return &result.Data, nil
}
