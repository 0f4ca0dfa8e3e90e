package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matryer/is"
)

func TestGetSystem(t *testing.T) {
	is := is.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is.Equal(r.URL.Path, "/api/v0/systems/7")
		is.Equal(r.Header.Get("Authorization"), "Bearer sometoken")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(systemResponse))
	}))
	defer server.Close()

	c := NewHydroponicsClient(server.URL, "sometoken")

	result, err := c.GetSystem(context.Background(), 7)
	is.NoErr(err)
	is.Equal(result.Data.Name, "basement-tower")
	is.Equal(len(result.Data.RecentMeasurements), 1)
}

func TestGetSystemFailsOnNotFound(t *testing.T) {
	is := is.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewHydroponicsClient(server.URL, "sometoken")

	_, err := c.GetSystem(context.Background(), 99)
	is.True(err != nil)
}

func TestCreateMeasurement(t *testing.T) {
	is := is.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is.Equal(r.Method, http.MethodPost)
		is.Equal(r.URL.Path, "/api/v0/measurements")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":42,"sensorID":3,"value":6.8,"measuredAt":"2026-08-30T12:00:00Z"}}`))
	}))
	defer server.Close()

	c := NewHydroponicsClient(server.URL, "sometoken")

	measurement, err := c.CreateMeasurement(context.Background(), 3, 6.8)
	is.NoErr(err)
	is.Equal(measurement.ID, uint(42))
	is.Equal(measurement.Value, 6.8)
}

const systemResponse string = `{
	"data": {
		"id": 7,
		"name": "basement-tower",
		"owner": "grower-1",
		"sensors": [3],
		"createdAt": "2026-08-01T08:00:00Z",
		"last10Measurements": [
			{"id": 42, "sensorID": 3, "value": 6.8, "measuredAt": "2026-08-30T12:00:00Z"}
		]
	}
}`
