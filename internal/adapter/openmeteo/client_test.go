package openmeteo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avinashlng1080/travel-planner-sub002/internal/domain"
	"github.com/avinashlng1080/travel-planner-sub002/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey        = "om-test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

var testLocation = domain.Location{Lat: 3.1390, Lng: 101.6869, Name: "Kuala Lumpur"}

func testClient(baseURL string) *Client {
	return NewClient(testAPIKey, baseURL, 5*time.Second,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const forecastBody = `{
	"daily": {
		"time": ["2026-08-24", "2026-08-25", "2026-08-26"],
		"temperature_2m_max": [33.1, 31.4, 30.2],
		"temperature_2m_min": [24.5, 24.0, 23.8],
		"precipitation_sum": [12.0, 90.0, 55.0],
		"precipitation_probability_max": [40, 90, 80],
		"weathercode": [2, 95, 61],
		"sunrise": ["2026-08-24T07:05", "2026-08-25T07:05", "2026-08-26T07:05"],
		"sunset": ["2026-08-24T19:20", "2026-08-25T19:20", "2026-08-26T19:20"]
	}
}`

func TestForecast_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, testAPIKey, r.URL.Query().Get("apikey"))
		assert.Equal(t, "3.1390", r.URL.Query().Get("latitude"))
		assert.Equal(t, "101.6869", r.URL.Query().Get("longitude"))
		assert.Equal(t, "3", r.URL.Query().Get("forecast_days"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, err := w.Write([]byte(forecastBody))
		require.NoError(t, err)
	}))
	defer srv.Close()

	daily, err := testClient(srv.URL).Forecast(context.Background(), testLocation, 3)
	require.NoError(t, err)
	require.Len(t, daily, 3)

	assert.Equal(t, "2026-08-24", daily[0].Date)
	assert.Equal(t, 33.1, daily[0].TempMax)
	assert.Equal(t, domain.ConditionPartlyCloudy, daily[0].Condition)
	assert.Equal(t, domain.RiskLow, daily[0].FlashFloodRisk)
	assert.Equal(t, "2026-08-24T07:05", daily[0].Sunrise)

	// Risk is classified during normalization, one pass per day.
	assert.Equal(t, domain.ConditionStorm, daily[1].Condition)
	assert.Equal(t, domain.RiskSevere, daily[1].FlashFloodRisk)
	assert.Equal(t, domain.RiskHigh, daily[2].FlashFloodRisk)
}

func TestForecast_MismatchedArraysIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"daily": {"time": ["2026-08-24"], "temperature_2m_max": []}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), testLocation, 1)
	require.Error(t, err)

	var uerr *domain.UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Contains(t, uerr.Message, "mismatched")
}

func TestForecast_EmptyDailyIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"daily": {"time": []}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), testLocation, 7)

	var uerr *domain.UpstreamError
	require.ErrorAs(t, err, &uerr)
}

func TestForecast_Non200IsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), testLocation, 7)
	require.Error(t, err)

	var uerr *domain.UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, http.StatusTooManyRequests, uerr.Status)
}

func TestForecast_MalformedJSONIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"daily": not-json`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), testLocation, 7)

	var uerr *domain.UpstreamError
	require.ErrorAs(t, err, &uerr)
}

func TestForecast_DeadlineExceededIsTimeoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := testClient(srv.URL).Forecast(ctx, testLocation, 7)
	require.Error(t, err)

	var terr *domain.TimeoutError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "forecast", terr.Kind)
}

func TestForecast_CancelledContextResolvesSilently(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := testClient(srv.URL).Forecast(ctx, testLocation, 7)
	require.ErrorIs(t, err, context.Canceled)

	// A superseded request must not masquerade as an upstream failure.
	var uerr *domain.UpstreamError
	assert.False(t, errors.As(err, &uerr))
}

func TestMissingAPIKeyIsConfigurationError(t *testing.T) {
	c := NewClient("", "http://127.0.0.1:1", time.Second,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.Forecast(context.Background(), testLocation, 7)

	var cerr *domain.ConfigurationError
	require.ErrorAs(t, err, &cerr)
}

func TestCurrent_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("current"), "temperature_2m")

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{
			"current": {
				"time": "2026-08-24T14:30",
				"temperature_2m": 31.2,
				"relative_humidity_2m": 78,
				"precipitation": 0.4,
				"weathercode": 80,
				"wind_speed_10m": 9.7
			}
		}`))
	}))
	defer srv.Close()

	current, err := testClient(srv.URL).Current(context.Background(), testLocation)
	require.NoError(t, err)

	assert.Equal(t, 31.2, current.Temperature)
	assert.Equal(t, 78.0, current.Humidity)
	assert.Equal(t, domain.ConditionRain, current.Condition)
	assert.Equal(t, "Rain", current.Description)
	assert.Equal(t, time.Date(2026, 8, 24, 14, 30, 0, 0, time.UTC), current.UpdatedAt)
	assert.False(t, current.Fallback)
}

func TestAlerts_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/warnings", r.URL.Path)

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{
			"warnings": [
				{"event": "Thunderstorm", "headline": "Severe thunderstorm warning", "severity": "severe"}
			]
		}`))
	}))
	defer srv.Close()

	bundle, err := testClient(srv.URL).Alerts(context.Background(), testLocation)
	require.NoError(t, err)
	require.Len(t, bundle.Alerts, 1)

	assert.Equal(t, "Thunderstorm", bundle.Alerts[0].Event)
	assert.Equal(t, "severe", bundle.Alerts[0].Severity)
	assert.False(t, bundle.Fallback)
}

func TestAlerts_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"warnings": []}`))
	}))
	defer srv.Close()

	bundle, err := testClient(srv.URL).Alerts(context.Background(), testLocation)
	require.NoError(t, err)
	assert.Empty(t, bundle.Alerts)
}
