// Package openmeteo implements the upstream weather provider client against
// an Open-Meteo style API and normalizes its payloads into domain types.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avinashlng1080/travel-planner-sub002/internal/domain"
	"github.com/avinashlng1080/travel-planner-sub002/internal/observability"
)

const defaultBaseURL = "https://api.open-meteo.com/v1"

// Client calls the upstream weather API. Every call carries a context
// deadline set by the service layer; the http.Client timeout is a backstop
// for calls made without one.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an upstream weather client. baseURL may be empty to use
// the production endpoint; tests point it at an httptest server.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		timeout:    timeout,
		metrics:    metrics,
		logger:     logger,
	}
}

// Forecast fetches and normalizes an N-day daily forecast. Per-day
// flash-flood risk is classified here, once, so cached entries carry it.
func (c *Client) Forecast(ctx context.Context, loc domain.Location, days int) ([]domain.DailyForecast, error) {
	params := url.Values{
		"latitude":      {formatCoord(loc.Lat)},
		"longitude":     {formatCoord(loc.Lng)},
		"daily":         {"temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max,weathercode,sunrise,sunset"},
		"forecast_days": {strconv.Itoa(days)},
		"timezone":      {"auto"},
	}

	var resp forecastResponse
	if err := c.getJSON(ctx, "forecast", "/forecast", params, &resp); err != nil {
		return nil, err
	}
	return normalizeDaily(resp.Daily)
}

// Current fetches and normalizes current conditions.
func (c *Client) Current(ctx context.Context, loc domain.Location) (domain.CurrentConditions, error) {
	params := url.Values{
		"latitude":  {formatCoord(loc.Lat)},
		"longitude": {formatCoord(loc.Lng)},
		"current":   {"temperature_2m,relative_humidity_2m,precipitation,weathercode,wind_speed_10m"},
		"timezone":  {"auto"},
	}

	var resp currentResponse
	if err := c.getJSON(ctx, "current", "/forecast", params, &resp); err != nil {
		return domain.CurrentConditions{}, err
	}
	return normalizeCurrent(resp.Current), nil
}

// Alerts fetches active provider-issued warnings for a location.
func (c *Client) Alerts(ctx context.Context, loc domain.Location) (domain.AlertBundle, error) {
	params := url.Values{
		"latitude":  {formatCoord(loc.Lat)},
		"longitude": {formatCoord(loc.Lng)},
	}

	var resp warningsResponse
	if err := c.getJSON(ctx, "alerts", "/warnings", params, &resp); err != nil {
		return domain.AlertBundle{}, err
	}

	alerts := make([]domain.PublicAlert, 0, len(resp.Warnings))
	for _, w := range resp.Warnings {
		alerts = append(alerts, domain.PublicAlert{
			Event:       w.Event,
			Headline:    w.Headline,
			Severity:    w.Severity,
			Description: w.Description,
			Onset:       w.Onset,
			Expires:     w.Expires,
		})
	}
	return domain.AlertBundle{Alerts: alerts}, nil
}

func (c *Client) getJSON(ctx context.Context, kind, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return &domain.ConfigurationError{Message: "weather API key is not set"}
	}
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", kind, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Superseded request; resolve silently.
			return context.Canceled
		}
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			c.metrics.UpstreamRequests.WithLabelValues(kind, "timeout").Inc()
			return &domain.TimeoutError{Kind: kind, Timeout: c.timeout}
		}
		c.metrics.UpstreamRequests.WithLabelValues(kind, "error").Inc()
		return &domain.UpstreamError{Message: fmt.Sprintf("%s request: %v", kind, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.UpstreamRequests.WithLabelValues(kind, "error").Inc()
		return &domain.UpstreamError{Status: resp.StatusCode, Message: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(kind, "error").Inc()
		return &domain.UpstreamError{Message: fmt.Sprintf("decode %s response: %v", kind, err)}
	}

	c.metrics.UpstreamRequests.WithLabelValues(kind, "success").Inc()
	return nil
}

func isClientTimeout(err error) bool {
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func normalizeDaily(d dailyBlock) ([]domain.DailyForecast, error) {
	n := len(d.Time)
	if n == 0 {
		return nil, &domain.UpstreamError{Message: "empty daily forecast"}
	}
	if len(d.TemperatureMax) != n || len(d.TemperatureMin) != n ||
		len(d.PrecipitationSum) != n || len(d.PrecipitationProbabilityMax) != n ||
		len(d.WeatherCode) != n {
		return nil, &domain.UpstreamError{Message: "daily forecast arrays have mismatched lengths"}
	}

	daily := make([]domain.DailyForecast, n)
	for i := 0; i < n; i++ {
		day := domain.DailyForecast{
			Date:                     d.Time[i],
			TempMax:                  d.TemperatureMax[i],
			TempMin:                  d.TemperatureMin[i],
			PrecipitationSum:         d.PrecipitationSum[i],
			PrecipitationProbability: d.PrecipitationProbabilityMax[i],
			Condition:                domain.ConditionFromCode(d.WeatherCode[i]),
			FlashFloodRisk:           domain.ClassifyFlashFloodRisk(d.PrecipitationSum[i], d.PrecipitationProbabilityMax[i]),
		}
		if i < len(d.Sunrise) {
			day.Sunrise = d.Sunrise[i]
		}
		if i < len(d.Sunset) {
			day.Sunset = d.Sunset[i]
		}
		daily[i] = day
	}
	return daily, nil
}

func normalizeCurrent(c currentBlock) domain.CurrentConditions {
	condition := domain.ConditionFromCode(c.WeatherCode)

	updatedAt := time.Now().UTC()
	if t, err := time.Parse("2006-01-02T15:04", c.Time); err == nil {
		updatedAt = t.UTC()
	}

	return domain.CurrentConditions{
		Temperature:   c.Temperature,
		Humidity:      c.RelativeHumidity,
		Condition:     condition,
		Precipitation: c.Precipitation,
		WindSpeed:     c.WindSpeed,
		Description:   domain.ConditionDescription(condition),
		UpdatedAt:     updatedAt,
	}
}

// Upstream API response types.

type forecastResponse struct {
	Daily dailyBlock `json:"daily"`
}

type dailyBlock struct {
	Time                        []string  `json:"time"`
	TemperatureMax              []float64 `json:"temperature_2m_max"`
	TemperatureMin              []float64 `json:"temperature_2m_min"`
	PrecipitationSum            []float64 `json:"precipitation_sum"`
	PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
	WeatherCode                 []int     `json:"weathercode"`
	Sunrise                     []string  `json:"sunrise"`
	Sunset                      []string  `json:"sunset"`
}

type currentResponse struct {
	Current currentBlock `json:"current"`
}

type currentBlock struct {
	Time             string  `json:"time"`
	Temperature      float64 `json:"temperature_2m"`
	RelativeHumidity float64 `json:"relative_humidity_2m"`
	Precipitation    float64 `json:"precipitation"`
	WeatherCode      int     `json:"weathercode"`
	WindSpeed        float64 `json:"wind_speed_10m"`
}

type warningsResponse struct {
	Warnings []warning `json:"warnings"`
}

type warning struct {
	Event       string `json:"event"`
	Headline    string `json:"headline"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Onset       string `json:"onset"`
	Expires     string `json:"expires"`
}
