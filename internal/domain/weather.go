package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// WeatherCondition is the closed set of display conditions derived from the
// provider's WMO weather codes.
type WeatherCondition string

const (
	ConditionClear        WeatherCondition = "clear"
	ConditionPartlyCloudy WeatherCondition = "partly-cloudy"
	ConditionCloudy       WeatherCondition = "cloudy"
	ConditionFog          WeatherCondition = "fog"
	ConditionDrizzle      WeatherCondition = "drizzle"
	ConditionRain         WeatherCondition = "rain"
	ConditionHeavyRain    WeatherCondition = "heavy-rain"
	ConditionStorm        WeatherCondition = "storm"
	ConditionSnow         WeatherCondition = "snow"
)

// RiskLevel is the ordinal flash-flood risk scale. The numeric order matters:
// alert aggregation takes the maximum across a multi-day window.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskModerate
	RiskHigh
	RiskSevere
)

var riskNames = map[RiskLevel]string{
	RiskLow:      "low",
	RiskModerate: "moderate",
	RiskHigh:     "high",
	RiskSevere:   "severe",
}

func (r RiskLevel) String() string {
	if name, ok := riskNames[r]; ok {
		return name
	}
	return fmt.Sprintf("risklevel(%d)", int(r))
}

// MarshalJSON encodes the level as its lowercase name.
func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts the lowercase names produced by MarshalJSON.
func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for level, name := range riskNames {
		if name == s {
			*r = level
			return nil
		}
	}
	return fmt.Errorf("unknown risk level %q", s)
}

// CurrentConditions is the normalized now-cast for a location.
type CurrentConditions struct {
	Temperature   float64          `json:"temperature"`   // °C
	Humidity      float64          `json:"humidity"`      // %
	Condition     WeatherCondition `json:"condition"`
	Precipitation float64          `json:"precipitation"` // mm in the last hour
	WindSpeed     float64          `json:"windSpeed"`     // km/h
	Description   string           `json:"description"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	Fallback      bool             `json:"fallback,omitempty"`
}

// DailyForecast is one normalized calendar day. FlashFloodRisk is computed
// once at normalization time and stored, not recomputed per read.
type DailyForecast struct {
	Date                     string           `json:"date"` // YYYY-MM-DD
	TempMax                  float64          `json:"tempMax"`
	TempMin                  float64          `json:"tempMin"`
	PrecipitationSum         float64          `json:"precipitationSum"`         // mm
	PrecipitationProbability float64          `json:"precipitationProbability"` // %
	Condition                WeatherCondition `json:"condition"`
	FlashFloodRisk           RiskLevel        `json:"flashFloodRisk"`
	Sunrise                  string           `json:"sunrise,omitempty"`
	Sunset                   string           `json:"sunset,omitempty"`
	Fallback                 bool             `json:"fallback,omitempty"`
}

// PublicAlert is a provider-issued weather warning, passed through verbatim.
type PublicAlert struct {
	Event       string `json:"event"`
	Headline    string `json:"headline,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Description string `json:"description,omitempty"`
	Onset       string `json:"onset,omitempty"`
	Expires     string `json:"expires,omitempty"`
}

// AlertBundle wraps the provider alert list so the degraded-mode flag
// travels with it.
type AlertBundle struct {
	Alerts   []PublicAlert `json:"alerts"`
	Fallback bool          `json:"fallback,omitempty"`
}

// FlashFloodAlert is the derived advisory for a forecast window. It is
// regenerated from the daily forecasts on every classification pass and
// never persisted.
type FlashFloodAlert struct {
	Level           RiskLevel `json:"level"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Recommendation  string    `json:"recommendation"`
	PlanBSuggestion string    `json:"planBSuggestion,omitempty"`
	AffectedDays    []string  `json:"affectedDays"`
}
