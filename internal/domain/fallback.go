package domain

// Fallback payloads are the last-resort values served when the upstream
// provider fails. They are plausible, clearly flagged, and never cached, so
// the next request retries the provider immediately.

const fallbackDescription = "Weather data temporarily unavailable"

// FallbackCurrent synthesizes degraded current conditions.
func FallbackCurrent() CurrentConditions {
	return CurrentConditions{
		Temperature: 28,
		Humidity:    75,
		Condition:   ConditionPartlyCloudy,
		WindSpeed:   8,
		Description: fallbackDescription,
		UpdatedAt:   clock.Now().UTC(),
		Fallback:    true,
	}
}

// FallbackForecast synthesizes a degraded forecast of the requested length,
// one entry per calendar day starting today.
func FallbackForecast(days int) []DailyForecast {
	now := clock.Now().UTC()
	daily := make([]DailyForecast, days)
	for i := range daily {
		daily[i] = DailyForecast{
			Date:                     now.AddDate(0, 0, i).Format("2006-01-02"),
			TempMax:                  31,
			TempMin:                  24,
			PrecipitationSum:         0,
			PrecipitationProbability: 0,
			Condition:                ConditionPartlyCloudy,
			FlashFloodRisk:           RiskLow,
			Fallback:                 true,
		}
	}
	return daily
}

// FallbackAlerts synthesizes an empty, degraded alert list.
func FallbackAlerts() AlertBundle {
	return AlertBundle{Alerts: []PublicAlert{}, Fallback: true}
}
