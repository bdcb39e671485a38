package domain

// ConditionFromCode maps a WMO weather interpretation code into the closed
// condition enum. Unknown codes map to cloudy rather than failing.
func ConditionFromCode(code int) WeatherCondition {
	switch code {
	case 0:
		return ConditionClear
	case 1, 2:
		return ConditionPartlyCloudy
	case 3:
		return ConditionCloudy
	case 45, 48:
		return ConditionFog
	case 51, 53, 55, 56, 57:
		return ConditionDrizzle
	case 61, 63, 66, 80, 81:
		return ConditionRain
	case 65, 67, 82:
		return ConditionHeavyRain
	case 71, 73, 75, 77, 85, 86:
		return ConditionSnow
	case 95, 96, 99:
		return ConditionStorm
	default:
		return ConditionCloudy
	}
}

var conditionDescriptions = map[WeatherCondition]string{
	ConditionClear:        "Clear sky",
	ConditionPartlyCloudy: "Partly cloudy",
	ConditionCloudy:       "Overcast",
	ConditionFog:          "Fog",
	ConditionDrizzle:      "Light drizzle",
	ConditionRain:         "Rain",
	ConditionHeavyRain:    "Heavy rain",
	ConditionStorm:        "Thunderstorm",
	ConditionSnow:         "Snow",
}

// ConditionDescription returns the human-facing text for a condition.
func ConditionDescription(c WeatherCondition) string {
	if d, ok := conditionDescriptions[c]; ok {
		return d
	}
	return "Overcast"
}

// ClassifyFlashFloodRisk maps one day's precipitation sum (mm) and
// probability (%) to a risk level. Both thresholds must hold; comparisons
// are strict. See the package documentation for why this is conjunctive.
func ClassifyFlashFloodRisk(precipitationSumMm, precipitationProbabilityPct float64) RiskLevel {
	switch {
	case precipitationSumMm > 80 && precipitationProbabilityPct > 85:
		return RiskSevere
	case precipitationSumMm > 50 && precipitationProbabilityPct > 75:
		return RiskHigh
	case precipitationSumMm > 30 && precipitationProbabilityPct > 60:
		return RiskModerate
	default:
		return RiskLow
	}
}

// AggregateAlert folds daily forecasts into at most one advisory: the
// maximum risk level across the window, with every above-low day collected
// in forecast order. Returns nil when the window maximum is low.
func AggregateAlert(daily []DailyForecast) *FlashFloodAlert {
	maxLevel := RiskLow
	var affected []string
	for _, day := range daily {
		if day.FlashFloodRisk > maxLevel {
			maxLevel = day.FlashFloodRisk
		}
		if day.FlashFloodRisk > RiskLow {
			affected = append(affected, day.Date)
		}
	}
	if maxLevel == RiskLow {
		return nil
	}

	alert := alertCopy[maxLevel]
	alert.Level = maxLevel
	alert.AffectedDays = affected
	return &alert
}

// alertCopy holds the user-facing text per aggregate level. Copy is a
// function of the level only, never of individual days.
var alertCopy = map[RiskLevel]FlashFloodAlert{
	RiskModerate: {
		Title:           "Flash Flood Watch",
		Message:         "Sustained rainfall is forecast during your trip. Low-lying areas and river trails may flood.",
		Recommendation:  "Keep outdoor plans flexible and check conditions again the morning of each affected day.",
		PlanBSuggestion: "Line up an indoor option such as a museum, gallery, or covered market.",
	},
	RiskHigh: {
		Title:           "Flash Flood Warning",
		Message:         "Heavy rainfall with high confidence is forecast. Flash flooding of streets and waterways is likely.",
		Recommendation:  "Avoid riverside and canyon routes on the affected days and plan extra travel time.",
		PlanBSuggestion: "Move outdoor activities to unaffected days and book indoor alternatives now.",
	},
	RiskSevere: {
		Title:           "Severe Flash Flood Alert",
		Message:         "Extreme rainfall is forecast with very high confidence. Dangerous flash flooding is expected.",
		Recommendation:  "Do not plan outdoor activities on the affected days and follow local authority guidance.",
		PlanBSuggestion: "Consider rescheduling the affected days or switching to destinations outside the warning area.",
	},
}
