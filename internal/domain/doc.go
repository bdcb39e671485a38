// Package domain models normalized weather data and the flash-flood risk
// classification used by the travel planner.
//
// # Data Source
//
// Forecast and current-condition data comes from an Open-Meteo style API:
// daily metrics arrive as parallel arrays (one slot per calendar day) and
// conditions are encoded as WMO weather interpretation codes. The adapter
// layer decodes the provider payload; everything in this package operates on
// the normalized types below.
//
// # WMO Weather Codes
//
// The provider's numeric codes collapse into a closed condition enum:
//
//	0        clear
//	1, 2     partly-cloudy
//	3        cloudy
//	45, 48   fog
//	51–57    drizzle
//	61–63, 66, 80, 81   rain
//	65, 67, 82          heavy-rain
//	71–77, 85, 86       snow
//	95–99    storm
//
// Unrecognized codes map to cloudy. [ConditionFromCode] never fails; the
// provider occasionally ships experimental codes and a forecast render must
// not break on one.
//
// # Flash-Flood Risk Classification
//
// Risk is a four-level ordinal scale (low, moderate, high, severe) derived
// from two signals per day: precipitation sum (mm) and precipitation
// probability (%). Both thresholds must hold for a level to trigger, checked
// from severe downward with strict comparisons:
//
//	severe:    sum > 80 AND probability > 85
//	high:      sum > 50 AND probability > 75
//	moderate:  sum > 30 AND probability > 60
//	low:       otherwise
//
// Magnitude alone is not enough: a 60mm sum at 40% probability is a model
// hedging on an afternoon convective shower, not a flood setup. An earlier
// OR-based classifier alerted on nearly every monsoon-season day in
// Southeast Asia and was replaced with the conjunctive table above.
//
// # Alerts
//
// [AggregateAlert] folds a multi-day forecast into at most one alert: the
// maximum risk level across the window, with every above-low day listed in
// AffectedDays. Alert copy depends only on the aggregate level, never on
// individual days, so identical risk windows produce identical alerts.
//
// # Cache Keys
//
// Locations are quantized to two decimal places (~1.1 km) before keying, so
// nearby map positions share cache entries. This trades a little positional
// precision for a much higher hit rate while a user drags the map; it is a
// deliberate policy, not rounding sloppiness.
package domain
