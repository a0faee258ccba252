package domain

import "strings"

// Location is a named place. Two locations are the same for refresh purposes
// when their names match.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// SameAs reports whether l and other refer to the same selection.
func (l Location) SameAs(other Location) bool {
	return strings.TrimSpace(l.Name) == strings.TrimSpace(other.Name)
}

// Weather is a current-conditions snapshot. Optional fields are nil when the
// provider does not report them.
type Weather struct {
	Temperature         float64  `json:"temperature"`
	Humidity            float64  `json:"humidity"`
	WindSpeed           float64  `json:"windSpeed"`
	Condition           string   `json:"condition"`
	UVIndex             float64  `json:"uvIndex"`
	AirQuality          string   `json:"airQuality"`
	FeelsLike           *float64 `json:"feelsLike,omitempty"`
	Visibility          *float64 `json:"visibility,omitempty"`
	PrecipitationChance *float64 `json:"precipitationChance,omitempty"`
}

// TemperatureBand buckets a Fahrenheit temperature for display coloring.
func TemperatureBand(tempF float64) string {
	switch {
	case tempF >= 90:
		return "hot"
	case tempF >= 80:
		return "warm"
	case tempF >= 70:
		return "mild"
	case tempF >= 60:
		return "cool"
	default:
		return "cold"
	}
}
