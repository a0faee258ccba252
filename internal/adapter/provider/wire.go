package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-risk-monitor/internal/domain"
)

// Provider API response types.

type weatherResponse struct {
	Temperature         float64  `json:"temperature"`
	Humidity            float64  `json:"humidity"`
	WindSpeed           float64  `json:"windSpeed"`
	Condition           string   `json:"condition"`
	UVIndex             float64  `json:"uvIndex"`
	AirQuality          string   `json:"airQuality"`
	FeelsLike           *float64 `json:"feelsLike"`
	Visibility          *float64 `json:"visibility"`
	PrecipitationChance *float64 `json:"precipitationChance"`
}

func (w weatherResponse) toDomain() domain.Weather {
	return domain.Weather{
		Temperature:         w.Temperature,
		Humidity:            w.Humidity,
		WindSpeed:           w.WindSpeed,
		Condition:           w.Condition,
		UVIndex:             w.UVIndex,
		AirQuality:          w.AirQuality,
		FeelsLike:           w.FeelsLike,
		Visibility:          w.Visibility,
		PrecipitationChance: w.PrecipitationChance,
	}
}

type riskResponse struct {
	OverallRisk float64          `json:"overallRisk"`
	Factors     []factorResponse `json:"factors"`
	Triggers    *struct {
		HeatWarning bool `json:"heatWarning"`
	} `json:"triggers"`
}

type factorResponse struct {
	Type        string  `json:"type"`
	Kind        string  `json:"kind"` // newer deployments send kind instead of type
	Level       float64 `json:"level"`
	Trend       string  `json:"trend"`
	Description string  `json:"description"`
}

func (r riskResponse) toDomain() domain.RiskAssessment {
	factors := make([]domain.RiskFactor, len(r.Factors))
	for i, f := range r.Factors {
		kind := f.Kind
		if kind == "" {
			kind = f.Type
		}
		factors[i] = domain.RiskFactor{
			Kind:        kind,
			Level:       domain.ClampLevel(f.Level),
			Trend:       domain.ParseTrend(f.Trend),
			Description: f.Description,
		}
	}
	out := domain.RiskAssessment{
		OverallLevel: domain.ClampLevel(r.OverallRisk),
		Factors:      factors,
	}
	if r.Triggers != nil {
		out.Triggers.HeatWarning = r.Triggers.HeatWarning
	}
	return out
}

type alertResponse struct {
	ID          int      `json:"id"`
	Type        string   `json:"type"`
	Severity    string   `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Timestamp   jsonTime `json:"timestamp"`
	Location    string   `json:"location"`
	ExpiresAt   jsonTime `json:"expiresAt"`
}

func (a alertResponse) toDomain() domain.Alert {
	return domain.Alert{
		ID:          a.ID,
		Kind:        a.Type,
		Severity:    domain.ParseSeverity(a.Severity),
		Title:       a.Title,
		Description: a.Description,
		Location:    a.Location,
		IssuedAt:    string(a.Timestamp),
		ExpiresAt:   string(a.ExpiresAt),
	}
}

// alertsResponse decodes either a bare array or an {"alerts": [...]} envelope.
type alertsResponse []alertResponse

func (r *alertsResponse) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Alerts []alertResponse `json:"alerts"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return err
		}
		*r = env.Alerts
		return nil
	}
	var list []alertResponse
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return err
	}
	*r = list
	return nil
}

// jsonTime keeps a timestamp as the raw string the provider sent. Numbers are
// read as Unix milliseconds. Any other shape decodes to "" so a single bad
// timestamp never fails the whole alerts read.
type jsonTime string

func (t *jsonTime) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*t = ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			*t = ""
			return nil //nolint:nilerr // unreadable timestamps degrade to unknown
		}
		*t = jsonTime(s)
	default:
		ms, err := strconv.ParseFloat(string(trimmed), 64)
		if err != nil {
			*t = ""
			return nil //nolint:nilerr // unreadable timestamps degrade to unknown
		}
		*t = jsonTime(time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339))
	}
	return nil
}

type createAlertRequest struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// DecodeRiskAssessment reads a risk-assessment response body in the
// provider's wire format.
func DecodeRiskAssessment(r io.Reader) (domain.RiskAssessment, error) {
	var resp riskResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return domain.RiskAssessment{}, fmt.Errorf("decode risk-assessment: %w", err)
	}
	return resp.toDomain(), nil
}
