package domain

import "strings"

// Severity is a derived risk band. It is never stored on its own; it is
// always recomputed from a level with ClassifySeverity.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityExtreme  Severity = "extreme"
)

// Rank orders severities from 0 (low) to 3 (extreme). Unknown values rank -1.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityModerate:
		return 1
	case SeverityHigh:
		return 2
	case SeverityExtreme:
		return 3
	default:
		return -1
	}
}

// Valid reports whether s is one of the four known bands.
func (s Severity) Valid() bool { return s.Rank() >= 0 }

// ParseSeverity reads a provider-supplied severity, ignoring case and
// surrounding space. Unrecognized values read as moderate.
func ParseSeverity(raw string) Severity {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return SeverityModerate
	}
	return s
}

// Trend is the direction a factor is moving in.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// ParseTrend reads a provider-supplied trend. Unrecognized values read as stable.
func ParseTrend(raw string) Trend {
	switch t := Trend(strings.ToLower(strings.TrimSpace(raw))); t {
	case TrendIncreasing, TrendDecreasing:
		return t
	default:
		return TrendStable
	}
}

// Symbol returns the arrow shown next to a factor. Unknown trends render as stable.
func (t Trend) Symbol() string {
	switch t {
	case TrendIncreasing:
		return "↗"
	case TrendDecreasing:
		return "↘"
	default:
		return "→"
	}
}

// RiskFactor is one named hazard contribution to an assessment.
type RiskFactor struct {
	Kind        string  `json:"kind"`
	Level       float64 `json:"level"`
	Trend       Trend   `json:"trend"`
	Description string  `json:"description,omitempty"`
}

// Triggers are provider-side flags raised alongside an assessment.
type Triggers struct {
	HeatWarning bool `json:"heatWarning,omitempty"`
}

// RiskAssessment is the provider's view of one location at one point in time.
// Factors keep the provider's emission order.
type RiskAssessment struct {
	OverallLevel float64      `json:"overallLevel"`
	Factors      []RiskFactor `json:"factors"`
	Triggers     Triggers     `json:"triggers,omitzero"`
}

// ClassifiedFactor is a RiskFactor with its derived band.
type ClassifiedFactor struct {
	RiskFactor
	Severity Severity `json:"severity"`
	Category string   `json:"category"`
	Icon     string   `json:"icon"`
}

// ClassifiedAssessment is the output of ClassifyAssessment.
type ClassifiedAssessment struct {
	OverallLevel    float64            `json:"overallLevel"`
	OverallSeverity Severity           `json:"overallSeverity"`
	Factors         []ClassifiedFactor `json:"factors"`
	Triggers        Triggers           `json:"triggers,omitzero"`
}

// Levels returns the factors' underlying RiskAssessment, suitable for
// classifying again.
func (c ClassifiedAssessment) Levels() RiskAssessment {
	factors := make([]RiskFactor, len(c.Factors))
	for i, f := range c.Factors {
		factors[i] = f.RiskFactor
	}
	return RiskAssessment{
		OverallLevel: c.OverallLevel,
		Factors:      factors,
		Triggers:     c.Triggers,
	}
}
