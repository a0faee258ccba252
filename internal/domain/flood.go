package domain

// Rainfall thresholds in millimetres. Readings strictly above a threshold
// move into the next band.
const (
	HighFloodRainfallMM     = 50
	ModerateFloodRainfallMM = 20
)

// FloodPrediction is the rules-based flood outlook for a rainfall reading.
type FloodPrediction struct {
	RainfallMM float64  `json:"rainfallMm"`
	Risk       string   `json:"risk"`
	Action     string   `json:"action"`
	Severity   Severity `json:"severity"`
}

// PredictFloodRisk maps a rainfall reading to a flood outlook. NaN and
// negative readings are low risk.
func PredictFloodRisk(rainfallMM float64) FloodPrediction {
	p := FloodPrediction{RainfallMM: rainfallMM}
	switch {
	case rainfallMM > HighFloodRainfallMM:
		p.Risk, p.Action, p.Severity = "High Flood Risk", "Move to higher ground", SeverityHigh
	case rainfallMM > ModerateFloodRainfallMM:
		p.Risk, p.Action, p.Severity = "Moderate Flood Risk", "Stay alert", SeverityModerate
	default:
		p.Risk, p.Action, p.Severity = "Low Risk", "No immediate action", SeverityLow
	}
	return p
}
