package domain

import "time"

// Resource names used as Warnings keys.
const (
	ResourceWeather = "weather"
	ResourceRisk    = "risk"
	ResourceAlerts  = "alerts"
)

// Snapshot is the fully classified view of one location produced by one
// refresh. A new Snapshot replaces the previous one wholesale.
type Snapshot struct {
	ID              string               `json:"id"`
	Location        Location             `json:"location"`
	Generation      uint64               `json:"generation"`
	Weather         Weather              `json:"weather"`
	TemperatureBand string               `json:"temperatureBand"`
	Assessment      ClassifiedAssessment `json:"assessment"`
	Insight         string               `json:"insight"`
	Alerts          []DisplayAlert       `json:"alerts"`
	Actions         []Action             `json:"actions"`
	// Warnings holds a human-readable message per resource that fell back
	// to literal data. Empty when every read succeeded.
	Warnings  map[string]string `json:"warnings,omitempty"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

// Degraded reports whether any resource in the snapshot is fallback data.
func (s Snapshot) Degraded() bool { return len(s.Warnings) > 0 }

// SnapshotInput is the raw material for BuildSnapshot.
type SnapshotInput struct {
	ID         string
	Location   Location
	Generation uint64
	Weather    Weather
	Assessment RiskAssessment
	Alerts     []Alert
	Warnings   map[string]string
}

// BuildSnapshot classifies the assessment, picks the insight and actions, and
// renders alert times against the package clock.
func BuildSnapshot(in SnapshotInput) Snapshot {
	classified := ClassifyAssessment(in.Assessment)

	alerts := make([]DisplayAlert, len(in.Alerts))
	for i, a := range in.Alerts {
		alerts[i] = NewDisplayAlert(a)
	}

	var warnings map[string]string
	if len(in.Warnings) > 0 {
		warnings = make(map[string]string, len(in.Warnings))
		for k, v := range in.Warnings {
			warnings[k] = v
		}
	}

	return Snapshot{
		ID:              in.ID,
		Location:        in.Location,
		Generation:      in.Generation,
		Weather:         in.Weather,
		TemperatureBand: TemperatureBand(in.Weather.Temperature),
		Assessment:      classified,
		Insight:         GenerateInsight(classified.OverallLevel, classified.Factors),
		Alerts:          alerts,
		Actions:         RecommendActions(classified.OverallSeverity),
		Warnings:        warnings,
		FetchedAt:       clock.Now().UTC(),
	}
}
