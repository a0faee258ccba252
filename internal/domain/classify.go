package domain

import (
	"fmt"
	"math"
	"strings"
)

// Insight messages. The middle one takes the dominant factor's kind.
const (
	InsightHighUrgency = "Based on current conditions and forecast models, multiple high-risk factors are present. Immediate precautionary measures are recommended."
	insightPrimaryFmt  = "%s is the primary concern for the next 48 hours. Consider limiting outdoor activities during peak risk periods."
	InsightLowUrgency  = "Current conditions present low to moderate risk. Continue monitoring weather updates and maintain standard safety precautions."

	// GenericConcernLabel names the concern when no factor is high enough to be dominant.
	GenericConcernLabel = "Climate risk"
)

// ClassifySeverity maps a level to its band. It is total: NaN and
// out-of-range inputs are clamped first and never produce an error.
func ClassifySeverity(level float64) Severity {
	level = ClampLevel(level)
	switch {
	case level >= 80:
		return SeverityExtreme
	case level >= 60:
		return SeverityHigh
	case level >= 30:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

// ClampLevel bounds a level to [0,100]. NaN becomes 0.
func ClampLevel(level float64) float64 {
	switch {
	case math.IsNaN(level), level < 0:
		return 0
	case level > 100:
		return 100
	default:
		return level
	}
}

// ClassifyAssessment derives the overall band and a band per factor. Factor
// order is preserved and the result shares no memory with the input.
func ClassifyAssessment(a RiskAssessment) ClassifiedAssessment {
	factors := make([]ClassifiedFactor, len(a.Factors))
	for i, f := range a.Factors {
		f.Level = ClampLevel(f.Level)
		info := LookupKind(f.Kind)
		factors[i] = ClassifiedFactor{
			RiskFactor: f,
			Severity:   ClassifySeverity(f.Level),
			Category:   info.Category,
			Icon:       info.Icon,
		}
	}

	overall := ClampLevel(a.OverallLevel)
	return ClassifiedAssessment{
		OverallLevel:    overall,
		OverallSeverity: ClassifySeverity(overall),
		Factors:         factors,
		Triggers:        a.Triggers,
	}
}

// GenerateInsight returns the one-sentence summary for an assessment.
//
// Below 70 and at or above 40, the named concern is the first factor in the
// given order with level >= 60, not the highest one.
func GenerateInsight(overallLevel float64, factors []ClassifiedFactor) string {
	overallLevel = ClampLevel(overallLevel)
	switch {
	case overallLevel >= 70:
		return InsightHighUrgency
	case overallLevel >= 40:
		return fmt.Sprintf(insightPrimaryFmt, dominantConcern(factors))
	default:
		return InsightLowUrgency
	}
}

func dominantConcern(factors []ClassifiedFactor) string {
	for _, f := range factors {
		if f.Level < 60 {
			continue
		}
		if kind := strings.TrimSpace(f.Kind); kind != "" {
			return kind
		}
		return GenericConcernLabel
	}
	return GenericConcernLabel
}
