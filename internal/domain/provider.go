package domain

import "context"

// Provider supplies raw climate data for a named location.
type Provider interface {
	// Weather returns current conditions.
	Weather(ctx context.Context, location string) (Weather, error)

	// RiskAssessment returns the overall level and per-factor levels.
	RiskAssessment(ctx context.Context, location string) (RiskAssessment, error)

	// Alerts returns active alerts in provider order.
	Alerts(ctx context.Context, location string) ([]Alert, error)
}

// AlertCreator publishes a new alert to the provider. The token authorizes
// the request; an empty token means anonymous access.
type AlertCreator interface {
	CreateAlert(ctx context.Context, alert Alert, token string) error
}
