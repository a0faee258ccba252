package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/climate-risk-monitor/internal/domain"
	"github.com/couchcryptid/climate-risk-monitor/internal/observability"
	"github.com/google/uuid"
)

// TokenSource supplies the signed-in user's access token, if any.
type TokenSource interface {
	AccessToken() (string, bool)
}

// Client implements domain.Provider and domain.AlertCreator against the
// climate data provider's HTTP API.
type Client struct {
	baseURL    string
	anonKey    string
	tokens     TokenSource
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a data provider client. Reads authenticate with the
// anonymous project key until WithTokens supplies a session.
func NewClient(baseURL, anonKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// WithTokens makes reads send the signed-in user's access token when one is
// available, falling back to the anonymous key.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	c.tokens = tokens
	return c
}

// bearer returns the token reads authenticate with.
func (c *Client) bearer() string {
	if c.tokens != nil {
		if token, ok := c.tokens.AccessToken(); ok && token != "" {
			return token
		}
	}
	return c.anonKey
}

// Weather fetches current conditions for a location.
func (c *Client) Weather(ctx context.Context, location string) (domain.Weather, error) {
	var resp weatherResponse
	if err := c.get(ctx, "weather", location, &resp); err != nil {
		return domain.Weather{}, err
	}
	return resp.toDomain(), nil
}

// RiskAssessment fetches the risk assessment for a location.
func (c *Client) RiskAssessment(ctx context.Context, location string) (domain.RiskAssessment, error) {
	var resp riskResponse
	if err := c.get(ctx, "risk-assessment", location, &resp); err != nil {
		return domain.RiskAssessment{}, err
	}
	return resp.toDomain(), nil
}

// Alerts fetches active alerts for a location. Both a bare JSON array and an
// {"alerts": [...]} envelope are accepted.
func (c *Client) Alerts(ctx context.Context, location string) ([]domain.Alert, error) {
	var resp alertsResponse
	if err := c.get(ctx, "alerts", location, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Alert, len(resp))
	for i, a := range resp {
		out[i] = a.toDomain()
	}
	return out, nil
}

// CreateAlert posts a new alert. An empty token falls back to the read token.
func (c *Client) CreateAlert(ctx context.Context, alert domain.Alert, token string) error {
	body, err := json.Marshal(createAlertRequest{
		Type:        alert.Kind,
		Severity:    string(alert.Severity),
		Title:       alert.Title,
		Description: alert.Description,
		Location:    alert.Location,
	})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	if token == "" {
		token = c.bearer()
	}
	resp, err := c.do(ctx, "create_alert", http.MethodPost, c.baseURL+"/alerts", token, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// get reads {base}/{resource}/{location} into out.
func (c *Client) get(ctx context.Context, resource, location string, out any) error {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, resource, url.PathEscape(location))

	resp, err := c.do(ctx, metricResource(resource), http.MethodGet, u, c.bearer(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}

// do sends a request and returns the response for any 2xx status. The caller
// must close the body.
func (c *Client) do(ctx context.Context, resource, method, fullURL, token string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderAPIDuration.WithLabelValues(resource).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(resource, "error").Inc()
		return nil, fmt.Errorf("%s request: %w", resource, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.metrics.ProviderRequests.WithLabelValues(resource, "error").Inc()
		c.logger.Debug("provider request rejected",
			"resource", resource,
			"status", resp.StatusCode,
			"request_id", requestID,
		)
		return nil, fmt.Errorf("provider API error: %s: status %d: %s", resource, resp.StatusCode, bytes.TrimSpace(msg))
	}

	c.metrics.ProviderRequests.WithLabelValues(resource, "success").Inc()
	return resp, nil
}

// metricResource maps URL path segments to metric label values.
func metricResource(resource string) string {
	if resource == "risk-assessment" {
		return domain.ResourceRisk
	}
	return resource
}
