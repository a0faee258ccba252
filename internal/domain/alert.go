package domain

import (
	"fmt"
	"strings"
	"time"
)

// UnknownTime is shown in place of an issue time that cannot be parsed.
const UnknownTime = "Unknown time"

// expiryLayout formats expiry dates for display.
const expiryLayout = "Jan 2, 2006"

// Alert is a warning issued by the provider. Severity is supplied directly
// and is not derived from any level. Timestamps are the provider's raw
// strings; use FormatIssued and FormatExpiry to render them.
type Alert struct {
	ID          int      `json:"id"`
	Kind        string   `json:"kind"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	IssuedAt    string   `json:"issuedAt"`
	ExpiresAt   string   `json:"expiresAt,omitempty"`
}

// HeatWarningAlert builds the alert raised when an assessment reports a heat trigger.
func HeatWarningAlert(location string) Alert {
	return Alert{
		Kind:        "heat",
		Severity:    SeverityHigh,
		Title:       "Extreme Heat Warning",
		Description: fmt.Sprintf("Temperature exceeding 95°F detected in %s", location),
		Location:    location,
	}
}

// DisplayAlert is an Alert with its timestamps rendered for the current time.
type DisplayAlert struct {
	Alert
	Icon    string `json:"icon"`
	Issued  string `json:"issued"`
	Expires string `json:"expires,omitempty"`
}

// NewDisplayAlert renders a for display using the package clock.
func NewDisplayAlert(a Alert) DisplayAlert {
	expires, _ := FormatExpiry(a.ExpiresAt)
	return DisplayAlert{
		Alert:   a,
		Icon:    LookupKind(a.Kind).Icon,
		Issued:  FormatIssued(a.IssuedAt),
		Expires: expires,
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 and a few zone-less variants (read as UTC).
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatIssued renders an issue time relative to now: "3d ago", "5h ago",
// "12m ago" or "Just now". Times in the future also render as "Just now".
// Unparseable input renders as UnknownTime.
func FormatIssued(raw string) string {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return UnknownTime
	}

	d := clock.Since(t)
	if d < time.Minute {
		return "Just now"
	}
	if days := int(d / (24 * time.Hour)); days > 0 {
		return fmt.Sprintf("%dd ago", days)
	}
	if hours := int(d / time.Hour); hours > 0 {
		return fmt.Sprintf("%dh ago", hours)
	}
	return fmt.Sprintf("%dm ago", int(d/time.Minute))
}

// FormatExpiry renders an expiry date. It returns false when raw is empty or
// unparseable, in which case no expiry should be shown.
func FormatExpiry(raw string) (string, bool) {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return "", false
	}
	return t.Format(expiryLayout), true
}
