package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/couchcryptid/climate-risk-monitor/internal/adapter/httpadapter"
	"github.com/couchcryptid/climate-risk-monitor/internal/domain"
	"github.com/couchcryptid/climate-risk-monitor/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockMonitor struct {
	snap     *domain.Snapshot
	location domain.Location
	selected []domain.Location
}

func (m *mockMonitor) Current() (domain.Snapshot, bool) {
	if m.snap == nil {
		return domain.Snapshot{}, false
	}
	return *m.snap, true
}

func (m *mockMonitor) Location() domain.Location { return m.location }

func (m *mockMonitor) Select(loc domain.Location) bool {
	if m.location.SameAs(loc) {
		return false
	}
	m.location = loc
	m.selected = append(m.selected, loc)
	return true
}

type mockSessions struct {
	state     session.State
	signInErr error
	signUpErr error
	signOuts  int
}

func (m *mockSessions) SignIn(_ context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("sign in: %w", session.ErrMissingCredentials)
	}
	if m.signInErr != nil {
		return m.signInErr
	}
	m.state = session.State{User: session.User{ID: "u1", Email: email}, SignedIn: true}
	return nil
}

func (m *mockSessions) SignUp(ctx context.Context, email, password, _ string) error {
	if m.signUpErr != nil {
		return m.signUpErr
	}
	return m.SignIn(ctx, email, password)
}

func (m *mockSessions) SignOut(_ context.Context) error {
	m.signOuts++
	m.state = session.State{}
	return nil
}

func (m *mockSessions) State() session.State { return m.state }

var garissa = domain.Location{Name: "Garissa, Kenya", Lat: -0.4535, Lon: 39.6594}

func newTestServer(readyErr error, mon *mockMonitor, sessions httpadapter.Sessions) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, mon, sessions,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(nil, &mockMonitor{}, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	rec := do(t, newTestServer(nil, &mockMonitor{}, nil), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, newTestServer(errors.New("not ready yet"), &mockMonitor{}, nil), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(nil, &mockMonitor{}, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- snapshot and location ---

func TestSnapshot(t *testing.T) {
	mon := &mockMonitor{location: garissa}
	srv := newTestServer(nil, mon, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/snapshot", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	mon.snap = &domain.Snapshot{ID: "snap-1", Location: garissa, Insight: domain.InsightLowUrgency}
	rec = do(t, srv, http.MethodGet, "/api/v1/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	got := decode[domain.Snapshot](t, rec)
	assert.Equal(t, "snap-1", got.ID)
	assert.Equal(t, garissa, got.Location)
}

func TestSelectLocation(t *testing.T) {
	mon := &mockMonitor{location: garissa}
	srv := newTestServer(nil, mon, nil)

	rec := do(t, srv, http.MethodPut, "/api/v1/location", `{"name":"Wajir, Kenya","lat":1.75,"lon":40.06}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["changed"])
	require.Len(t, mon.selected, 1)
	assert.Equal(t, "Wajir, Kenya", mon.selected[0].Name)

	rec = do(t, srv, http.MethodPut, "/api/v1/location", `{"name":"  Wajir, Kenya "}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	body = decode[map[string]any](t, rec)
	assert.Equal(t, false, body["changed"])

	rec = do(t, srv, http.MethodGet, "/api/v1/location", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Wajir, Kenya", decode[domain.Location](t, rec).Name)
}

func TestSelectLocation_BadRequest(t *testing.T) {
	srv := newTestServer(nil, &mockMonitor{location: garissa}, nil)

	rec := do(t, srv, http.MethodPut, "/api/v1/location", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/v1/location", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "invalid JSON body")
}

// --- engine ---

func TestClassify(t *testing.T) {
	srv := newTestServer(nil, &mockMonitor{}, nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/classify", `{
		"overallLevel": 55,
		"factors": [
			{"kind": "Storm Risk", "level": 45, "trend": "stable"},
			{"kind": "Flood Risk", "level": 150, "trend": "increasing"}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Assessment domain.ClassifiedAssessment `json:"assessment"`
		Insight    string                      `json:"insight"`
		Actions    []domain.Action             `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, domain.SeverityModerate, got.Assessment.OverallSeverity)
	require.Len(t, got.Assessment.Factors, 2)
	assert.Equal(t, domain.SeverityModerate, got.Assessment.Factors[0].Severity)
	assert.Equal(t, domain.SeverityExtreme, got.Assessment.Factors[1].Severity)
	assert.InDelta(t, 100.0, got.Assessment.Factors[1].Level, 0.001)
	assert.Equal(t, "🌊", got.Assessment.Factors[1].Icon)
	assert.Contains(t, got.Insight, "Flood Risk is the primary concern")
	assert.Len(t, got.Actions, 6)
}

func TestPredictRisk(t *testing.T) {
	srv := newTestServer(nil, &mockMonitor{}, nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/predict-risk", `{"rainfall_mm": 62}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.FloodPrediction](t, rec)
	assert.Equal(t, "High Flood Risk", got.Risk)
	assert.Equal(t, "Move to higher ground", got.Action)
	assert.Equal(t, domain.SeverityHigh, got.Severity)

	rec = do(t, srv, http.MethodPost, "/api/v1/predict-risk?rainfall_mm=25", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Moderate Flood Risk", decode[domain.FloodPrediction](t, rec).Risk)

	rec = do(t, srv, http.MethodPost, "/api/v1/predict-risk", `{"rainfall_mm": 0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Low Risk", decode[domain.FloodPrediction](t, rec).Risk)
}

func TestPredictRisk_BadRequest(t *testing.T) {
	srv := newTestServer(nil, &mockMonitor{}, nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/predict-risk", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "rainfall_mm is required", decode[map[string]string](t, rec)["error"])

	rec = do(t, srv, http.MethodPost, "/api/v1/predict-risk?rainfall_mm=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/v1/predict-risk?rainfall_mm=NaN", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKindLookup(t *testing.T) {
	srv := newTestServer(nil, &mockMonitor{}, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/kinds/Heat%20Risk", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.KindInfo{Category: "heat", Icon: "🌡️"}, decode[domain.KindInfo](t, rec))

	rec = do(t, srv, http.MethodGet, "/api/v1/kinds/volcano", "")
	assert.Equal(t, domain.GenericKind, decode[domain.KindInfo](t, rec))
}

// --- session ---

func TestSessionRoutes(t *testing.T) {
	sessions := &mockSessions{}
	srv := newTestServer(nil, &mockMonitor{}, sessions)

	rec := do(t, srv, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[session.State](t, rec).SignedIn)

	rec = do(t, srv, http.MethodPost, "/api/v1/session", `{"email":"a@b.c","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[session.State](t, rec)
	assert.True(t, st.SignedIn)
	assert.Equal(t, "a@b.c", st.User.Email)

	rec = do(t, srv, http.MethodDelete, "/api/v1/session", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, sessions.signOuts)
}

func TestSessionSignInErrors(t *testing.T) {
	sessions := &mockSessions{signInErr: errors.New("sign in: Invalid login credentials")}
	srv := newTestServer(nil, &mockMonitor{}, sessions)

	rec := do(t, srv, http.MethodPost, "/api/v1/session", `{"email":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/v1/session", `{"email":"a@b.c","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "sign in: Invalid login credentials", decode[map[string]string](t, rec)["error"])
}

func TestSessionSignUp(t *testing.T) {
	srv := newTestServer(nil, &mockMonitor{}, &mockSessions{})
	rec := do(t, srv, http.MethodPost, "/api/v1/session/signup", `{"email":"n@e.w","password":"pw","name":"New"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, decode[session.State](t, rec).SignedIn)

	srv = newTestServer(nil, &mockMonitor{}, &mockSessions{signUpErr: errors.New("sign up: User already registered")})
	rec = do(t, srv, http.MethodPost, "/api/v1/session/signup", `{"email":"n@e.w","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionIdentityServiceDown(t *testing.T) {
	down := fmt.Errorf("sign up: %w", fmt.Errorf("%w: connection refused", session.ErrUnavailable))
	srv := newTestServer(nil, &mockMonitor{}, &mockSessions{signUpErr: down, signInErr: down})

	rec := do(t, srv, http.MethodPost, "/api/v1/session/signup", `{"email":"n@e.w","password":"pw"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/v1/session", `{"email":"n@e.w","password":"pw"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSessionRoutesAbsentWithoutManager(t *testing.T) {
	srv := newTestServer(nil, &mockMonitor{}, nil)
	rec := do(t, srv, http.MethodGet, "/api/v1/session", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
