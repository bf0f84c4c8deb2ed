package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/initial"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/physics"
)

func newTestServer(t *testing.T) (*Driver, http.Handler) {
	t.Helper()
	g := physics.DefaultGravity()
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg, g)

	d := NewDriver(DriverConfig{
		Step:    integrators.Leapfrog(g),
		Gravity: g,
		Field:   physics.Gravity{G: 1, Softening: physics.FieldSoftening},
		Dt:      0.001,
	}, initial.Lagrangian(), nil, rec)
	return d, NewHandler(d, reg, nil)
}

func do(t *testing.T, h http.Handler, method, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if out != nil && rr.Code < 300 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
	}
	return rr
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	var resp map[string]string
	rr := do(t, h, http.MethodGet, "/health", &resp)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", resp["status"])
}

func TestGetState(t *testing.T) {
	_, h := newTestServer(t)
	var resp stateResponse
	rr := do(t, h, http.MethodGet, "/state", &resp)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Zero(t, resp.Steps)
	require.Len(t, resp.Bodies, 3)
	assert.Equal(t, 1.0, resp.Bodies[0].Mass)
	assert.Empty(t, resp.Error)
}

func TestStepAndReset(t *testing.T) {
	d, h := newTestServer(t)

	var resp stateResponse
	rr := do(t, h, http.MethodPost, "/step?n=100", &resp)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 100, resp.Steps)
	assert.InDelta(t, 0.1, resp.Time, 1e-12)

	want := integrators.Iterate(integrators.Leapfrog(physics.DefaultGravity()), initial.Lagrangian(), 0.001, 100)
	assert.True(t, d.Snapshot().State.Equal(want))

	rr = do(t, h, http.MethodPost, "/step", &resp)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 101, resp.Steps)

	rr = do(t, h, http.MethodPost, "/reset", &resp)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, resp.Steps)
	assert.True(t, d.Snapshot().State.Equal(initial.Lagrangian()))
}

func TestStep_BadCount(t *testing.T) {
	_, h := newTestServer(t)
	for _, q := range []string{"0", "-3", "abc", "100001"} {
		rr := do(t, h, http.MethodPost, "/step?n="+q, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "n=%s", q)
	}
	rr := do(t, h, http.MethodGet, "/step", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestGetEnergy(t *testing.T) {
	_, h := newTestServer(t)
	do(t, h, http.MethodPost, "/step?n=50", nil)

	var resp energyResponse
	rr := do(t, h, http.MethodGet, "/energy", &resp)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.InDelta(t, -1.5, resp.Initial, 1e-10)
	assert.InDelta(t, resp.Total, resp.Kinetic+resp.Potential, 1e-12)
	assert.Less(t, resp.RelativeError, 1e-6)
	for _, c := range resp.Momentum {
		assert.InDelta(t, 0, c, 1e-12)
	}
}

func TestGetField(t *testing.T) {
	_, h := newTestServer(t)

	var resp fieldResponse
	rr := do(t, h, http.MethodGet, "/field?x=0&y=0&z=0", &resp)
	require.Equal(t, http.StatusOK, rr.Code)
	// the centre of an equilateral triangle feels no net pull
	for _, c := range resp.Acceleration {
		assert.InDelta(t, 0, c, 1e-9)
	}

	rr = do(t, h, http.MethodGet, "/field?x=10", &resp)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Less(t, resp.Acceleration[0], 0.0, "pull points back to the bodies")
	assert.InDelta(t, 3.0/100, math.Abs(resp.Acceleration[0]), 2e-3)

	rr = do(t, h, http.MethodGet, "/field?x=north", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, h, http.MethodGet, "/field?x=Inf", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	do(t, h, http.MethodPost, "/step?n=10", nil)

	rr := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "gravsim_steps_total 10")
	assert.Contains(t, body, "gravsim_bodies 3")
}

func TestDriver_Divergence(t *testing.T) {
	g := physics.DefaultGravity()
	calls := 0
	step := func(s dynamo.State, dt float64) dynamo.State {
		calls++
		if calls > 2 {
			return s.WithPositions(func(int, dynamo.Body) dynamo.Vec3 { return dynamo.V3(math.NaN(), 0, 0) })
		}
		return integrators.LeapfrogStep(s, dt)
	}
	d := NewDriver(DriverConfig{Step: step, Gravity: g, Field: g, Dt: 0.01}, initial.Lagrangian(), nil)
	h := NewHandler(d, nil, nil)

	rr := do(t, h, http.MethodPost, "/step?n=5", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, 2, d.Snapshot().Steps)
	assert.True(t, d.Snapshot().State.IsValid())

	var resp stateResponse
	do(t, h, http.MethodGet, "/state", &resp)
	assert.True(t, strings.Contains(resp.Error, "invalid state"))

	rr = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	d.Reset()
	assert.NoError(t, d.Snapshot().Failure)
}

func TestDriver_Run(t *testing.T) {
	d, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, time.Millisecond, 5) }()

	require.Eventually(t, func() bool { return d.Snapshot().Steps >= 20 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, d.Snapshot().Steps%5)
}
