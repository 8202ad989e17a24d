package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek-bajpai1/athletecho/internal/config"
	"github.com/abhishek-bajpai1/athletecho/internal/handler"
	"github.com/abhishek-bajpai1/athletecho/internal/health"
	"github.com/abhishek-bajpai1/athletecho/internal/metrics"
	"github.com/abhishek-bajpai1/athletecho/internal/service"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
	"github.com/abhishek-bajpai1/athletecho/pkg/jwt"
)

type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, token string) (*jwt.Claims, error) {
	if token != "good" {
		return nil, apperrors.ErrTokenInvalid
	}
	return &jwt.Claims{UserID: "u1", Platform: jwt.PlatformWeb}, nil
}

func setup(t *testing.T) http.Handler {
	t.Helper()
	catalog, err := service.ParseCoachingCatalog([]byte("coaches:\n  - name: Meera\n    sport: Cricket\nfacilities: []\n"))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	cfg := &config.Config{
		App: config.AppConfig{Mode: "test"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		},
	}
	up := func(context.Context) error { return nil }
	return SetupRouter(cfg, stubAuth{}, Handlers{
		Coaching: handler.NewCoachingHandler(catalog),
	}, Ops{
		Health:  health.NewCheckerFuncs(up, up, nil),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, m, nil)
}

func TestRouter_Ops(t *testing.T) {
	r := setup(t)

	for _, path := range []string{"/health", "/ready"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_AuthenticatedRoutes(t *testing.T) {
	r := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/coaching/coaches", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coaching/coaches?sport=Cricket", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Meera")

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouter_MetricsRecordRoutes(t *testing.T) {
	r := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coaching/coaches", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `route="/api/v1/coaching/coaches"`), body)
}
