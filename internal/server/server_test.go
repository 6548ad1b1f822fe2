package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	return newTestServerFor(t, config.Test)
}

func newTestServerFor(t *testing.T, env config.Environment) (*Server, string) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	mediaRoot := t.TempDir()
	cfg := &config.Config{
		Environment:     env,
		ServerHost:      "127.0.0.1",
		ServerPort:      "0",
		PageSize:        6,
		IngredientMatch: config.MatchPrefix,
		StorageBackend:  config.StorageLocal,
		MediaRoot:       mediaRoot,
		MediaURL:        "/media/",
	}
	srv := New(Options{Dependencies: api.Dependencies{
		DB:     db,
		Config: cfg,
		Auth:   service.NewAuthService(db, "test-secret", time.Hour, nil),
		Images: service.NewImageService(service.NewLocalImageStore(mediaRoot, cfg.MediaURL), zap.NewNop()),
	}}, zap.NewNop())
	return srv, mediaRoot
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := get(srv.Handler(), "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "disabled", body["redis"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	get(srv.Handler(), "/api/tags/")
	w := get(srv.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `foodgram_http_requests_total{method="GET",route="/api/tags/",status="200"} 1`)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv, _ := newTestServer(t)

	w := get(srv.Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Not found."}`, w.Body.String())

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/tags/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServesMedia(t *testing.T) {
	srv, root := newTestServer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "recipes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "recipes", "a.png"), []byte("png"), 0o644))

	w := get(srv.Handler(), "/media/recipes/a.png")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", strings.TrimSpace(w.Body.String()))
}

func TestRunStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestProductionUsesReleaseMode(t *testing.T) {
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })

	newTestServerFor(t, config.Test)
	assert.Equal(t, gin.TestMode, gin.Mode())

	newTestServerFor(t, config.Production)
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
}
