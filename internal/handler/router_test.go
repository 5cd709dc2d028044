//go:build unit

package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/handler"
	"grid-reservation/internal/handler/api"
	"grid-reservation/internal/infra/memory"
	"grid-reservation/internal/infra/metrics"
	"grid-reservation/internal/pkg/clock"
	"grid-reservation/internal/pkg/config"
	"grid-reservation/internal/usecase/booking"
	"grid-reservation/internal/usecase/directory"
	"grid-reservation/tests/common/builder"
	"grid-reservation/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRouter wires the full middleware chain over the in-memory stores.
func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.NewTestConfig()
	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)

	engine := booking.NewEngine(
		memory.NewLedger(),
		reservation.NewDefaultPriceCalculator(),
		clock.NewMockClock(time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)),
		nil,
		booking.WithRecorder(recorder),
	)
	catalog, err := equipment.Build(equipment.DefaultItems())
	require.NoError(t, err)
	require.NoError(t, engine.InstallCatalog(context.Background(), catalog))

	reservationHandler, err := api.NewReservationHandler(engine, cfg)
	require.NoError(t, err)

	router := gin.New()
	handler.NewRouter(handler.RouterParams{
		Engine:             router,
		Config:             cfg,
		ReservationHandler: reservationHandler,
		UserHandler:        api.NewUserHandler(directory.NewDirectory(memory.NewUserStore(), nil)),
		Recorder:           recorder,
		Gatherer:           reg,
	})
	return router
}

func TestHealth(t *testing.T) {
	router := newRouter(t)

	w := httptest.PerformRequest(t, router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","message":"Service is healthy"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestForwardedRequestIDIsEchoed(t *testing.T) {
	router := newRouter(t)

	w := httptest.PerformRequest(t, router, http.MethodGet, "/health", nil, map[string]string{"X-Request-ID": "edge-42"})
	assert.Equal(t, "edge-42", w.Header().Get("X-Request-ID"))
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	router := newRouter(t)

	w := httptest.PerformRequest(t, router, http.MethodGet, "/reservation/nope", nil, nil)
	httptest.AssertErrorResponse(t, w, http.StatusNotFound, "Route not found")
}

func TestReserveThroughFullStack(t *testing.T) {
	router := newRouter(t)
	body := builder.NewReservationBuilder().BuildCreateRequestDTO()

	w := httptest.PerformRequest(t, router, http.MethodPost, "/reservation/post", body, map[string]string{
		"X-User-ID":   "3",
		"X-User-Role": "scheduler",
	})
	httptest.AssertSuccessResponse(t, w, http.StatusCreated, nil)

	w = httptest.PerformRequest(t, router, http.MethodGet, "/reservation/getall", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"Jane"`)

	w = httptest.PerformRequest(t, router, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := w.Body.String()
	assert.Contains(t, out, `reservation_requests_total{equipment="ore scooper",outcome="created"} 1`)
	assert.True(t, strings.Contains(out, `route="/reservation/post",status="201"`), "http histogram carries the route template")
}
