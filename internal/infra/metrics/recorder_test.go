//go:build unit

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"grid-reservation/internal/usecase/booking"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ booking.Recorder = (*Recorder)(nil)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.ReservationCreated("harvester", 44000)
	r.ReservationCreated("harvester", 1000)
	r.ReservationRejected("harvester", booking.RejectCapacityExceeded)
	r.ReservationCancelled("harvester", 500)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.reservations.WithLabelValues("harvester", OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.reservations.WithLabelValues("harvester", booking.RejectCapacityExceeded)))
	assert.Equal(t, 45000.0, testutil.ToFloat64(r.downPayments.WithLabelValues("harvester")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cancellations.WithLabelValues("harvester")))
	assert.Equal(t, 500.0, testutil.ToFloat64(r.refunds.WithLabelValues("harvester")))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.ObserveHTTP(http.MethodGet, "/reservation/getall", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `reservation_http_request_duration_seconds_count{method="GET",route="/reservation/getall",status="200"} 1`), body)
}
