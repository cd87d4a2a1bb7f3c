package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/irisdrone/library/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCirculation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordCirculation(services.OpBorrow, services.OutcomeOK)
	m.RecordCirculation(services.OpBorrow, services.OutcomeOK)
	m.RecordCirculation(services.OpReturn, services.OutcomeInvalidState)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.circulation.WithLabelValues("borrow", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.circulation.WithLabelValues("return", "invalid_state")))
}

func TestHandlerExposesRequests(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRequest("GET", "/books", "200", 0.01)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `library_http_requests_total{method="GET",route="/books",status="200"} 1`)
	assert.Contains(t, string(body), "library_http_request_duration_seconds_bucket")
}
