package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstore/internal/domain/balance"
)

func TestObserveBalanceCheck(t *testing.T) {
	m := New()

	m.ObserveBalanceCheck("receipt", balance.Accepted)
	m.ObserveBalanceCheck("receipt", balance.Accepted)
	m.ObserveBalanceCheck("aggregate", balance.Rejected)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BalanceChecks.WithLabelValues("receipt", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BalanceChecks.WithLabelValues("aggregate", "rejected")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BalanceChecks.WithLabelValues("none", "provisional")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordHTTPRequest(http.MethodGet, "/api/v1/rates", http.StatusOK, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `coldstore_http_requests_total{method="GET",path="/api/v1/rates",status="200"} 1`)
}
