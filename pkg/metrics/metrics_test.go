package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestQuotaDecisionCounter(t *testing.T) {
	m := New("test")
	m.QuotaDecision("active listing", true)
	m.QuotaDecision("active listing", false)
	m.QuotaDecision("active listing", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotaDecisions.WithLabelValues("active listing", "allowed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.quotaDecisions.WithLabelValues("active listing", "denied")))
}

func TestObserveRequest(t *testing.T) {
	m := New("test")
	m.ObserveRequest("GET", "/health", 200, 5*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/health", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.QuotaDecision("customer", true)
		m.Inquiry("created")
	})
}
