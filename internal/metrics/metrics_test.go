package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveClassification(KindHand, OutcomeMatch, time.Now())
	m.ObserveClassification(KindHand, OutcomeMatch, time.Now())
	m.ObserveClassification(KindEmotion, OutcomeNone, time.Now())
	m.IncrementEmission("letter")
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.ObserveRequest("/api/signs", "GET", 200, time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Classifications.WithLabelValues(KindHand, OutcomeMatch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classifications.WithLabelValues(KindEmotion, OutcomeNone)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Emissions.WithLabelValues("letter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/signs", "GET", "200")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveClassification(KindHand, OutcomeNone, time.Now())
		m.IncrementEmission("custom")
		m.SessionOpened()
		m.SessionClosed()
		m.ObserveRequest("/", "GET", 404, time.Now())
	})
}

func TestNew_Unregistered(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}
