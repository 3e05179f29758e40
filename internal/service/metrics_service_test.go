package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceFormCounters(t *testing.T) {
	m := NewMetricsService()
	m.FormSubmitted()
	m.FormSubmitted()
	m.FormRejected()
	m.FormExported("csv")
	m.FormExported("xlsx")
	m.FormExported("csv")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.formSubmissions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.formRejections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.formExports.WithLabelValues("csv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.formExports.WithLabelValues("xlsx")))
}

func TestMetricsServiceCacheRatio(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	assert.InDelta(t, 2.0/3.0, testutil.ToFloat64(m.cacheHitRatio), 0.0001)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.FormSubmitted()
		m.FormExported("pdf")
		m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	})
}
