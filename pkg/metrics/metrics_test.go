package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lintang-b-s/osm-geoenrich/pkg/stream"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.StateChanged(stream.Backoff)
	c.Processed(10 * time.Millisecond)
	c.Processed(20 * time.Millisecond)
	c.Failed()
	c.DeadLettered()
	c.ObserveHTTP("/district", http.StatusOK, time.Millisecond)
	c.ObserveHTTP("/district", http.StatusBadRequest, time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.PipelineState))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.RecordsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RecordsFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RecordsDeadLettered))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("/district", "400")))

	t.Run("handler exposes the registry", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "geoenrich_records_processed_total 2"))
	})

	t.Run("double registration fails", func(t *testing.T) {
		_, err := NewCollector(reg)
		assert.Error(t, err)
	})
}
