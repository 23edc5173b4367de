package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("action", "ACCEPT"),
		attribute.String("user_id", "456"),
		attribute.String("lead_id", "9"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("action"), attrs[0].Key)
}

func TestNoopMetricsAreSafe(t *testing.T) {
	m := NewNoop()
	require.NotNil(t, m)
	m.RecordCredits(context.Background(), "debit", "assignment", 3)
	m.RecordAssignmentResponse(context.Background(), "ACCEPT", "ok")

	var nilMetrics *Metrics
	nilMetrics.RecordPaymentEvent(context.Background(), "PAYMENT_SUCCESS", "applied")
}

func TestHTTPMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m, err := NewHTTPMetricsWithRegisterer(registry, Config{ServiceName: "test"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/leads/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/leads/1", nil))
	}

	count := testutil.ToFloat64(m.requests.WithLabelValues("/api/leads/:id", http.MethodGet, "204"))
	assert.Equal(t, float64(2), count)
}
