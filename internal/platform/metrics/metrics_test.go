package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("psx")

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/stocks/:symbol", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/api/v1/stocks/SHEZ", "/api/v1/stocks/OGDC", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	// パスパラメータではなくルート単位で集計される
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCount.WithLabelValues("/api/v1/stocks/:symbol", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("unmatched", "GET", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `psx_http_requests_total{method="GET",route="/api/v1/stocks/:symbol",status="404"} 2`)
}

func TestAlertCounters(t *testing.T) {
	t.Parallel()
	m := New("psx")

	m.AlertTriggered("pnl_loss", "critical")
	m.AlertTriggered("pnl_loss", "critical")
	m.AlertTriggered("rsi_oversold", "info")
	m.NotificationFailed("resend")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.alertsTriggered.WithLabelValues("pnl_loss", "critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertsTriggered.WithLabelValues("rsi_oversold", "info")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifyFailures.WithLabelValues("resend")))
}
