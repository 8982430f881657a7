package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const unmatchedRoute = "unmatched"

// GinMiddleware пишет HTTP метрики по шаблону маршрута (/admin/reviews/:id),
// а не по реальному пути, чтобы ID не раздували кардинальность.
// Пути из skip (служебные /health, /metrics) не учитываются.
func GinMiddleware(service string, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		inFlight := HTTPInFlight.WithLabelValues(service)
		inFlight.Inc()
		start := time.Now()

		c.Next()

		inFlight.Dec()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method

		HTTPRequests.WithLabelValues(service, method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(service, method, route).Observe(time.Since(start).Seconds())
	}
}
