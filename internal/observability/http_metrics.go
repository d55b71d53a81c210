package observability

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const unmatchedRoute = "unmatched"

type httpCollectors struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newHTTPCollectors() httpCollectors {
	return httpCollectors{
		requests: counterVec("http_requests_total",
			"HTTP requests by method, route and status.",
			"method", "path", "status"),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// HTTPMiddleware records every request except scrapes of /metrics.
// Routes are labeled by their pattern, never the raw path.
func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()
		err := c.Next()

		route := routePattern(c)
		if m == nil || route == "/metrics" {
			return err
		}

		method := strings.ToUpper(c.Method())
		m.http.requests.WithLabelValues(method, route, strconv.Itoa(responseStatus(c, err))).Inc()
		m.http.latency.WithLabelValues(method, route).Observe(time.Since(started).Seconds())
		return err
	}
}

func routePattern(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" {
		return route.Path
	}
	return unmatchedRoute
}

// responseStatus predicts the status the error handler will write for err.
func responseStatus(c *fiber.Ctx, err error) int {
	if err != nil {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}
	if status := c.Response().StatusCode(); status != 0 {
		return status
	}
	return fiber.StatusOK
}
