package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var (
	ordersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_orders_total",
		Help: "Order creation attempts by outcome",
	}, []string{
		"payment_method", // cod, online
		"outcome",        // created, insufficient_stock, invalid, error
	})

	orderValue = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_order_value_total",
		Help: "Sum of created order totals",
	}, []string{"payment_method"})

	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_order_transitions_total",
		Help: "Order status changes made by admins or cancellations",
	}, []string{"status"})

	gatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_gateway_requests_total",
		Help: "Outbound payment gateway calls",
	}, []string{
		"gateway",
		"operation", // initiate, validate, query
		"outcome",   // ok, rejected, error
	})

	gatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_request_duration_seconds",
		Help:    "Latency of outbound payment gateway calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"gateway", "operation"})

	callbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Gateway callbacks by kind and outcome",
	}, []string{
		"kind",    // success, fail, cancel, reconcile
		"outcome", // completed, failed, cancelled, duplicate, invalid, error
	})

	httpRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// RecordOrder counts an order creation attempt.
func RecordOrder(paymentMethod, outcome string, total decimal.Decimal) {
	ordersTotal.WithLabelValues(paymentMethod, outcome).Inc()
	if outcome == "created" {
		f, _ := total.Float64()
		orderValue.WithLabelValues(paymentMethod).Add(f)
	}
}

// RecordOrderTransition counts a status change.
func RecordOrderTransition(status string) {
	orderTransitions.WithLabelValues(status).Inc()
}

// RecordGatewayCall counts one outbound gateway call and its latency.
func RecordGatewayCall(gateway, operation, outcome string, started time.Time) {
	gatewayRequests.WithLabelValues(gateway, operation, outcome).Inc()
	gatewayLatency.WithLabelValues(gateway, operation).Observe(time.Since(started).Seconds())
}

// RecordCallback counts a processed gateway callback.
func RecordCallback(kind, outcome string) {
	callbacksTotal.WithLabelValues(kind, outcome).Inc()
}

// Middleware observes request latency labelled by the matched route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			httpRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the Prometheus exposition endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
