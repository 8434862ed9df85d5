package metrics

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	SalesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cafe_sales_total",
			Help: "Number of recorded sales",
		},
		[]string{"payment_method"},
	)

	SalesRevenue = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cafe_sales_revenue_total",
			Help: "Tax inclusive revenue of recorded sales",
		},
	)

	RefundCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cafe_refunds_total",
			Help: "Number of refunded sales",
		},
	)

	StockRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cafe_stock_rejections_total",
			Help: "Operations rejected because of insufficient stock",
		},
		[]string{"resource"},
	)

	StockMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cafe_stock_movements_total",
			Help: "Stock movements by pool (material/item) and type",
		},
		[]string{"kind", "type"},
	)
)

var registerOnce sync.Once

// Register tüm metrikleri default registry'ye bir kez kaydeder.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			SalesCounter,
			SalesRevenue,
			RefundCounter,
			StockRejections,
			StockMovements,
		)
	})
}

// Middleware istek sayısı ve süresini kaydeder. path olarak route şablonu
// (/api/items/:id) kullanılır.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Route().Path
		code := strconv.Itoa(status)
		RequestCounter.WithLabelValues(c.Method(), path, code).Inc()
		RequestDuration.WithLabelValues(c.Method(), path, code).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler /metrics endpoint'i
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func RecordSale(paymentMethod string, totalWithTax float64) {
	SalesCounter.WithLabelValues(paymentMethod).Inc()
	SalesRevenue.Add(totalWithTax)
}

func RecordRefund() {
	RefundCounter.Inc()
}

func RecordStockRejection(resource string) {
	StockRejections.WithLabelValues(resource).Inc()
}

func RecordStockMovement(kind, typ string) {
	StockMovements.WithLabelValues(kind, typ).Inc()
}
