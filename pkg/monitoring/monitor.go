package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 业务指标
	AssessmentsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assessments_submitted_total",
			Help: "Total number of diagnostic assessments submitted",
		},
	)

	QuizzesGraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topic_quizzes_graded_total",
			Help: "Total number of topic quizzes graded",
		},
		[]string{"passed"},
	)

	AchievementsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_granted_total",
			Help: "Total number of achievements granted",
		},
		[]string{"id"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(AssessmentsSubmitted)
	prometheus.MustRegister(QuizzesGraded)
	prometheus.MustRegister(AchievementsGranted)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
