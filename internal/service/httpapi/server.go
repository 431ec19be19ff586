package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/atelier/internal/service/report"
	"github.com/vladislavdragonenkov/atelier/internal/service/tracker"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atelier_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atelier_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
}

// Server — HTTP/JSON фасад над трекером и репортером.
type Server struct {
	tracker  *tracker.Tracker
	reporter *report.Reporter
	logger   *log.Entry
}

// NewServer создаёт HTTP-фасад.
func NewServer(tracker *tracker.Tracker, reporter *report.Reporter, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.New().WithField("component", "http-api")
	}
	return &Server{tracker: tracker, reporter: reporter, logger: logger}
}

// Handler собирает маршруты API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/orders", s.instrument("create-order", s.handleCreateOrder))
	mux.HandleFunc("GET /api/v1/orders", s.instrument("list-orders", s.handleListOrders))
	mux.HandleFunc("GET /api/v1/orders/{id}", s.instrument("get-order", s.handleGetOrder))
	mux.HandleFunc("POST /api/v1/orders/{id}/events", s.instrument("record-event", s.handleRecordEvent))
	mux.HandleFunc("GET /api/v1/orders/{id}/timeline", s.instrument("timeline", s.handleTimeline))
	mux.HandleFunc("GET /api/v1/orders/{id}/progress", s.instrument("progress", s.handleProgress))
	mux.HandleFunc("GET /api/v1/reports/downtime", s.instrument("downtime-report", s.handleDowntimeReport))

	return mux
}

// instrument оборачивает handler в Prometheus middleware.
func (s *Server) instrument(name string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(wrapped, r)

		httpRequestDuration.WithLabelValues(name, r.Method).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(name, r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
	}
}

// responseWriter перехватывает код ответа для метрик.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
