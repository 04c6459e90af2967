package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tuneclip/internal/core"
)

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	ResolutionsTotal *prometheus.CounterVec
	RejectionsTotal  *prometheus.CounterVec
	FailuresTotal    *prometheus.CounterVec
	ProcessingTime   *prometheus.HistogramVec
	ActiveRequests   prometheus.Gauge
}

func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	metrics := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tuneclip_requests_total",
				Help: "Total number of song requests received",
			},
			[]string{"type"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tuneclip_resolutions_total",
				Help: "Total number of successful source resolutions",
			},
			[]string{"source"},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tuneclip_rejections_total",
				Help: "Total number of rejected inputs",
			},
			[]string{"reason"},
		),
		FailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tuneclip_failures_total",
				Help: "Total number of failed pipeline runs",
			},
			[]string{"reason"},
		),
		ProcessingTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tuneclip_processing_duration_seconds",
				Help:    "Time spent processing song requests",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"outcome"},
		),
		ActiveRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tuneclip_active_requests",
				Help: "Number of requests currently being processed",
			},
		),
	}

	prometheus.MustRegister(
		metrics.RequestsTotal,
		metrics.ResolutionsTotal,
		metrics.RejectionsTotal,
		metrics.FailuresTotal,
		metrics.ProcessingTime,
		metrics.ActiveRequests,
	)

	return &Server{
		config:  config,
		logger:  logger,
		server:  createHTTPServer(config, setupRoutes()),
		metrics: metrics,
	}
}

// setupRoutes builds the mux with health, readiness and metrics endpoints.
func setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"tuneclip"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"tuneclip"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func createHTTPServer(config *core.ServerConfig, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) RecordRequest(msgType string) {
	s.metrics.RequestsTotal.WithLabelValues(msgType).Inc()
}

func (s *Server) RecordResolution(source string) {
	s.metrics.ResolutionsTotal.WithLabelValues(source).Inc()
}

func (s *Server) RecordRejection(reason string) {
	s.metrics.RejectionsTotal.WithLabelValues(reason).Inc()
}

func (s *Server) RecordFailure(reason string) {
	s.metrics.FailuresTotal.WithLabelValues(reason).Inc()
}

func (s *Server) RecordProcessingTime(outcome string, duration time.Duration) {
	s.metrics.ProcessingTime.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (s *Server) RequestStarted() {
	s.metrics.ActiveRequests.Inc()
}

func (s *Server) RequestFinished() {
	s.metrics.ActiveRequests.Dec()
}
