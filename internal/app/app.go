package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/atelier/internal/health"
	"github.com/vladislavdragonenkov/atelier/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/atelier/internal/service/httpapi"
	"github.com/vladislavdragonenkov/atelier/internal/service/report"
	"github.com/vladislavdragonenkov/atelier/internal/service/tracker"
	"github.com/vladislavdragonenkov/atelier/internal/version"
)

// Run собирает зависимости и запускает сервис: HTTP API, сервер метрик
// и (опционально) Kafka-потребитель действий операторов.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	storage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	// Инициализация Kafka (опционально).
	var kafkaProducer *kafka.Producer
	var trackerSvc *tracker.Tracker

	if cfg.KafkaEnabled() {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		}
	}

	if kafkaProducer != nil {
		trackerSvc = tracker.NewTrackerWithKafka(storage.orders, storage.recorder, kafkaProducer, logger.WithField("layer", "tracker"))
	} else {
		trackerSvc = tracker.NewTracker(storage.orders, storage.recorder, logger.WithField("layer", "tracker"))
	}
	reporterSvc := report.NewReporter(storage.orders, storage.events, logger.WithField("layer", "reporter"))

	var consumer *kafka.Consumer
	if kafkaProducer != nil {
		consumer, err = kafka.NewConsumerWithDLQ(
			cfg.KafkaBrokers,
			cfg.KafkaGroupID,
			[]string{kafka.TopicOperatorActions},
			tracker.NewOperatorActionHandler(trackerSvc),
			kafkaProducer,
			3,
		)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka consumer, continuing without ingest")
			consumer = nil
		} else if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Warn("failed to start kafka consumer")
			consumer = nil
		}
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", storage.checker)

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiServer := httpapi.NewServer(trackerSvc, reporterSvc, logger.WithField("layer", "http"))
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      apiServer.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	shutdown := func() {
		shutdownHTTP(srv, logger)
		shutdownHTTP(metricsSrv, logger)

		if consumer != nil {
			if err := consumer.Stop(); err != nil {
				logger.WithError(err).Warn("failed to stop kafka consumer")
			}
		}
		if kafkaProducer != nil {
			if err := kafkaProducer.Close(); err != nil {
				logger.WithError(err).Warn("failed to close kafka producer")
			} else {
				logger.Info("kafka producer closed")
			}
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервис")
		shutdown()
		return ctx.Err()
	case err := <-errCh:
		shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
