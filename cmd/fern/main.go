package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	decisionrepo "github.com/Ramsey-B/fern/internal/repositories/decision"
	debtrepo "github.com/Ramsey-B/fern/internal/repositories/debt"
	"github.com/Ramsey-B/fern/internal/repositories/matchcriterion"
	personrepo "github.com/Ramsey-B/fern/internal/repositories/person"
	"github.com/Ramsey-B/fern/pkg/batch"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	fernkafka "github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/processor"
	"github.com/Ramsey-B/fern/pkg/review"
	criterionroute "github.com/Ramsey-B/fern/pkg/routes/criterion"
	decisionroute "github.com/Ramsey-B/fern/pkg/routes/decision"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	personroute "github.com/Ramsey-B/fern/pkg/routes/person"
	reconcileroute "github.com/Ramsey-B/fern/pkg/routes/reconcile"
	statsroute "github.com/Ramsey-B/fern/pkg/routes/stats"
	"github.com/Ramsey-B/fern/pkg/stats"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/validation"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger := newLogger(cfg)
	ctx := context.Background()

	// Tracing
	tp := sdktrace.NewTracerProvider()
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	// Database
	db, sqlxDB, err := connectDatabase(cfg, logger)
	if err != nil {
		fatal(logger, err, "Failed to connect to database")
	}

	if err := runMigrations(cfg, logger, sqlxDB); err != nil {
		fatal(logger, err, "Failed to run database migrations")
	}

	// Core services
	engine := matching.NewEngine(logger)
	validator := validation.New()

	personRepo := personrepo.NewRepository(db, logger)
	decisionRepo := decisionrepo.NewRepository(db, logger)
	debtRepo := debtrepo.NewRepository(db, logger)
	criteriaRepo := matchcriterion.NewRepository(db, logger)

	producer := fernkafka.NewProducer(fernkafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	emitter := events.NewEmitter(producer, logger)

	orchestrator := batch.NewOrchestrator(logger, engine, validator, personRepo, decisionRepo, debtRepo, emitter)
	reviewSvc := review.NewService(logger, decisionRepo, emitter)
	statsSvc := stats.NewService(logger, decisionRepo, debtRepo)

	// Kafka consumer
	var consumer *fernkafka.Consumer
	if cfg.KafkaConsumerEnabled {
		batchProcessor := processor.NewBatchProcessor(logger, orchestrator, criteriaRepo, emitter)
		consumer = fernkafka.NewConsumer(fernkafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaInputTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, logger, batchProcessor.ProcessMessage)
		if err := consumer.Start(ctx); err != nil {
			fatal(logger, err, "Failed to start Kafka consumer")
		}
	}

	// Dependency container for request handlers
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		fatal(logger, err, "Failed to create DI container")
	}
	mustRegister(logger, ectoinject.RegisterInstance[ectologger.Logger](container, logger))
	mustRegister(logger, ectoinject.RegisterInstance[*personrepo.Repository](container, personRepo))
	mustRegister(logger, ectoinject.RegisterInstance[*decisionrepo.Repository](container, decisionRepo))
	mustRegister(logger, ectoinject.RegisterInstance[*debtrepo.Repository](container, debtRepo))
	mustRegister(logger, ectoinject.RegisterInstance[*matchcriterion.Repository](container, criteriaRepo))
	mustRegister(logger, ectoinject.RegisterInstance[*batch.Orchestrator](container, orchestrator))
	mustRegister(logger, ectoinject.RegisterInstance[*review.Service](container, reviewSvc))
	mustRegister(logger, ectoinject.RegisterInstance[*stats.Service](container, statsSvc))

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqCtx, err := ectoinject.SetActiveContainer(c.Request().Context(), container.GetContainerID())
			if err != nil {
				return err
			}
			c.SetRequest(c.Request().WithContext(reqCtx))
			return next(c)
		}
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	var consumerHealth health.ConsumerHealth
	if consumer != nil {
		consumerHealth = consumer
	}
	checker := health.NewChecker(db, consumerHealth, os.Getenv("APP_VERSION"))
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	reconcileroute.Register(api.Group("/reconcile"))
	decisionroute.Register(api.Group("/decisions"))
	criterionroute.Register(api.Group("/criteria"))
	personroute.Register(api.Group("/persons"))
	statsroute.Register(api.Group("/stats"))

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	go func() {
		checker.SetReady(true)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.WithError(err).Info("HTTP server stopped")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down HTTP server")
	}
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop Kafka consumer")
		}
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Error("Failed to close Kafka producer")
	}
	if err := db.Close(); err != nil {
		logger.WithError(err).Error("Failed to close database")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down tracer provider")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func connectDatabase(cfg config.Config, logger ectologger.Logger) (database.DB, *sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, nil, err
	}

	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	return database.NewDatabaseInstance(sqlxDB, logger), sqlxDB, nil
}

func runMigrations(cfg config.Config, logger ectologger.Logger, sqlxDB *sqlx.DB) error {
	driver, err := postgres.WithInstance(sqlxDB.DB, &postgres.Config{})
	if err != nil {
		return err
	}

	svc := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})

	return svc.Migrate(cfg.DatabaseName, driver)
}

func mustRegister(logger ectologger.Logger, err error) {
	if err != nil {
		fatal(logger, err, "Failed to register dependency")
	}
}

func fatal(logger ectologger.Logger, err error, msg string) {
	logger.WithError(err).Error(msg)
	os.Exit(1)
}
