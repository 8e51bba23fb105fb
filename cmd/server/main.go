package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmehra2102/planner/internal/app"
	"github.com/dmehra2102/planner/internal/httpapi"
	"github.com/dmehra2102/planner/internal/infrastructure/config"
	"github.com/dmehra2102/planner/pkg/auth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
)

const (
	serviceName    = "planner"
	serviceVersion = "1.0.0"
)

func main() {
	// Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting planner",
		zap.String("version", serviceVersion),
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageBackend),
	)

	if cfg.DevSecret {
		logger.Warn("JWT_SECRET is not set, signing sessions with the development secret")
	}

	if cfg.EnableTracing {
		shutdown, err := initTracer(cfg.OTLPEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancelInit := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	st, err := openStores(initCtx, cfg, logger)
	cancelInit()
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			logger.Warn("Failed to close storage", zap.Error(err))
		}
	}()

	authService, err := auth.NewService(st.users, cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		logger.Fatal("Failed to initialize authentication", zap.Error(err))
	}

	handler := httpapi.NewHandler(
		app.NewUserPresenter(st.users, authService, logger),
		app.NewTodoPresenter(st.todos, st.lists, logger),
		app.NewTodoListPresenter(st.lists, st.todos, st.users, logger),
		auth.NewAuthorizer(),
		logger,
	)

	serverCfg := cfg.GetServerConfig()
	server := &http.Server{
		Addr: fmt.Sprintf(":%d", serverCfg.Port),
		Handler: httpapi.NewRouter(handler, authService, logger, httpapi.RouterConfig{
			RequestTimeout: serverCfg.RequestTimeout,
			EnableMetrics:  cfg.EnableMetrics,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Info("Server starting", zap.Int("port", serverCfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Shutdown timeout exceeded, forcing stop", zap.Error(err))
		server.Close()
		return
	}
	logger.Info("Server stopped gracefully")
}

func initLogger(cfg *config.Config) *zap.Logger {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err == nil {
		zapCfg.Level = level
	}
	zapCfg.Encoding = cfg.LogFormat

	logger, err := zapCfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}

func initTracer(endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
