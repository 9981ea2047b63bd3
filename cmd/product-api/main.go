package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"product-api/internal/config"
	"product-api/internal/database"
	grpcHandler "product-api/internal/handler/grpc"
	handler "product-api/internal/handler/http"
	"product-api/internal/logger"
	middleware_grpc "product-api/internal/middleware/grpc"
	middleware_http "product-api/internal/middleware/http"
	"product-api/internal/repository"
	"product-api/internal/service"
	"product-api/internal/tracer"
	"product-api/internal/version"

	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Error(context.Background(), "Server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Instance()
	log := logger.Configure(logger.Options{
		Level:     logger.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		RemoteURI: cfg.RemoteLogHttpURI,
		Job:       cfg.AppName,
	})

	log.Info(cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	// Initialize telemetry (OpenTelemetry + Pyroscope)
	shutdownTelemetry, err := tracer.Init(ctx, tracer.Options{
		AppName:      cfg.AppName,
		Version:      version.Version,
		OTLPEndpoint: cfg.RemoteTraceRpcURI,
		Stdout:       cfg.TraceStdout,
		ProfilingURI: cfg.RemoteProfilingHttpURI,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Wiring
	productHandler := handler.NewProductHandler(store)
	healthHandler := handler.NewHealthHandler(service.NewHealthService(store))
	router := handler.NewRouter(productHandler, healthHandler, handler.JSONErrorReporter{})

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           middleware_http.TraceMiddleware()(router),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("HTTP server running", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	var grpcServer *grpc.Server
	if cfg.GrpcPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GrpcPort)
		if err != nil {
			return err
		}
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(middleware_grpc.UnaryTracingInterceptor()))
		grpcHandler.RegisterProductServiceServer(grpcServer, grpcHandler.NewProductGRPCHandler(store))
		go func() {
			log.Info("gRPC server running", slog.String("port", cfg.GrpcPort))
			errCh <- grpcServer.Serve(lis)
		}()
	}

	var serveErr error
	select {
	case serveErr = <-errCh:
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down servers")
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

// openStore picks the product store named by STORAGE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (repository.ProductStore, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn(ctx, "Using in-memory product store, data is lost on restart")
		return repository.NewMemoryProductRepository(), func() {}, nil
	}

	db, err := database.Connect(ctx, database.Options{
		URI:      cfg.MongoConnectionURI(),
		Database: cfg.Database(),
		AppName:  cfg.AppName,
	})
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Warn(closeCtx, "Failed to disconnect from MongoDB", slog.String("error", err.Error()))
		}
	}
	return repository.NewMongoProductRepository(db.Database), closeFn, nil
}
