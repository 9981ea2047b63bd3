package service

import (
	"context"
	"log/slog"
	"time"

	"product-api/internal/logger"

	"go.opentelemetry.io/otel"
)

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

const pingTimeout = 2 * time.Second

// Pinger is implemented by the product stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	store Pinger
}

type HealthStatus struct {
	Mongo string
}

func (s HealthStatus) Overall() string {
	if s.Mongo == StatusDown {
		return StatusDown
	}
	return StatusUp
}

var HealthServiceTracer = otel.Tracer("HealthService")

func NewHealthService(store Pinger) *HealthService {
	return &HealthService{store: store}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, span := HealthServiceTracer.Start(ctx, "HealthService.Check")
	defer span.End()

	status := HealthStatus{Mongo: StatusUp}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.store.Ping(pingCtx); err != nil {
		logger.Warn(ctx, "Store ping failed", slog.String("error", err.Error()))
		status.Mongo = StatusDown
	}

	return status
}
