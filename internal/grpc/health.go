// Package grpc serves the standard gRPC health protocol for the API.
package grpc

import (
	"context"
	"log/slog"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the name probes may ask for besides the empty overall name.
const ServiceName = "fittrack.api"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer answers Check by pinging the store.
type HealthServer struct {
	healthpb.UnimplementedHealthServer
	store    Pinger
	logger   *slog.Logger
	draining atomic.Bool
}

func NewHealthServer(store Pinger, logger *slog.Logger) *HealthServer {
	return &HealthServer{store: store, logger: logger}
}

func (s *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", ServiceName:
	default:
		return nil, status.Error(codes.NotFound, "unknown service")
	}
	if s.draining.Load() {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "health check failed", "error", err)
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

// Shutdown makes every later check report NOT_SERVING.
func (s *HealthServer) Shutdown() {
	s.draining.Store(true)
}

func NewServer(health *HealthServer) *grpc.Server {
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, health)
	return server
}
