package httpapi

import (
	"context"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"aiverse.club/internal/obs"
)

type readinessChecker interface {
	Check(ctx context.Context) error
}

// GRPCServer answers the standard gRPC health protocol from the same readiness probe as /readyz.
type GRPCServer struct {
	healthpb.UnimplementedHealthServer

	readiness readinessChecker
	log       logrus.FieldLogger
}

// NewGRPCServer creates the health service. A nil log discards warnings.
func NewGRPCServer(r readinessChecker, log logrus.FieldLogger) *GRPCServer {
	if log == nil {
		log = obs.Discard()
	}
	return &GRPCServer{readiness: r, log: log}
}

// Check reports SERVING for the overall server and for serviceName, NOT_SERVING when the probe fails.
func (s *GRPCServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != serviceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}
	if err := s.readiness.Check(ctx); err != nil {
		s.log.WithError(err).Warn("grpc health check failed")
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
