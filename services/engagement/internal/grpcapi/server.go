package grpcapi

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer builds a gRPC server exposing EngagementService and the standard
// health service. Server reflection is not registered: messages travel over
// the JSON codec and have no protobuf descriptors to describe.
func NewServer(srv EngagementServer, log *zap.Logger) (*grpc.Server, *health.Server) {
	if log == nil {
		log = zap.NewNop()
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(LoggingInterceptor(log)))
	RegisterEngagementServer(s, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s, hs
}
