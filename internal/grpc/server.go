// Package grpcserver runs the gRPC listener of the delivery service. Unary
// health checks are open so load balancers can check the process; streams
// other than health Watch (server reflection) require a registered user's
// bearer token.
package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"campusDelivery/internal/auth"
	"campusDelivery/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

const (
	healthWatchMethod = "/grpc.health.v1.Health/Watch"

	// ServiceName is the health entry reported for the delivery API.
	ServiceName = "campusdelivery.v1.Delivery"
)

// Server wraps a running gRPC server and its health state.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	lis    net.Listener
	log    *slog.Logger
}

// StartGRPC starts the gRPC server on cfg.GRPC.Address and marks it SERVING.
func StartGRPC(cfg *config.Config, users auth.Resolver, log *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if users == nil {
		return nil, errors.New("user resolver is required")
	}
	addr := cfg.GRPC.Address
	if addr == "" {
		addr = ":50051"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	guard := auth.NewGuard(cfg.Auth.JWTSecret, users, healthWatchMethod)
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(unaryLogger(log)),
		grpc.StreamInterceptor(guard.Stream()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	s := &Server{srv: srv, health: hs, lis: lis, log: log}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("grpc serve", "error", err)
		}
	}()
	return s, nil
}

// Addr is the bound listener address.
func (s *Server) Addr() net.Addr { return s.lis.Addr() }

// Shutdown reports NOT_SERVING, then drains in-flight calls until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() { s.srv.GracefulStop(); close(done) }()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.srv.Stop()
		return ctx.Err()
	}
}

func unaryLogger(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Debug("grpc request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
