package server

import (
	"context"
	"errors"
	"net"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/gophertalk/feed-service/internal/adapters/transport/grpc/middleware"
	"github.com/gophertalk/feed-service/internal/infra/config"
)

const (
	ServiceName   = "gophertalk.feed"
	probeInterval = 10 * time.Second
	stopTimeout   = 5 * time.Second
)

// Probe reports whether the service can serve traffic, usually a DB ping.
type Probe func(ctx context.Context) error

// NewGRPCServer builds the server with the interceptor chain, health,
// reflection and metrics registered.
func NewGRPCServer(cfg *config.Config, logger *zap.Logger) (*grpc.Server, *health.Server, error) {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(middleware.ChainUnaryServer(logger)),
	}
	if cfg.TLSEnabled() {
		creds, err := credentials.NewServerTLSFromFile(cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, grpc.Creds(creds))
	}

	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	grpc_prometheus.Register(srv)
	reflection.Register(srv)

	return srv, hs, nil
}

// StartGRPCServer serves until ctx is cancelled, then stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, probe Probe, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return err
	}

	srv, hs, err := NewGRPCServer(cfg, logger)
	if err != nil {
		_ = lis.Close()
		return err
	}
	return Serve(ctx, srv, hs, lis, probe, logger)
}

func Serve(ctx context.Context, srv *grpc.Server, hs *health.Server, lis net.Listener, probe Probe, logger *zap.Logger) error {
	go watch(ctx, hs, probe, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("ctx cancelled, stopping gRPC server")
	hs.Shutdown()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-stopCtx.Done():
		srv.Stop()
	case <-done:
	}
	logger.Info("gRPC server stopped")
	return nil
}

// watch keeps the health status in step with the probe.
func watch(ctx context.Context, hs *health.Server, probe Probe, logger *zap.Logger) {
	set := func() {
		st := healthpb.HealthCheckResponse_SERVING
		if probe != nil {
			pctx, cancel := context.WithTimeout(ctx, probeInterval/2)
			err := probe(pctx)
			cancel()
			if err != nil {
				logger.Warn("health probe failed", zap.Error(err))
				st = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(ServiceName, st)
	}

	set()
	t := time.NewTicker(probeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			set()
		}
	}
}
