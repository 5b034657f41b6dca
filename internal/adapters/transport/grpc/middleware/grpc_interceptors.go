package middleware

import (
	"context"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	customErrors "github.com/gophertalk/feed-service/internal/domain/errors"
)

func RecoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return grpc_recovery.UnaryServerInterceptor(
		grpc_recovery.WithRecoveryHandler(func(p interface{}) error {
			logger.Error("panic in gRPC handler", zap.Any("panic", p))
			return status.Error(codes.Internal, "internal error")
		}),
	)
}

func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return grpc_zap.UnaryServerInterceptor(logger)
}

func MetricsInterceptor() grpc.UnaryServerInterceptor {
	return grpc_prometheus.UnaryServerInterceptor
}

// ErrorCodeInterceptor turns domain errors into status codes. Errors that
// already carry a status pass through.
func ErrorCodeInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return resp, err
		}
		return resp, status.Error(CodeOf(err), publicMessage(err))
	}
}

func CodeOf(err error) codes.Code {
	switch customErrors.KindOf(err) {
	case customErrors.KindValidation:
		return codes.InvalidArgument
	case customErrors.KindAuth:
		return codes.Unauthenticated
	case customErrors.KindOwnership:
		return codes.PermissionDenied
	case customErrors.KindNotFound:
		return codes.NotFound
	case customErrors.KindConflict:
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

func publicMessage(err error) string {
	switch customErrors.KindOf(err) {
	case customErrors.KindInternal:
		return "internal error"
	case customErrors.KindAuth:
		return "unauthenticated"
	default:
		return err.Error()
	}
}

// ChainUnaryServer orders recovery first so panics anywhere below it are
// logged and reported as Internal.
func ChainUnaryServer(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return grpc_middleware.ChainUnaryServer(
		RecoveryInterceptor(logger),
		LoggingInterceptor(logger),
		MetricsInterceptor(),
		ErrorCodeInterceptor(),
	)
}
