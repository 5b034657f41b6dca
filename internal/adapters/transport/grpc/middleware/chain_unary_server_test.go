package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	customErrors "github.com/gophertalk/feed-service/internal/domain/errors"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestChainUnaryServer_PanicRecovered(t *testing.T) {
	chain := ChainUnaryServer(zap.NewExample())

	_, err := chain(context.Background(), nil, info,
		func(ctx context.Context, req any) (any, error) {
			panic("boom")
		})
	require.Error(t, err)
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestChainUnaryServer_PassesResponse(t *testing.T) {
	chain := ChainUnaryServer(zap.NewNop())

	resp, err := chain(context.Background(), "req", info,
		func(ctx context.Context, req any) (any, error) { return req, nil })
	require.NoError(t, err)
	require.Equal(t, "req", resp)
}

func TestChainUnaryServer_MapsDomainErrors(t *testing.T) {
	chain := ChainUnaryServer(zap.NewNop())

	cases := []struct {
		err  error
		code codes.Code
	}{
		{customErrors.NewInvalidArgument("limit"), codes.InvalidArgument},
		{customErrors.ErrExpiredToken, codes.Unauthenticated},
		{customErrors.ErrNotOwner, codes.PermissionDenied},
		{customErrors.ErrPostNotFound, codes.NotFound},
		{customErrors.ErrUserAlreadyExists, codes.AlreadyExists},
		{customErrors.WrapInternal(errors.New("db"), "op"), codes.Internal},
		{status.Error(codes.Unavailable, "draining"), codes.Unavailable},
	}
	for _, tc := range cases {
		_, err := chain(context.Background(), nil, info,
			func(ctx context.Context, req any) (any, error) { return nil, tc.err })
		require.Equal(t, tc.code, status.Code(err), tc.err.Error())
	}
}

func TestChainUnaryServer_HidesInternalDetail(t *testing.T) {
	chain := ChainUnaryServer(zap.NewNop())

	_, err := chain(context.Background(), nil, info,
		func(ctx context.Context, req any) (any, error) {
			return nil, customErrors.WrapInternal(errors.New("password=hunter2"), "op")
		})
	require.Equal(t, "internal error", status.Convert(err).Message())
}
