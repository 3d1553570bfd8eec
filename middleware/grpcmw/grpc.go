// Package grpcmw provides gRPC interceptors for bearer-token
// authentication.
//
// Interceptors accept an *auth.Client and use its TokenAuthenticator — no
// direct dependency on any specific identity provider.
package grpcmw

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	auth "github.com/loopchat/auth-go"
)

// AuthOption configures auth interceptor behavior.
type AuthOption func(*authConfig)

type authConfig struct {
	excludedMethods map[string]bool
}

// WithExcludedMethods sets gRPC methods that skip authentication.
// Methods should be fully qualified (e.g. "/package.Service/Method").
func WithExcludedMethods(methods ...string) AuthOption {
	return func(cfg *authConfig) {
		for _, m := range methods {
			cfg.excludedMethods[m] = true
		}
	}
}

// UnaryAuth returns a gRPC unary server interceptor that authenticates
// bearer tokens. On success the identity is stored in the context via
// auth.WithIdentity.
func UnaryAuth(client *auth.Client, opts ...AuthOption) grpc.UnaryServerInterceptor {
	cfg := &authConfig{excludedMethods: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if cfg.excludedMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		ctx, err := authenticate(ctx, client)
		if err != nil {
			return nil, err
		}

		return handler(ctx, req)
	}
}

// StreamAuth returns a gRPC stream server interceptor that authenticates
// bearer tokens.
func StreamAuth(client *auth.Client, opts ...AuthOption) grpc.StreamServerInterceptor {
	cfg := &authConfig{excludedMethods: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if cfg.excludedMethods[info.FullMethod] {
			return handler(srv, ss)
		}

		ctx, err := authenticate(ss.Context(), client)
		if err != nil {
			return err
		}

		wrapped := &wrappedStream{ServerStream: ss, ctx: ctx}
		return handler(srv, wrapped)
	}
}

// --- internal helpers ---

func authenticate(ctx context.Context, client *auth.Client) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx, status.Error(codes.Unauthenticated, "missing metadata")
	}

	raw, err := extractBearerFromMD(md)
	if err != nil {
		return ctx, status.Error(codes.Unauthenticated, err.Error())
	}

	id, err := client.Authenticator().Authenticate(ctx, raw)
	if err != nil {
		if errors.Is(err, auth.ErrUpstreamUnavailable) {
			return ctx, status.Error(codes.Unavailable, "authentication temporarily unavailable")
		}
		client.Logger().Warn("authentication failed", "transport", "grpc")
		return ctx, status.Error(codes.Unauthenticated, "could not validate credentials")
	}

	return auth.WithIdentity(ctx, id), nil
}

func extractBearerFromMD(md metadata.MD) (string, error) {
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return "", auth.ErrMissingCredentials
	}
	parts := strings.SplitN(vals[0], " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", auth.ErrInvalidScheme
	}
	return parts[1], nil
}

// wrappedStream wraps grpc.ServerStream to override Context().
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}
