package auth

import (
	"context"

	"campusDelivery/internal/apperr"
	"campusDelivery/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Resolver maps a verified token subject to a stored user.
type Resolver interface {
	Resolve(ctx context.Context, email string) (*models.User, error)
}

// Guard authenticates gRPC streams: the bearer token in metadata must verify
// and its subject must belong to a registered user. Public methods skip it.
type Guard struct {
	secret string
	users  Resolver
	public map[string]struct{}
}

// NewGuard builds a Guard. public lists full method names that need no token.
func NewGuard(secret string, users Resolver, public ...string) *Guard {
	g := &Guard{secret: secret, users: users, public: make(map[string]struct{}, len(public))}
	for _, m := range public {
		g.public[m] = struct{}{}
	}
	return g
}

func (g *Guard) authenticate(ctx context.Context, method string) (context.Context, error) {
	if _, ok := g.public[method]; ok {
		return ctx, nil
	}
	p, err := ParseFromMD(ctx, g.secret)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "auth error: %v", err)
	}
	if _, err := g.users.Resolve(ctx, p.Email); err != nil {
		if apperr.Is(err, apperr.KindUnauthenticated) {
			return nil, status.Error(codes.Unauthenticated, apperr.Message(err))
		}
		return nil, status.Error(codes.Internal, "resolve caller")
	}
	return WithPrincipal(ctx, p), nil
}

// Stream returns the stream server interceptor.
func (g *Guard) Stream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := g.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &authedStream{ServerStream: ss, ctx: ctx})
	}
}

type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authedStream) Context() context.Context { return s.ctx }
