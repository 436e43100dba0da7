package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusDelivery/internal/apperr"
	"campusDelivery/internal/testutil"
	"campusDelivery/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubResolver map[string]*models.User

func (r stubResolver) Resolve(_ context.Context, email string) (*models.User, error) {
	if email == "broken@temple.edu" {
		return nil, apperr.Internal("load user", errors.New("db down"))
	}
	u, ok := r[email]
	if !ok {
		return nil, apperr.Unauthenticated("could not validate credentials")
	}
	return u, nil
}

type stubStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s stubStream) Context() context.Context { return s.ctx }

func TestGuardStream(t *testing.T) {
	secret := "s3cr3t"
	users := stubResolver{"bob@temple.edu": {ID: "u-bob", Email: "bob@temple.edu"}}
	interceptor := NewGuard(secret, users, "/health/Watch").Stream()

	call := func(ctx context.Context, method string) (*Principal, error) {
		var got *Principal
		err := interceptor(nil, stubStream{ctx: ctx}, &grpc.StreamServerInfo{FullMethod: method}, func(_ any, ss grpc.ServerStream) error {
			got, _ = FromContext(ss.Context())
			return nil
		})
		return got, err
	}

	if p, err := call(context.Background(), "/health/Watch"); err != nil || p != nil {
		t.Fatalf("public stream: principal=%+v err=%v", p, err)
	}
	if _, err := call(context.Background(), "/svc/Stream"); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("missing token: expected Unauthenticated, got %v", err)
	}

	tok := testutil.GenerateJWTHS256(t, secret, "bob@temple.edu", time.Now().Add(time.Hour))
	p, err := call(testutil.CtxWithBearer(context.Background(), tok), "/svc/Stream")
	if err != nil || p == nil || p.Email != "bob@temple.edu" {
		t.Fatalf("registered caller: principal=%+v err=%v", p, err)
	}

	ghost := testutil.GenerateJWTHS256(t, secret, "ghost@temple.edu", time.Now().Add(time.Hour))
	if _, err := call(testutil.CtxWithBearer(context.Background(), ghost), "/svc/Stream"); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("unknown user: expected Unauthenticated, got %v", err)
	}
	broken := testutil.GenerateJWTHS256(t, secret, "broken@temple.edu", time.Now().Add(time.Hour))
	if _, err := call(testutil.CtxWithBearer(context.Background(), broken), "/svc/Stream"); status.Code(err) != codes.Internal {
		t.Fatalf("resolver failure: expected Internal, got %v", err)
	}
	wrong := testutil.GenerateJWTHS256(t, "other-secret", "bob@temple.edu", time.Now().Add(time.Hour))
	if _, err := call(testutil.CtxWithBearer(context.Background(), wrong), "/svc/Stream"); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("foreign signature: expected Unauthenticated, got %v", err)
	}
}
