package grpcserver

import (
	"context"
	"testing"
	"time"

	"campusDelivery/internal/config"
	"campusDelivery/internal/logging"
	"campusDelivery/internal/service"
	"campusDelivery/internal/testutil"
	"campusDelivery/repository"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
)

type testServer struct {
	srv    *Server
	conn   *grpc.ClientConn
	users  *service.UserService
	secret string
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		GRPC:     config.GRPCConfig{Address: "127.0.0.1:0"},
		Auth:     config.AuthConfig{JWTSecret: "grpc-secret", TokenTTL: 30 * time.Minute},
		Identity: config.IdentityConfig{EmailDomain: "temple.edu", StartingPoints: 100},
	}
	d := testutil.OpenInMemoryDB(t, t.Name())
	users := service.NewUserService(repository.NewUserRepository(d), cfg.Identity, cfg.Auth)
	s, err := StartGRPC(cfg, users, logging.Discard())
	if err != nil {
		t.Fatalf("start grpc: %v", err)
	}
	conn, err := grpc.NewClient(s.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &testServer{srv: s, conn: conn, users: users, secret: cfg.Auth.JWTSecret}
}

func (ts *testServer) stop(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ts.srv.Shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

// listServices runs one reflection round trip and returns the service names.
func listServices(ctx context.Context, conn *grpc.ClientConn) ([]string, error) {
	stream, err := reflectionpb.NewServerReflectionClient(conn).ServerReflectionInfo(ctx)
	if err != nil {
		return nil, err
	}
	_ = stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_ListServices{ListServices: "*"},
	})
	resp, err := stream.Recv()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, svc := range resp.GetListServicesResponse().GetService() {
		names = append(names, svc.GetName())
	}
	return names, nil
}

func TestHealth_ServingWithoutToken(t *testing.T) {
	ts := startTestServer(t)
	defer ts.stop(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := healthpb.NewHealthClient(ts.conn)
	for _, svc := range []string{"", ServiceName} {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatalf("check %q: %v", svc, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("check %q = %v, want SERVING", svc, resp.GetStatus())
		}
	}

	watch, err := client.Watch(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	first, err := watch.Recv()
	if err != nil || first.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("watch first status = %v, err %v", first.GetStatus(), err)
	}
}

func TestReflection_RequiresRegisteredUser(t *testing.T) {
	ts := startTestServer(t)
	defer ts.stop(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := listServices(ctx, ts.conn); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("reflection without token: expected Unauthenticated, got %v", err)
	}

	ghost := testutil.GenerateJWTHS256(t, ts.secret, "ghost@temple.edu", time.Now().Add(time.Hour))
	ghostCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+ghost)
	if _, err := listServices(ghostCtx, ts.conn); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("reflection for unknown user: expected Unauthenticated, got %v", err)
	}

	if _, err := ts.users.Register(ctx, service.RegisterInput{Username: "alice", Email: "alice@temple.edu", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	tok, err := ts.users.Login(ctx, "alice@temple.edu", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok.AccessToken)
	names, err := listServices(authed, ts.conn)
	if err != nil {
		t.Fatalf("reflection with token: %v", err)
	}
	found := false
	for _, n := range names {
		if n == "grpc.health.v1.Health" {
			found = true
		}
	}
	if !found {
		t.Fatalf("health service not listed: %v", names)
	}
}

func TestShutdown_StopsServing(t *testing.T) {
	ts := startTestServer(t)
	client := healthpb.NewHealthClient(ts.conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Check(ctx, &healthpb.HealthCheckRequest{}); err != nil {
		t.Fatalf("check before shutdown: %v", err)
	}
	if err := ts.srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	short, cancelShort := context.WithTimeout(context.Background(), time.Second)
	defer cancelShort()
	if _, err := client.Check(short, &healthpb.HealthCheckRequest{}); err == nil {
		t.Fatalf("expected check to fail after shutdown")
	}
}

func TestStartGRPC_RequiresDependencies(t *testing.T) {
	if _, err := StartGRPC(nil, nil, logging.Discard()); err == nil {
		t.Fatalf("expected error for nil config")
	}
	cfg := &config.Config{GRPC: config.GRPCConfig{Address: "127.0.0.1:0"}}
	if _, err := StartGRPC(cfg, nil, logging.Discard()); err == nil {
		t.Fatalf("expected error for nil resolver")
	}
}
