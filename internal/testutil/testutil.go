package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"

	"campusDelivery/internal/db"
)

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// The database is closed via t.Cleanup. Names must be unique per test.
func OpenInMemoryDB(t *testing.T, name string) *db.DB {
	t.Helper()
	name = strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(name)
	d, err := db.Open("sqlite3", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// GenerateJWTHS256 returns a signed JWT for subject expiring at exp.
func GenerateJWTHS256(t *testing.T, secret, subject string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject, ExpiresAt: jwt.NewNumericDate(exp)}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxWithBearer returns a context containing gRPC metadata Authorization header with the given token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}
