package service

import (
	"context"
	"strings"
	"testing"

	"campusDelivery/internal/apperr"
	"campusDelivery/internal/auth"
	"campusDelivery/internal/config"
)

func TestUserService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []RegisterInput{
		{Username: "al", Email: "al@temple.edu", Password: "secret1"},
		{Username: strings.Repeat("x", 51), Email: "x@temple.edu", Password: "secret1"},
		{Username: "alice", Email: "alice@temple.edu", Password: "12345"},
		{Username: "alice", Email: "alice@temple.edu", Password: strings.Repeat("p", 73)},
		{Username: "alice", Email: "alice@temple.edu", Password: strings.Repeat("é", 37)}, // 74 bytes
		{Username: "alice", Email: "alice@gmail.com", Password: "secret1"},
		{Username: "alice", Email: "alice@temple.edu.evil.com", Password: "secret1"},
		{Username: "alice", Email: "alice@templexedu", Password: "secret1"},
	}
	for _, in := range cases {
		_, err := f.users.Register(ctx, in)
		if apperr.KindOf(err) != apperr.KindInvalidInput {
			t.Fatalf("Register(%+v) = %v, want invalid input", in, err)
		}
	}

	u, err := f.users.Register(ctx, RegisterInput{Username: "alice", Email: " Alice@Temple.edu ", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "alice@temple.edu" || u.Points != 100 || u.PasswordHash == "secret1" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestUserService_PasswordLengthInBytes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 36 two-byte runes fill bcrypt's 72 bytes exactly.
	if _, err := f.users.Register(ctx, RegisterInput{Username: "erin", Email: "erin@temple.edu", Password: strings.Repeat("é", 36)}); err != nil {
		t.Fatalf("72-byte password rejected: %v", err)
	}
	_, err := f.users.Register(ctx, RegisterInput{Username: "frank", Email: "frank@temple.edu", Password: strings.Repeat("é", 37)})
	wantKind(t, err, apperr.KindInvalidInput)
	if !strings.Contains(apperr.Message(err), "bytes") {
		t.Fatalf("message should state the unit: %q", apperr.Message(err))
	}
	// Three runes, six bytes: long enough.
	if _, err := f.users.Register(ctx, RegisterInput{Username: "gwen", Email: "gwen@temple.edu", Password: "ééé"}); err != nil {
		t.Fatalf("6-byte password rejected: %v", err)
	}
	u, err := f.users.Authenticate(ctx, "erin@temple.edu", strings.Repeat("é", 36))
	if err != nil || u == nil {
		t.Fatalf("authenticate with multi-byte password: %v", err)
	}
}

func TestUserService_RegisterDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice")

	_, err := f.users.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@temple.edu", Password: "secret1"})
	wantKind(t, err, apperr.KindConflict)
	if !strings.Contains(apperr.Message(err), "email") {
		t.Fatalf("message should name the email: %q", apperr.Message(err))
	}
	_, err = f.users.Register(ctx, RegisterInput{Username: "alice", Email: "other@temple.edu", Password: "secret1"})
	wantKind(t, err, apperr.KindConflict)
}

func TestUserService_LoginAndResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "alice")

	_, err := f.users.Login(ctx, "alice@temple.edu", "wrong-pass")
	wantKind(t, err, apperr.KindUnauthenticated)
	_, err = f.users.Login(ctx, "nobody@temple.edu", "secret1")
	wantKind(t, err, apperr.KindUnauthenticated)

	tok, err := f.users.Login(ctx, "ALICE@temple.edu", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok.TokenType != "bearer" || tok.AccessToken == "" || tok.ExpiresAt.IsZero() {
		t.Fatalf("unexpected token: %+v", tok)
	}
	p, err := auth.ParseToken(tok.AccessToken, "test-secret")
	if err != nil || p.Email != "alice@temple.edu" {
		t.Fatalf("token subject: %v %+v", err, p)
	}

	got, err := f.users.Resolve(ctx, p.Email)
	if err != nil || got.ID != u.ID {
		t.Fatalf("resolve: %v %+v", err, got)
	}
	_, err = f.users.Resolve(ctx, "gone@temple.edu")
	wantKind(t, err, apperr.KindUnauthenticated)

	_, err = f.users.Get(ctx, "missing")
	wantKind(t, err, apperr.KindNotFound)
}

func TestUserService_CustomDomain(t *testing.T) {
	f := newFixture(t)
	s := NewUserService(f.userDB, config.IdentityConfig{EmailDomain: "Example.edu", StartingPoints: 5}, config.AuthConfig{})
	if !s.ValidEmail("bob@example.edu") || s.ValidEmail("bob@temple.edu") {
		t.Fatalf("email domain not applied")
	}
	u, err := s.Register(context.Background(), RegisterInput{Username: "bob", Email: "bob@example.edu", Password: "secret1"})
	if err != nil || u.Points != 5 {
		t.Fatalf("register with custom starting points: %v %+v", err, u)
	}
}
