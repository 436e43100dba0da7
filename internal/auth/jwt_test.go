package auth

import (
	"context"
	"testing"
	"time"

	"campusDelivery/internal/testutil"
)

const testSecret = "test-secret"

func TestIssueAndParseToken(t *testing.T) {
	now := time.Now()
	tok, exp, err := IssueToken(testSecret, "alice@temple.edu", 30*time.Minute, now)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if got := exp.Sub(now); got != 30*time.Minute {
		t.Fatalf("expiry offset = %v, want 30m", got)
	}
	p, err := ParseToken(tok, testSecret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if p.Email != "alice@temple.edu" {
		t.Fatalf("principal mismatch: %+v", p)
	}
}

func TestParseToken_Expired(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, "alice@temple.edu", time.Now().Add(-time.Minute))
	if _, err := ParseToken(tok, testSecret); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, "bob@temple.edu", time.Now().Add(time.Hour))
	if _, err := ParseToken(tok, "wrong"); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}

func TestParseToken_EmptySubject(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, "", time.Now().Add(time.Hour))
	if _, err := ParseToken(tok, testSecret); err == nil {
		t.Fatalf("expected invalid claims error")
	}
}

func TestParseBearer(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, "carol@temple.edu", time.Now().Add(time.Hour))
	p, err := ParseBearer("bearer "+tok, testSecret)
	if err != nil || p.Email != "carol@temple.edu" {
		t.Fatalf("ParseBearer: %v %+v", err, p)
	}
	for _, h := range []string{"", tok, "Basic " + tok, "Bearer"} {
		if _, err := ParseBearer(h, testSecret); err == nil {
			t.Fatalf("expected error for header %q", h)
		}
	}
}

func TestParseFromMD(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, "dave@temple.edu", time.Now().Add(time.Hour))
	p, err := ParseFromMD(testutil.CtxWithBearer(context.Background(), tok), testSecret)
	if err != nil || p.Email != "dave@temple.edu" {
		t.Fatalf("ParseFromMD: %v %+v", err, p)
	}
	if _, err := ParseFromMD(context.Background(), testSecret); err == nil {
		t.Fatalf("expected error for missing metadata")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter22" {
		t.Fatalf("password stored in clear")
	}
	ok, err := CheckPassword(hash, "hunter22")
	if err != nil || !ok {
		t.Fatalf("CheckPassword(correct) = %v, %v", ok, err)
	}
	ok, err = CheckPassword(hash, "hunter23")
	if err != nil || ok {
		t.Fatalf("CheckPassword(wrong) = %v, %v", ok, err)
	}
	if _, err := CheckPassword("not-a-hash", "x"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}
