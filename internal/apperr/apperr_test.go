package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("accept: %w", Conflict("order %s is no longer pending", "o1"))
	if got := KindOf(err); got != KindConflict {
		t.Fatalf("KindOf = %q, want %q", got, KindConflict)
	}
	if Message(err) != "order o1 is no longer pending" {
		t.Fatalf("unexpected message: %q", Message(err))
	}
}

func TestKindOf_UnclassifiedIsInternal(t *testing.T) {
	err := errors.New("boom")
	if got := KindOf(err); got != KindInternal {
		t.Fatalf("KindOf = %q, want internal", got)
	}
	if Message(err) != "internal error" {
		t.Fatalf("raw errors must not leak: %q", Message(err))
	}
}

func TestInternal_Unwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("create order", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if !Is(err, KindInternal) {
		t.Fatalf("expected internal kind")
	}
	if Message(err) != "create order" {
		t.Fatalf("message = %q", Message(err))
	}
}
