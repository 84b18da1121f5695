package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindDatabase:   "database",
		KindConfig:     "config",
		KindConnection: "connection",
		KindConflict:   "conflict",
		KindNotFound:   "not_found",
		KindValidation: "validation",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
	if got := Kind(99).String(); got != "database" {
		t.Errorf("unknown kind should stringify as database, got %q", got)
	}
}

func TestServiceErrorErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := Connection("pool build failed", cause)

	if !strings.Contains(e.Error(), "connection") || !strings.Contains(e.Error(), "boom") {
		t.Fatalf("Error() should carry kind and cause, got %q", e.Error())
	}
	if !errors.Is(e, cause) {
		t.Fatal("errors.Is should reach the wrapped cause")
	}

	noCause := NotFound("user %d not found", 7)
	if strings.Contains(noCause.Error(), "<nil>") {
		t.Fatalf("Error() without cause should not render nil, got %q", noCause.Error())
	}
	if noCause.Unwrap() != nil {
		t.Fatal("Unwrap of cause-less error should be nil")
	}
}

func TestConstructorsSetKinds(t *testing.T) {
	cause := errors.New("x")
	tests := []struct {
		err  *ServiceError
		want Kind
	}{
		{Config("missing %s", "DATABASE_URL"), KindConfig},
		{Connection("down", cause), KindConnection},
		{Conflict("dup", cause), KindConflict},
		{NotFound("gone"), KindNotFound},
		{Validation("bad qty %d", -1), KindValidation},
		{Database("engine", cause), KindDatabase},
	}
	for _, tc := range tests {
		if tc.err.Kind != tc.want {
			t.Errorf("constructor produced kind %v, want %v", tc.err.Kind, tc.want)
		}
	}
	if got := Config("missing %s", "DATABASE_URL").Message; got != "missing DATABASE_URL" {
		t.Errorf("Config message not formatted: %q", got)
	}
}

func TestKindOfAndPredicates(t *testing.T) {
	if _, ok := KindOf(nil); ok {
		t.Fatal("KindOf(nil) should report false")
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatal("KindOf(plain error) should report false")
	}

	wrapped := fmt.Errorf("outer: %w", Conflict("dup", nil))
	k, ok := KindOf(wrapped)
	if !ok || k != KindConflict {
		t.Fatalf("KindOf(wrapped ServiceError) = %v,%v", k, ok)
	}

	if !IsConfig(Config("a")) || !IsConnection(Connection("b", nil)) ||
		!IsConflict(Conflict("c", nil)) || !IsNotFound(NotFound("d")) ||
		!IsValidation(Validation("e")) || !IsDatabase(Database("f", nil)) {
		t.Fatal("Is* predicates should match their own constructors")
	}
	if IsConflict(NotFound("d")) {
		t.Fatal("IsConflict should not match NotFound")
	}
	if IsDatabase(errors.New("plain")) {
		t.Fatal("IsDatabase should not match a non-ServiceError")
	}
}
