package errs

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

// pgErrStub mimics pgconn.PgError without importing the driver.
type pgErrStub struct {
	state string
	msg   string
}

func (e *pgErrStub) Error() string    { return e.msg }
func (e *pgErrStub) SQLState() string { return e.state }

// timeoutErr satisfies net.Error.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyNilAndPassthrough(t *testing.T) {
	if Classify(nil) != nil {
		t.Fatal("Classify(nil) must be nil")
	}

	orig := Validation("insufficient stock")
	if got := Classify(orig); got != error(orig) {
		t.Fatalf("existing ServiceError must pass through unchanged, got %v", got)
	}
	// Wrapped ServiceErrors must not be re-wrapped either.
	wrapped := fmt.Errorf("op: %w", orig)
	if got := Classify(wrapped); got != wrapped {
		t.Fatalf("wrapped ServiceError must pass through, got %v", got)
	}
}

func TestClassifyNotFound(t *testing.T) {
	for _, err := range []error{gorm.ErrRecordNotFound, sql.ErrNoRows} {
		got := Classify(err)
		if !IsNotFound(got) {
			t.Errorf("Classify(%v) = %v, want not_found", err, got)
		}
		if !errors.Is(got, err) {
			t.Errorf("classified error should wrap the sentinel %v", err)
		}
	}
}

func TestClassifyConflict(t *testing.T) {
	t.Run("gorm sentinel", func(t *testing.T) {
		if !IsConflict(Classify(gorm.ErrDuplicatedKey)) {
			t.Fatal("gorm.ErrDuplicatedKey should classify as conflict")
		}
	})

	t.Run("postgres sqlstate", func(t *testing.T) {
		pgErr := &pgErrStub{
			state: "23505",
			msg:   `duplicate key value violates unique constraint "ux_users_email"`,
		}
		got := Classify(pgErr)
		if !IsConflict(got) {
			t.Fatalf("SQLSTATE 23505 should classify as conflict, got %v", got)
		}
		var se *ServiceError
		if errors.As(got, &se); se.Message != "duplicate value for constraint ux_users_email" {
			t.Fatalf("constraint name not extracted: %q", se.Message)
		}
	})

	t.Run("sqlite message", func(t *testing.T) {
		err := errors.New("UNIQUE constraint failed: users.username")
		got := Classify(err)
		if !IsConflict(got) {
			t.Fatalf("sqlite unique message should classify as conflict, got %v", got)
		}
		var se *ServiceError
		if errors.As(got, &se); se.Message != "duplicate value for users.username" {
			t.Fatalf("column detail not extracted: %q", se.Message)
		}
	})
}

func TestClassifyConnection(t *testing.T) {
	cases := []error{
		driver.ErrBadConn,
		timeoutErr{},
		&pgErrStub{state: "08006", msg: "connection failure"},
		errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
		errors.New("failed to connect to `host=db`"),
		errors.New("lookup db-primary: no such host"),
	}
	for _, err := range cases {
		if got := Classify(err); !IsConnection(got) {
			t.Errorf("Classify(%v) = %v, want connection", err, got)
		}
	}
}

func TestClassifyFallbackDatabase(t *testing.T) {
	err := errors.New("syntax error at or near SELEC")
	got := Classify(err)
	if !IsDatabase(got) {
		t.Fatalf("unrecognized errors should fall back to database, got %v", got)
	}
	var se *ServiceError
	if !errors.As(got, &se) || se.Message != err.Error() {
		t.Fatalf("engine message should be preserved, got %+v", se)
	}
	if !errors.Is(got, err) {
		t.Fatal("fallback should wrap the original error")
	}
}
