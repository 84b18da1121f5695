// Classification of raw engine errors into the ServiceError taxonomy.
//
// All driver-specific knowledge lives here so repository code never inspects
// engine errors inline. Postgres errors are matched by SQLSTATE through a
// duck-typed SQLState() interface (pgx wraps *pgconn.PgError); the pure-Go
// SQLite driver only exposes text, so its constraint failures are matched on
// the documented message prefixes.
package errs

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"gorm.io/gorm"
)

// Postgres SQLSTATE codes this layer cares about. Class 08 covers connection
// exceptions. See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUniqueViolation = "23505"
	pgConnClassPrefix = "08"
)

// sqlStater is satisfied by pgconn.PgError without importing pgconn here.
type sqlStater interface {
	SQLState() string
}

// Classify maps a raw engine error onto the closed ServiceError taxonomy.
//
// Rules, in order:
//   - nil stays nil; an error that already is a *ServiceError passes through
//     unchanged (no double wrapping).
//   - record-not-found sentinels become KindNotFound.
//   - unique-constraint violations become KindConflict, carrying the
//     constraint detail when the driver exposes one.
//   - connectivity failures (bad conn, refused, SQLSTATE class 08) become
//     KindConnection.
//   - everything else becomes KindDatabase with the engine message preserved
//     in the cause.
//
// Validation errors are never produced here: they are raised explicitly by
// units of work before the engine is involved.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, sql.ErrNoRows) {
		return &ServiceError{Kind: KindNotFound, Message: "record not found", Err: err}
	}

	if detail, ok := uniqueViolationDetail(err); ok {
		return Conflict(detail, err)
	}

	if isConnectionFailure(err) {
		return Connection("database connection failed", err)
	}

	return Database(err.Error(), err)
}

// uniqueViolationDetail reports whether err is a unique-constraint violation
// and extracts a human-readable detail. Falls back to a generic message when
// the driver gives nothing usable.
func uniqueViolationDetail(err error) (string, bool) {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "resource already exists", true
	}

	var st sqlStater
	if errors.As(err, &st) && st.SQLState() == pgUniqueViolation {
		if c := constraintFromPG(err.Error()); c != "" {
			return "duplicate value for constraint " + c, true
		}
		return "resource already exists", true
	}

	// glebarez/sqlite reports constraint failures as plain text, e.g.
	// "UNIQUE constraint failed: users.username".
	msg := err.Error()
	low := strings.ToLower(msg)
	if idx := strings.Index(low, "unique constraint failed:"); idx >= 0 {
		detail := strings.TrimSpace(msg[idx+len("unique constraint failed:"):])
		if detail != "" {
			return "duplicate value for " + detail, true
		}
		return "resource already exists", true
	}
	if strings.Contains(low, "constraint failed: unique") {
		return "resource already exists", true
	}
	return "", false
}

// constraintFromPG pulls the quoted constraint name out of a Postgres
// duplicate-key message ("… violates unique constraint \"ux_users_email\"").
func constraintFromPG(msg string) string {
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// isConnectionFailure reports whether err is an infrastructure failure
// (unreachable server, exhausted or broken pool) rather than a data error.
func isConnectionFailure(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var st sqlStater
	if errors.As(err, &st) && strings.HasPrefix(st.SQLState(), pgConnClassPrefix) {
		return true
	}
	low := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"bad connection",
		"failed to connect",
		"no such host",
	} {
		if strings.Contains(low, marker) {
			return true
		}
	}
	return false
}
