package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// TransientError marks an error as safe to retry, optionally carrying the
// HTTP status that caused it.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as transient.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient reports whether err is an explicit TransientError or a
// network-level failure (timeouts, resets, DNS).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	return containsAny(strings.ToLower(err.Error()), networkPatterns)
}

var networkPatterns = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
	"unexpected eof",
}

// sqlite busy/locked as reported by modernc.org/sqlite.
var sqliteBusyPatterns = []string{
	"database is locked",
	"database table is locked",
	"sqlite_busy",
	"sqlite_locked",
}

// IsRetryable extends IsTransient with database conditions that clear on
// their own: SQLite busy/locked, Postgres connection loss, serialization
// failures and deadlocks. Constraint violations and other data errors are
// never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isRetryablePgCode(pgErr.Code)
	}

	if IsTransient(err) {
		return true
	}

	return containsAny(strings.ToLower(err.Error()), sqliteBusyPatterns)
}

func isRetryablePgCode(code string) bool {
	switch {
	case strings.HasPrefix(code, "08"): // connection exception
		return true
	case code == "40001", // serialization_failure
		code == "40P01", // deadlock_detected
		code == "53300", // too_many_connections
		code == "57P01", // admin_shutdown
		code == "57P03": // cannot_connect_now
		return true
	default:
		return false
	}
}

// IsTransientHTTPStatus reports whether an HTTP status is worth retrying.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429:
		return true
	default:
		return statusCode >= 500 && statusCode <= 599
	}
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
