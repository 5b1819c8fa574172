package readiness

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// PostgreSQL error codes that matter while a server comes up.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	// Class 08 - Connection Exception
	pgClassConnectionException = "08"

	// Class 28 - Invalid Authorization Specification
	pgClassInvalidAuthorization = "28"

	// Class 53 - Insufficient Resources
	pgClassInsufficientResources = "53"
	pgCodeTooManyConnections     = "53300"

	// Class 57 - Operator Intervention
	pgCodeAdminShutdown    = "57P01"
	pgCodeCrashShutdown    = "57P02"
	pgCodeCannotConnectNow = "57P03"

	// Class 3D - Invalid Catalog Name
	pgCodeInvalidCatalogName = "3D000"
)

// ExplicitKindClassifier trusts kinds attached with *pgwait.ProbeError and
// treats everything else as unclassified.
type ExplicitKindClassifier struct{}

// Classify returns the attached kind or KindUnclassified.
func (ExplicitKindClassifier) Classify(err error) pgwait.ErrorKind {
	kind, _ := pgwait.KindOf(err)
	return kind
}

// PostgreSQLErrorClassifier maps pgx, network and connection errors to kinds.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// Classify determines the kind of a connection or query failure.
// An explicit *pgwait.ProbeError kind always wins.
func (c *PostgreSQLErrorClassifier) Classify(err error) pgwait.ErrorKind {
	if err == nil {
		return pgwait.KindUnclassified
	}

	if kind, ok := pgwait.KindOf(err); ok {
		return kind
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return c.classifyPgError(pgErr)
	}

	if kind, ok := c.classifyNetworkError(err); ok {
		return kind
	}

	return c.classifyMessage(err)
}

// classifyPgError checks server-reported SQLSTATE codes.
func (c *PostgreSQLErrorClassifier) classifyPgError(pgErr *pgconn.PgError) pgwait.ErrorKind {
	code := pgErr.Code

	switch code {
	case pgCodeCannotConnectNow:
		return pgwait.KindServerStarting
	case pgCodeAdminShutdown, pgCodeCrashShutdown:
		return pgwait.KindServerShuttingDown
	case pgCodeTooManyConnections:
		return pgwait.KindTooManyConnections
	case pgCodeInvalidCatalogName:
		return pgwait.KindDatabaseMissing
	}

	switch {
	case strings.HasPrefix(code, pgClassConnectionException):
		return pgwait.KindConnectionNotReady
	case strings.HasPrefix(code, pgClassInsufficientResources):
		return pgwait.KindTooManyConnections
	case strings.HasPrefix(code, pgClassInvalidAuthorization):
		return pgwait.KindAuthentication
	}

	return pgwait.KindUnclassified
}

// classifyNetworkError checks dial, DNS and timeout errors.
func (c *PostgreSQLErrorClassifier) classifyNetworkError(err error) (pgwait.ErrorKind, bool) {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return pgwait.KindHostNotFound, true
		case dnsErr.IsTimeout:
			return pgwait.KindConnectionTimeout, true
		case dnsErr.IsTemporary:
			return pgwait.KindConnectionNotReady, true
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return pgwait.KindConnectionTimeout, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return pgwait.KindConnectionTimeout, true
	}

	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED, // server not listening yet
		syscall.ECONNRESET,
		syscall.ENETUNREACH,
		syscall.EHOSTUNREACH,
		syscall.ECONNABORTED,
		syscall.EPIPE,
	} {
		if errors.Is(err, errno) {
			return pgwait.KindConnectionNotReady, true
		}
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return pgwait.KindConnectionNotReady, true
	}

	return pgwait.KindUnclassified, false
}

// messagePattern maps a lower-case substring to a kind. Order matters:
// specific server states are matched before generic connection failures.
type messagePattern struct {
	substr string
	kind   pgwait.ErrorKind
}

var messagePatterns = []messagePattern{
	{"the database system is starting up", pgwait.KindServerStarting},
	{"the database system is in recovery mode", pgwait.KindServerStarting},
	{"the database system is shutting down", pgwait.KindServerShuttingDown},
	{"terminating connection due to administrator command", pgwait.KindServerShuttingDown},
	{"password authentication failed", pgwait.KindAuthentication},
	{"no pg_hba.conf entry", pgwait.KindAuthentication},
	{"no such host", pgwait.KindHostNotFound},
	{"too many connections", pgwait.KindTooManyConnections},
	{"remaining connection slots are reserved", pgwait.KindTooManyConnections},
	{"i/o timeout", pgwait.KindConnectionTimeout},
	{"timed out", pgwait.KindConnectionTimeout},
	{"connection timeout", pgwait.KindConnectionTimeout},
	{"connection refused", pgwait.KindConnectionNotReady},
	{"actively refused", pgwait.KindConnectionNotReady},
	{"connection reset", pgwait.KindConnectionNotReady},
	{"broken pipe", pgwait.KindConnectionNotReady},
	{"server closed the connection", pgwait.KindConnectionNotReady},
	{"unexpected eof", pgwait.KindConnectionNotReady},
	{"network is unreachable", pgwait.KindConnectionNotReady},
	{"no route to host", pgwait.KindConnectionNotReady},
}

// classifyMessage falls back to the error text for errors that lost their type.
func (c *PostgreSQLErrorClassifier) classifyMessage(err error) pgwait.ErrorKind {
	msg := strings.ToLower(err.Error())

	// "database \"x\" does not exist" (the role variant is an auth failure)
	if strings.Contains(msg, "does not exist") {
		if strings.Contains(msg, "role") {
			return pgwait.KindAuthentication
		}
		if strings.Contains(msg, "database") {
			return pgwait.KindDatabaseMissing
		}
	}

	for _, p := range messagePatterns {
		if strings.Contains(msg, p.substr) {
			return p.kind
		}
	}

	return pgwait.KindUnclassified
}

var (
	_ pgwait.ErrorClassifier = ExplicitKindClassifier{}
	_ pgwait.ErrorClassifier = (*PostgreSQLErrorClassifier)(nil)
)
