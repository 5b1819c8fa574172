package pgwait

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Database became available
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration or parameters
	ExitConnectionError  = 11 // Database still unavailable when polling stopped
	ExitTimeout          = 15 // Overall deadline reached or polling cancelled
	ExitAuthFailed       = 16 // Server rejected the credentials
	ExitDatabaseNotFound = 17 // Target database does not exist
)

const (
	// DefaultPollInterval is the delay between failed readiness attempts.
	DefaultPollInterval = 1 * time.Second

	// DefaultConnectTimeout bounds a single readiness attempt.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultMaxInterval caps the delay when exponential backoff is selected.
	DefaultMaxInterval = 30 * time.Second

	// DefaultDatabase is used when no database is named anywhere.
	DefaultDatabase = "postgres"

	// DefaultPort is the standard PostgreSQL port.
	DefaultPort = 5432

	// DefaultSSLMode matches libpq's default.
	DefaultSSLMode = "prefer"

	// ApplicationNamePrefix is prepended to the per-run session id in application_name,
	// so waiting clients are visible in pg_stat_activity.
	ApplicationNamePrefix = "pgwait"

	// ReadinessQuery is executed after a successful ping.
	ReadinessQuery = "SELECT 1"
)
