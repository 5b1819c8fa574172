package pgwait

import "context"

// Connector is a unified interface for establishing database connections.
// Different implementations handle various authentication methods
// (standard credentials, cloud IAM, etc.).
type Connector interface {
	// Connect opens a connection to the database.
	// The returned connection must be closed by the caller when done.
	Connect(ctx context.Context) (DBConnection, error)
}

// DBConnection abstracts the operations a readiness check needs from an open
// connection, decoupling probes from pgx-specific types.
type DBConnection interface {
	// Ping verifies the server answers on this connection.
	Ping(ctx context.Context) error

	// QueryRow executes a query that is expected to return at most one row.
	// Always returns a non-nil Row. Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Close releases the connection and any resources the connector attached to it.
	Close()
}

// Row represents a single row returned by QueryRow.
type Row interface {
	// Scan reads the values from the row into dest values.
	Scan(dest ...any) error
}
