package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// A probe needs exactly one connection, opened on demand.
const (
	probeMaxConns = 1
	probeMinConns = 0
)

func configurePool(poolConfig *pgxpool.Config, config *pgwait.ConnectionConfig) {
	poolConfig.MaxConns = probeMaxConns
	poolConfig.MinConns = probeMinConns
	if config.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = config.ConnectTimeout
	}
}

// openPool parses connStr, dials once and pings. It never retries; retrying is
// the poller's job.
func openPool(ctx context.Context, connStr string, config *pgwait.ConnectionConfig, tune func(*pgxpool.Config)) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, pgwait.NewProbeError(pgwait.KindConfiguration,
			fmt.Errorf("failed to parse connection config: %w", err))
	}

	configurePool(poolConfig, config)
	if tune != nil {
		tune(poolConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	// pgxpool connects lazily; Ping forces the first dial.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	return pool, nil
}

// StandardConnector implements the Connector interface for standard
// username/password authentication. Each Connect is a single attempt.
type StandardConnector struct {
	config *pgwait.ConnectionConfig
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *pgwait.ConnectionConfig) *StandardConnector {
	return &StandardConnector{config: config}
}

// Connect opens a single-connection pool and verifies it with a ping.
func (c *StandardConnector) Connect(ctx context.Context) (pgwait.DBConnection, error) {
	pool, err := openPool(ctx, BuildConnectionString(c.config), c.config, nil)
	if err != nil {
		return nil, err
	}
	return NewPoolAdapter(pool, nil), nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *pgwait.ConnectionConfig) (pgwait.Connector, error) {
	switch config.AuthMethod {
	case pgwait.AuthMethodStandard:
		return NewStandardConnector(config), nil
	case pgwait.AuthMethodAWSIAM:
		return newAWSConnector(config)
	case pgwait.AuthMethodGoogleIAM:
		return newGoogleConnector(config)
	case pgwait.AuthMethodAzureEntraID:
		return newAzureConnector(config)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, pgwait.ErrUnsupportedAuthMethod)
	}
}

// connectionHint turns a recognised driver message into a headline plus the
// usual explanations.
type connectionHint struct {
	patterns []string
	exclude  []string
	headline func(addr, host, database string) string
	causes   []string
}

var connectionHints = []connectionHint{
	{
		patterns: []string{"connection refused", "actively refused"},
		headline: func(addr, _, _ string) string { return "server at " + addr + " refused the connection" },
		causes: []string{
			"PostgreSQL is still starting (pgwait keeps retrying)",
			"wrong host or port",
			"a firewall rejects the port",
		},
	},
	{
		patterns: []string{"no such host", "no host"},
		headline: func(_, host, _ string) string { return fmt.Sprintf("host %q does not resolve", host) },
		causes: []string{
			"the hostname is misspelled",
			"the service's DNS record is not published yet",
		},
	},
	{
		patterns: []string{"password authentication failed"},
		headline: func(_, _, database string) string { return fmt.Sprintf("credentials rejected for database %q", database) },
		causes: []string{
			"wrong password ($PGPASSWORD, ~/.pgpass or the connection string)",
			"wrong username, or the role may not log in",
		},
	},
	{
		patterns: []string{"does not exist"},
		exclude:  []string{"role "},
		headline: func(_, _, database string) string { return fmt.Sprintf("database %q does not exist", database) },
		causes: []string{
			"the database has not been created yet (createdb <name>)",
			"-d or the connection string names the wrong database",
		},
	},
	{
		patterns: []string{"timeout", "timed out"},
		headline: func(addr, _, _ string) string { return "no answer from " + addr + " in time" },
		causes: []string{
			"the server is overloaded or still booting",
			"packets are silently dropped",
			"--connect-timeout is too short",
		},
	},
	{
		patterns: []string{"ssl", "tls"},
		headline: func(addr, _, _ string) string { return "TLS negotiation with " + addr + " failed" },
		causes: []string{
			"--sslmode does not match what the server allows",
			"certificate verification failed",
		},
	},
	{
		patterns: []string{"too many connections", "too many clients"},
		headline: func(_, _, database string) string { return fmt.Sprintf("database %q has no free connection slots", database) },
		causes: []string{
			"max_connections is reached",
			"retry with --retry-on too-many-connections to keep waiting",
		},
	},
}

// wrapConnectionError prefixes a raw pgx error with a headline and likely
// causes. The original error stays in the chain, so classification still sees it.
func wrapConnectionError(err error, host string, port int, database string) error {
	msg := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	for _, h := range connectionHints {
		if !containsAny(msg, h.patterns) || containsAny(msg, h.exclude) {
			continue
		}
		var b strings.Builder
		b.WriteString(h.headline(addr, host, database))
		b.WriteString("\n\nPossible causes:\n")
		for _, c := range h.causes {
			b.WriteString("  - " + c + "\n")
		}
		return fmt.Errorf("%s\nOriginal error: %w", b.String(), err)
	}

	return fmt.Errorf("failed to connect to %s: %w", addr, err)
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *pgwait.ConnectionConfig) (pgwait.Connector, error) {
	tokenProvider, err := NewAWSIAMTokenProvider(config.Address(), config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM"), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *pgwait.ConnectionConfig) (pgwait.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", pgwait.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", pgwait.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance), nil
}

// newAzureConnector creates a token-based connector with the Azure Entra ID token provider.
// If explicit credentials (tenant, client, secret) are provided, uses Service Principal auth.
// Otherwise, falls back to DefaultAzureCredential chain.
func newAzureConnector(config *pgwait.ConnectionConfig) (pgwait.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure"), nil
}
