package db

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/vvka-141/pgwait/internal/config"
	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $PGPASSWORD environment variable
//  2. .pgpass file (read by pgx when no password is set)
//  3. Connection string with embedded password
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided by the user.
// Database is excluded because it may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudFlags selects and parameterizes cloud IAM authentication.
// Azure client secrets are NOT accepted as flags; use AZURE_CLIENT_SECRET.
type CloudFlags struct {
	AuthMethod     string // --auth: standard, aws, google, azure
	AzureTenantID  string // Overrides AZURE_TENANT_ID
	AzureClientID  string // Overrides AZURE_CLIENT_ID
	AWSRegion      string // Overrides AWS_REGION
	GoogleInstance string // project:region:instance
}

// EnvVars represents the environment variables the resolver reads.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGWAIT_CONNECTION_STRING string // Full connection string, preferred over DATABASE_URL
	DATABASE_URL             string // Full connection string (Heroku/Rails convention)

	PGHOST            string
	PGPORT            string
	PGUSER            string
	PGPASSWORD        string
	PGDATABASE        string
	PGSSLMODE         string
	PGAPPNAME         string
	PGCONNECT_TIMEOUT string // whole seconds

	// Azure Entra ID environment variables (Azure SDK standard names)
	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string

	AWS_REGION         string
	AWS_DEFAULT_REGION string
}

// LoadFromEnvironment loads PostgreSQL and cloud provider environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGWAIT_CONNECTION_STRING: os.Getenv("PGWAIT_CONNECTION_STRING"),
		DATABASE_URL:             os.Getenv("DATABASE_URL"),
		PGHOST:                   os.Getenv("PGHOST"),
		PGPORT:                   os.Getenv("PGPORT"),
		PGUSER:                   os.Getenv("PGUSER"),
		PGPASSWORD:               os.Getenv("PGPASSWORD"),
		PGDATABASE:               os.Getenv("PGDATABASE"),
		PGSSLMODE:                os.Getenv("PGSSLMODE"),
		PGAPPNAME:                os.Getenv("PGAPPNAME"),
		PGCONNECT_TIMEOUT:        os.Getenv("PGCONNECT_TIMEOUT"),
		AZURE_TENANT_ID:          os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:          os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:      os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:               os.Getenv("AWS_REGION"),
		AWS_DEFAULT_REGION:       os.Getenv("AWS_DEFAULT_REGION"),
	}
}

// connectionString returns the first connection string set in the environment.
func (e *EnvVars) connectionString() (value, source string) {
	if e.PGWAIT_CONNECTION_STRING != "" {
		return e.PGWAIT_CONNECTION_STRING, "$PGWAIT_CONNECTION_STRING"
	}
	if e.DATABASE_URL != "" {
		return e.DATABASE_URL, "$DATABASE_URL"
	}
	return "", ""
}

// ResolveConnectionParams resolves connection parameters using PostgreSQL-standard precedence:
//
//  1. Connection string flag (--connection)
//  2. $PGWAIT_CONNECTION_STRING, then $DATABASE_URL, when no granular flags are given
//  3. Granular flags (-h, -p, -U, -d, --sslmode)
//  4. PG* environment variables
//  5. pgwait.yaml connection block
//  6. Defaults (localhost:5432/postgres, sslmode prefer)
//
// -d overrides the database of a connection string. Specifying both --connection
// and granular flags is an error.
//
// Authentication: --auth (or auth_method in pgwait.yaml) selects the method.
// Azure tenant or client IDs, from flags or AZURE_* variables, switch standard
// auth to Azure Entra ID.
//
// Errors wrap pgwait.ErrInvalidConfig or pgwait.ErrUnsupportedAuthMethod.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pgwait.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/postgres\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U myuser -d mydb\n"+
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=myuser: %w",
			pgwait.ErrInvalidConfig,
		)
	}

	var cfg *pgwait.ConnectionConfig
	var err error

	switch envConn, source := envVars.connectionString(); {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, "--connection", granularFlags, envVars)
	case granularFlags.IsEmpty() && envConn != "":
		cfg, err = resolveFromConnectionString(envConn, source, granularFlags, envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if cfg.AppName == "" {
		cfg.AppName = envVars.PGAPPNAME
	}
	if cfg.ConnectTimeout == 0 && envVars.PGCONNECT_TIMEOUT != "" {
		seconds, err := strconv.Atoi(envVars.PGCONNECT_TIMEOUT)
		if err != nil || seconds < 0 {
			return nil, fmt.Errorf("invalid $PGCONNECT_TIMEOUT value '%s': must be a non-negative integer: %w",
				envVars.PGCONNECT_TIMEOUT, pgwait.ErrInvalidConfig)
		}
		cfg.ConnectTimeout = time.Duration(seconds) * time.Second
	}

	if err := applyAuth(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveFromConnectionString parses a connection string. PGPASSWORD fills a
// missing password, as libpq does.
func resolveFromConnectionString(connStr, source string, flags *GranularConnFlags, envVars *EnvVars) (*pgwait.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string from %s: %w", source, err)
	}

	if flags.Database != "" {
		cfg.Database = flags.Database
	}
	if cfg.Password == "" {
		cfg.Password = envVars.PGPASSWORD
	}

	return cfg, nil
}

// resolveFromGranularParams builds ConnectionConfig from granular flags, environment
// variables and pgwait.yaml, in that order of precedence.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	pc config.ConnectionConfig,
) (*pgwait.ConnectionConfig, error) {
	cfg := &pgwait.ConnectionConfig{
		AuthMethod:       pgwait.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, "localhost")

	// Port: flag > PGPORT > pgwait.yaml > default
	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer between 1 and 65535: %w",
				envVars.PGPORT, pgwait.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = pgwait.DefaultPort
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d: %w", cfg.Port, pgwait.ErrInvalidConfig)
	}

	// Username falls back to the current OS user, as psql does.
	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Password = envVars.PGPASSWORD
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database, pgwait.DefaultDatabase)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, pgwait.DefaultSSLMode)

	return cfg, nil
}

// applyAuth resolves the authentication method and its cloud parameters.
// CLI flags take precedence over environment variables and pgwait.yaml.
func applyAuth(cfg *pgwait.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc config.ConnectionConfig) error {
	method, err := pgwait.ParseAuthMethod(firstNonEmpty(flags.AuthMethod, pc.AuthMethod))
	if err != nil {
		return err
	}

	tenantID := firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
	clientID := firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)

	if method == pgwait.AuthMethodStandard && (tenantID != "" || clientID != "") {
		method = pgwait.AuthMethodAzureEntraID
	}
	cfg.AuthMethod = method

	switch method {
	case pgwait.AuthMethodAzureEntraID:
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		// Client secret only comes from env var (no flag for security)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	case pgwait.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, pc.AWSRegion, env.AWS_REGION, env.AWS_DEFAULT_REGION)
	case pgwait.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
