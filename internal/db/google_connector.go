package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// GoogleCloudSQLConnector implements the Connector interface for Google Cloud SQL
// using IAM database authentication via the Cloud SQL Go Connector.
//
// Every Connect creates its own dialer, which is closed together with the
// returned connection.
type GoogleCloudSQLConnector struct {
	config   *pgwait.ConnectionConfig
	instance string
	options  []cloudsqlconn.Option
}

// NewGoogleCloudSQLConnector creates a connector for Google Cloud SQL IAM authentication.
// instance is the instance connection name in format: project:region:instance
func NewGoogleCloudSQLConnector(config *pgwait.ConnectionConfig, instance string, opts ...cloudsqlconn.Option) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{
		config:   config,
		instance: instance,
		options:  append([]cloudsqlconn.Option{cloudsqlconn.WithIAMAuthN()}, opts...),
	}
}

// Connect dials the instance through the Cloud SQL connector and pings it.
// The connector handles authentication and TLS, so sslmode is disabled on the
// PostgreSQL side.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (pgwait.DBConnection, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, c.options...)
	if err != nil {
		return nil, pgwait.NewProbeError(pgwait.KindAuthentication,
			fmt.Errorf("failed to create Cloud SQL dialer: %w", err))
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s dbname=%s sslmode=disable",
		c.instance,
		c.config.Username,
		c.config.Database,
	)
	if c.config.AppName != "" {
		dsn += " application_name=" + c.config.AppName
	}

	pool, err := openPool(ctx, dsn, c.config, func(poolConfig *pgxpool.Config) {
		poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.Dial(ctx, c.instance)
		}
	})
	if err != nil {
		dialer.Close()
		return nil, err
	}

	return NewPoolAdapter(pool, func() { dialer.Close() }), nil
}
