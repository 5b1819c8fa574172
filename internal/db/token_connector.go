package db

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// TokenProvider acquires a short-lived token used as the PostgreSQL password.
type TokenProvider interface {
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for error messages. It must not reveal secrets.
	String() string
}

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// A fresh token is acquired on every Connect and used as the PostgreSQL password.
type TokenBasedConnector struct {
	config        *pgwait.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *pgwait.ConnectionConfig, tokenProvider TokenProvider, providerName string) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
	}
}

// Connect acquires a token and makes a single connection attempt with it.
// Token failures are reported as authentication failures.
func (c *TokenBasedConnector) Connect(ctx context.Context) (pgwait.DBConnection, error) {
	token, _, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, pgwait.NewProbeError(pgwait.KindAuthentication,
			fmt.Errorf("failed to acquire %s token from %s: %w", c.providerName, c.tokenProvider, err))
	}

	configWithToken := *c.config
	configWithToken.Password = token

	pool, err := openPool(ctx, BuildConnectionString(&configWithToken), c.config, nil)
	if err != nil {
		return nil, err
	}
	return NewPoolAdapter(pool, nil), nil
}

// String describes the connector without secrets.
func (c *TokenBasedConnector) String() string {
	return fmt.Sprintf("%s via %s", c.providerName, c.tokenProvider)
}
