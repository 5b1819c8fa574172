package db

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/pgwait/internal/readiness"
	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// PingProbe checks readiness by opening a connection, pinging it and running
// a trivial query. Each Check uses a fresh connection.
type PingProbe struct {
	connector      pgwait.Connector
	classifier     pgwait.ErrorClassifier
	connectTimeout time.Duration
	query          string
}

// ProbeOption configures a PingProbe.
type ProbeOption func(*PingProbe)

// WithProbeClassifier sets how failures are classified.
// The default is readiness.NewPostgreSQLErrorClassifier().
func WithProbeClassifier(c pgwait.ErrorClassifier) ProbeOption {
	return func(p *PingProbe) {
		p.classifier = c
	}
}

// WithConnectTimeout bounds one whole check (connect, ping, query). Zero disables the bound.
func WithConnectTimeout(d time.Duration) ProbeOption {
	return func(p *PingProbe) {
		p.connectTimeout = d
	}
}

// WithQuery replaces the readiness query.
func WithQuery(sql string) ProbeOption {
	return func(p *PingProbe) {
		p.query = sql
	}
}

// NewPingProbe creates a probe over connector.
func NewPingProbe(connector pgwait.Connector, opts ...ProbeOption) *PingProbe {
	p := &PingProbe{
		connector:      connector,
		connectTimeout: pgwait.DefaultConnectTimeout,
		query:          pgwait.ReadinessQuery,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.classifier == nil {
		p.classifier = readiness.NewPostgreSQLErrorClassifier()
	}
	return p
}

// Check performs one readiness attempt. Failures are *pgwait.ProbeError values.
func (p *PingProbe) Check(ctx context.Context) error {
	if p.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.connectTimeout)
		defer cancel()
	}

	conn, err := p.connector.Connect(ctx)
	if err != nil {
		return p.fail("connect", err)
	}
	defer conn.Close()

	if err := conn.Ping(ctx); err != nil {
		return p.fail("ping", err)
	}

	var result any
	if err := conn.QueryRow(ctx, p.query).Scan(&result); err != nil {
		return p.fail("query", err)
	}

	return nil
}

// Probe returns Check as a pgwait.Probe.
func (p *PingProbe) Probe() pgwait.Probe {
	return p.Check
}

func (p *PingProbe) fail(stage string, err error) error {
	return pgwait.NewProbeError(p.classifier.Classify(err), fmt.Errorf("%s: %w", stage, err))
}
