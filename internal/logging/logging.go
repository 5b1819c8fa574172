// Package logging holds the pgwait.Logger implementations used by the poller
// and the CLI. ConsoleLogger writes prefixed diagnostic lines, stderr unless
// told otherwise; NullLogger drops everything and is the poller's default.
// Both are safe for concurrent use.
package logging

import "github.com/vvka-141/pgwait/pkg/pgwait"

// NullLogger drops every message. The zero value is ready to use.
type NullLogger struct{}

// NewNullLogger returns a NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (*NullLogger) Verbose(string, ...interface{}) {}
func (*NullLogger) Info(string, ...interface{})    {}
func (*NullLogger) Error(string, ...interface{})   {}

var _ pgwait.Logger = (*NullLogger)(nil)
