package pgwait

// Logger receives printf-style diagnostics from the poller and connectors.
// Progress shown to the user is not routed through it.
// Implementations must tolerate concurrent calls.
type Logger interface {
	// Verbose carries per-attempt detail; implementations drop it unless asked for it.
	Verbose(format string, args ...interface{})

	Info(format string, args ...interface{})

	Error(format string, args ...interface{})
}
