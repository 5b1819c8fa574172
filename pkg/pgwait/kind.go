package pgwait

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies why a readiness attempt failed.
// Kinds form a shallow tree: a sub-kind IsA its parent, so a retryable set
// containing KindTransientUnavailable also matches KindServerStarting.
type ErrorKind int

const (
	KindUnclassified         ErrorKind = iota // Anything not recognised; fatal by default
	KindTransientUnavailable                  // Resource expected to recover given time
	KindConnectionNotReady                    // Refused, reset, or otherwise not yet accepting
	KindServerStarting                        // 57P03: the database system is starting up
	KindServerShuttingDown                    // 57P01/57P02: restart in progress
	KindConnectionTimeout                     // Attempt did not complete in time
	KindTooManyConnections                    // Class 53: insufficient resources
	KindConfiguration                         // Invalid interval, attempts, or connection settings
	KindAuthentication                        // Class 28: credentials rejected
	KindDatabaseMissing                       // 3D000: target database does not exist
	KindHostNotFound                          // DNS lookup returned not found
	KindCanceled                              // Caller's context was cancelled or timed out
)

var kindParents = map[ErrorKind]ErrorKind{
	KindConnectionNotReady: KindTransientUnavailable,
	KindServerStarting:     KindConnectionNotReady,
	KindServerShuttingDown: KindConnectionNotReady,
	KindConnectionTimeout:  KindConnectionNotReady,
	KindTooManyConnections: KindTransientUnavailable,
}

var kindNames = map[ErrorKind]string{
	KindUnclassified:         "unclassified",
	KindTransientUnavailable: "transient-unavailable",
	KindConnectionNotReady:   "connection-not-ready",
	KindServerStarting:       "server-starting",
	KindServerShuttingDown:   "server-shutting-down",
	KindConnectionTimeout:    "connection-timeout",
	KindTooManyConnections:   "too-many-connections",
	KindConfiguration:        "configuration",
	KindAuthentication:       "authentication",
	KindDatabaseMissing:      "database-missing",
	KindHostNotFound:         "host-not-found",
	KindCanceled:             "canceled",
}

// String returns the stable kebab-case name used in flags and pgwait.yaml.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// IsValid returns true if the ErrorKind is a defined value.
func (k ErrorKind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

// Parent returns the enclosing kind, or false for a root kind.
func (k ErrorKind) Parent() (ErrorKind, bool) {
	p, ok := kindParents[k]
	return p, ok
}

// IsA reports whether k equals target or descends from it.
func (k ErrorKind) IsA(target ErrorKind) bool {
	for cur := k; ; {
		if cur == target {
			return true
		}
		parent, ok := kindParents[cur]
		if !ok {
			return false
		}
		cur = parent
	}
}

// ParseErrorKind resolves a kind name. Matching is case-insensitive and
// accepts underscores in place of dashes.
func ParseErrorKind(name string) (ErrorKind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for kind, n := range kindNames {
		if n == normalized {
			return kind, nil
		}
	}
	return KindUnclassified, fmt.Errorf("unknown error kind %q (valid: %s): %w",
		name, strings.Join(KindNames(), ", "), ErrInvalidConfig)
}

// ParseErrorKinds resolves every name, failing on the first unknown one.
func ParseErrorKinds(names []string) ([]ErrorKind, error) {
	kinds := make([]ErrorKind, 0, len(names))
	for _, name := range names {
		kind, err := ParseErrorKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// KindNames lists all kind names in sorted order.
func KindNames() []string {
	names := make([]string, 0, len(kindNames))
	for _, n := range kindNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
