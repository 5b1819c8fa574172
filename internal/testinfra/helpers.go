package testinfra

import (
	"context"
	"os"
	"sync"
	"testing"
)

// TestConnEnv names an existing server to use instead of a container.
const TestConnEnv = "PGWAIT_TEST_CONN"

// One container serves every test of a package binary. It is reaped by
// testcontainers' ryuk sidecar when the binary exits.
var (
	sharedOnce sync.Once
	sharedConn string
	sharedErr  error
)

func sharedContainer() (string, error) {
	sharedOnce.Do(func() {
		ctr, err := StartSimplePostgres(context.Background())
		if err != nil {
			sharedErr = err
			return
		}
		sharedConn = ctr.ConnString
	})
	return sharedConn, sharedErr
}

// GetTestConnectionString prefers $PGWAIT_TEST_CONN, then a shared container,
// and skips the test when neither is available.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv(TestConnEnv); connString != "" {
		return connString
	}

	connString, err := sharedContainer()
	if err != nil {
		t.Skipf("%s not set and no container could be started: %v", TestConnEnv, err)
	}
	return connString
}

// SkipIfShort skips integration tests under -short.
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
}

// RequireDatabase returns a connection string for a live server or skips.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}
