package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/pgwait/internal/cli"
	"github.com/vvka-141/pgwait/pkg/pgwait"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "pgwait crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(pgwait.ExitPanic)
		}
	}()

	// Lets tests check the panic exit code.
	if os.Getenv("PGWAIT_TEST_PANIC") == "1" {
		panic("PGWAIT_TEST_PANIC is set")
	}

	os.Exit(pgwait.ExitCodeForError(cli.Execute()))
}
