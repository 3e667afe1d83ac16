package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mhoffs/sprintdeps/internal/cmd"
)

func main() {
	err := cmd.Execute()
	if err != nil && !isSilent(err) {
		fmt.Fprintf(os.Stderr, "sprintdeps: %v\n", err)
	}
	os.Exit(cmd.ExitCode(err))
}

// isSilent reports whether the error was already rendered as command output
// and only carries the exit status.
func isSilent(err error) bool {
	var sr interface{ Silent() bool }
	return errors.As(err, &sr) && sr.Silent()
}
