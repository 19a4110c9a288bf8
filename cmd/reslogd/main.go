// Reslogd samples CPU, memory, thermal, battery, power, disk and network
// counters once per interval and appends them to a TSV log that survives
// restarts.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
