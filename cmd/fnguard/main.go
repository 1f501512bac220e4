// Command fnguard validates chat profiles, tools and chat requests from JSON or YAML
// files and manages a SQLite-backed catalog of them.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
