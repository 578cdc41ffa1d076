// Command casectl is the operator CLI for the casework database.
package main

import (
	"os"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}
