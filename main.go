package main

import (
	"os"

	"ptrack/cmd"
)

// Version should be set during build
var Version = "dev"

func main() {
	cmd.Version = Version
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
