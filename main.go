package main

import (
	"os"

	"github.com/agentwire/a2a/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
