// Package main provides the leapapp CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapapp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
