// Package main provides the pqview parquet viewer CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/pqview/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
