// Package main is the entry point for the analytics CLI.
package main

import (
	"os"

	"financialchecker/cmd/analytics/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
