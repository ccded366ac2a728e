// Package main is the entry point for the docsift CLI.
package main

import (
	"os"

	"github.com/jmylchreest/docsift/cmd/docsift/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
