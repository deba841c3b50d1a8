// Package main is the entry point for the wikiplain CLI.
package main

import (
	"os"

	"github.com/wikiplain/wikiplain/cmd/wikiplain/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
