// Package main is the entry point for trackctl, the terminal front-end of
// the project-tracking admin console.
package main

import (
	"os"

	"github.com/good-yellow-bee/trackadmin/cmd/trackctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
