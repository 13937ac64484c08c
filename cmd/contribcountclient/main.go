// Package main implements command line client for contribcount server.
// It submits a job, polls its status and prints counted contributors.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
