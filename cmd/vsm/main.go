// Package main is the entry point of the vsm command-line pipeline.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/cmd/vsm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
