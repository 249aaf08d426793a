package main

import (
	"os"

	"contract-engine/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(cli.OpenPostgresBackend(os.Stderr)).Execute(); err != nil {
		os.Exit(1)
	}
}
