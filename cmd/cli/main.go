package main

import (
	"os"

	"github.com/leadgrid-dev/leadgrid/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
