package main

import (
	"os"

	"github.com/muzaffarq/paygent/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
