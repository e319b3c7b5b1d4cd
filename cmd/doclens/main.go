package main

import (
	"os"

	"github.com/doclens/backend/internal/delivery/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
