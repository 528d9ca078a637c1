package main

import (
	"os"

	"github.com/meridian-obs/skysched/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
