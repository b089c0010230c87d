package main

import (
	"os"

	"github.com/dmercer/biosift/cmd/biosift/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
