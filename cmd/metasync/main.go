package main

import (
	"os"

	"github.com/metasync-tools/metasync/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
