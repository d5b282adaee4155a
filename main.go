package main

import (
	"os"

	"github.com/unimap/unimap/cmd"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
