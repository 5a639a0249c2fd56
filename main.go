package main

import (
	"os"

	"github.com/spigell/scheme-assistant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
