package main

import (
	"os"

	"github.com/gszep/stagehand/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
