package main

import (
	"os"

	"github.com/veloway/rentd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
