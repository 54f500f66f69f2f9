package main

import (
	"os"

	"github.com/cliplin/cliplin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
