package main

import (
	"os"

	"github.com/solatis/packgate/cmd/packgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
