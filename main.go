package main

import (
	"os"

	"github.com/examtraining/examtraining/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
