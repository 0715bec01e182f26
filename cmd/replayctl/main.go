package main

import (
	"os"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
