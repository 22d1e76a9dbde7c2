package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/crucial707/ipo-schedule/cmd/cli/root"
)

func main() {
	_ = godotenv.Load()

	// Execute the root Cobra command
	if err := root.GetRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
