package main

import (
	"os"

	"github.com/wonny/cockpit/cmd/cockpit/commands"
)

// main is the entry point for the cockpit CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/cockpit [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
