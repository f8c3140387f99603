package main

import (
	"os"

	"github.com/runloop/rl-cli/internal/cli"
	"github.com/runloop/rl-cli/internal/domain"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(domain.GetExitCode(err))
	}
}
