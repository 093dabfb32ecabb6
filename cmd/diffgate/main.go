package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sprite-ai/diffgate/internal/cli"
	"github.com/sprite-ai/diffgate/internal/gate"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var exitErr gate.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(gate.ExitError)
	}
}
