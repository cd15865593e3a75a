package main

import (
	"fmt"
	"os"

	"github.com/bcnelson/apikey-console/cmd/keyctl/cli"
)

// Set via -ldflags at build time
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
