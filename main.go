// Command dutree computes recursive disk usage for a directory tree.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/dutree/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "unknown - unofficial & generated by unknown"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
