// Command osr randomises the object set of a park snapshot.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/osr/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
