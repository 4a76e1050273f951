// Command opengtap reads, validates and converts GEMPACK header array
// files.
package main

import (
	"fmt"
	"os"

	"github.com/devchoca/OpenGTAP/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
