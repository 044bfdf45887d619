// Command vela-parse exercises the parser core from the shell: parse a
// file and print its diagnostics, dump its concrete tree, or watch a file
// and re-parse on every save.
package main

import (
	"fmt"
	"os"

	"github.com/vela-lang/vela/cmd/vela-parse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
