package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vela-lang/vela/parse"
	"github.com/vela-lang/vela/render"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a file and print its diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	src, _, err := readSource(args)
	if err != nil {
		return err
	}

	result := parse.Parse(src, grammar)

	for _, d := range result.Diagnostics {
		if err := render.Diagnostic(os.Stdout, src, d); err != nil {
			return err
		}
	}

	if len(result.Diagnostics) == 0 {
		fmt.Println("no diagnostics")
	}
	return nil
}
