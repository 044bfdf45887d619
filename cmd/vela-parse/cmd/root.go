package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vela-lang/vela/config"
)

var (
	grammarPath string
	grammar     *config.Grammar
)

var rootCmd = &cobra.Command{
	Use:   "vela-parse",
	Short: "Parse Vela source and inspect the resulting concrete syntax tree",
	Long: `vela-parse drives the Vela parser core from the command line:
print the diagnostics produced for a file, dump its concrete syntax
tree for debugging, or watch a file and re-parse it on every save.`,
	PersistentPreRunE: loadGrammar,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&grammarPath, "grammar", "", "path to a vela.json grammar config (defaults to the newest grammar with every feature on)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadGrammar(cmd *cobra.Command, args []string) error {
	if grammarPath == "" {
		return nil
	}
	raw, err := os.ReadFile(grammarPath)
	if err != nil {
		return fmt.Errorf("reading grammar config: %w", err)
	}
	g, err := config.Load(raw)
	if err != nil {
		return fmt.Errorf("loading grammar config: %w", err)
	}
	grammar = g
	return nil
}

func readSource(args []string) ([]byte, string, error) {
	if len(args) == 0 {
		return nil, "", fmt.Errorf("expected a file path")
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return src, args[0], nil
}
