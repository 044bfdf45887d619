package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vela-lang/vela/parse"
	"github.com/vela-lang/vela/syntax"
)

var treeShowBytes bool

var treeCmd = &cobra.Command{
	Use:   "tree [file]",
	Short: "Dump the concrete syntax tree of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().BoolVar(&treeShowBytes, "bytes", false, "show each node's byte range")
}

func runTree(cmd *cobra.Command, args []string) error {
	src, _, err := readSource(args)
	if err != nil {
		return err
	}

	result := parse.Parse(src, grammar)
	dumpNode(result.Tree, 0)
	return nil
}

func dumpNode(n *syntax.GreenNode, indent int) {
	if n == nil {
		return
	}
	prefix := strings.Repeat("  ", indent)
	if treeShowBytes {
		fmt.Printf("%s%s [%d..%d]\n", prefix, n.Head.Kind, n.FirstByte, n.LastByte)
	} else {
		fmt.Printf("%s%s\n", prefix, n.Head.Kind)
	}
	for _, child := range n.Children {
		dumpNode(child, indent+1)
	}
}
