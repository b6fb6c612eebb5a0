package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/flowcanvas/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph [document-id]",
	Short: "Export a document as a Mermaid diagram",
	Long: `Loads a document (the configured one by default) and outputs a Mermaid
flowchart of its root graph. With --expand, composite nodes are drawn with their
subgraphs inline.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		var docID string
		if len(args) > 0 {
			docID = args[0]
		}
		ed, err := stack.NewEditor(docID)
		if err != nil {
			return err
		}
		if err := ed.Load(cmd.Context()); err != nil {
			return err
		}

		expand, _ := cmd.Flags().GetBool("expand")
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(ed.Document(), graph.Options{Expand: expand}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("expand", false, "Draw composite subgraphs inline")
}
