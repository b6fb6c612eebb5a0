package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [document-id]",
	Short: "Check a document for consistency",
	Long: `Loads a document and checks every graph in it: connections between existing
ports of opposite direction, port cardinality, and group membership.`,
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
		if err := ed.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Document '%s' is valid.\n", ed.DocumentID())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
