package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/pkg/domain"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flowcanvas",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "flowcanvas version %s (document format %s)\n",
			strings.TrimSpace(flowcanvas.Version), domain.FormatVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
