// Package cmd wires the command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "askcisco",
	Short: "Documentation question answering over a vector index",
	Long: `askcisco answers natural-language questions about a technical
documentation corpus. It retrieves relevant passages from a vector index,
grounds a language model on them, and streams the answer with source
citations.

Run "askcisco serve" to start the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
