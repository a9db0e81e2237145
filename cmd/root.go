// Package cmd wires the kidcreatives command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kidcreatives",
	Short: "kidcreatives - the creative workflow service for young artists",
	Long: `kidcreatives turns a child's drawing into finished artwork through a
guided creative workflow: upload and intent, guided questions that build
an image prompt, Gemini image generation, a conversational edit loop and
a printable creation certificate.

Run "kidcreatives serve" to start the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
