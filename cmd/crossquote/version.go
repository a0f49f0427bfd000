package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crossquote-dev/crossquote/internal/version"
)

// versionCmd implements the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of crossquote",
	Run: func(_ *cobra.Command, _ []string) {
		info := version.Get()
		fmt.Printf("crossquote version %s\n", info.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
