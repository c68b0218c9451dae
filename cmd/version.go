package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of tensorscope",
		Run: func(cmd *cobra.Command, args []string) {
			// The --version flag uses the template set in Execute; this
			// prints the same line.
			fmt.Fprintf(cmd.OutOrStdout(), "tensorscope version %s\n", rootCmd.Version)
		},
	}
}
