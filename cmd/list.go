package cmd

import (
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "list [paths...]",
		Short: "Print the tensor tree without starting the browser",
		Long: `Prints the same tree the browser shows, one row per line, followed by a
summary of the tensor count, parameter count and total size.

By default every group is expanded. Use --depth to limit the output to the
top levels.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := newAppConfig(cmd, args)
			cfg.List = true
			cfg.ListDepth = depth
			return runApplication(cmd, cfg)
		},
	}

	cmd.Flags().IntVar(&depth, "depth", -1, "Number of expanded levels (-1 expands everything)")
	return cmd
}
