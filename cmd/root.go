package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tensorscope/internal/app"

	"github.com/spf13/cobra"
)

// Flags shared by the browser and the list command.
var (
	configPath string
	debug      bool
	recursive  bool
	bestEffort bool
	noMetadata bool
)

// expandDepth is how many levels the browser opens at start.
var expandDepth int

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tensorscope [paths...]",
	Short: "Browse the tensors in safetensors and GGUF checkpoints",
	Long: `tensorscope reads the headers of safetensors and GGUF checkpoint files and
shows every tensor in a collapsible tree grouped by its dotted name.

Paths may be files, directories, glob patterns (including **) or
model.safetensors.index.json files. A directory containing an index file
opens the sharded checkpoint it describes. Without arguments the current
directory is used.

Tensor data is never read; only the headers are parsed.

Configuration:
  tensorscope layers ~/.config/tensorscope/config.yaml and
  .tensorscope/config.yaml in the current directory over its defaults.
  Use --config to load a single file instead.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. unreadable files)
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := newAppConfig(cmd, args)
		if cmd.Flags().Changed("expand-depth") {
			cfg.ExpandDepth = &expandDepth
		}
		return runApplication(cmd, cfg)
	},
}

// newAppConfig builds the application configuration from the shared flags.
// Only flags given on the command line override the config files.
func newAppConfig(cmd *cobra.Command, args []string) *app.Config {
	if len(args) == 0 {
		args = []string{"."}
	}
	cfg := app.NewConfig(args, debug)
	cfg.ConfigPath = configPath
	cfg.BestEffort = bestEffort
	cfg.NoMetadata = noMetadata
	if cmd.Flags().Changed("recursive") {
		cfg.Recursive = &recursive
	}
	cfg.Output = cmd.OutOrStdout()
	cfg.LogOutput = cmd.ErrOrStderr()
	return cfg
}

func runApplication(cmd *cobra.Command, cfg *app.Config) error {
	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v // Set cobra's version field as well
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "tensorscope version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Load this config file instead of the user and project files")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&recursive, "recursive", "r", false, "Scan directories recursively")
	rootCmd.PersistentFlags().BoolVar(&bestEffort, "best-effort", false, "Skip files that cannot be read instead of failing")
	rootCmd.PersistentFlags().BoolVar(&noMetadata, "no-metadata", false, "Hide file-level metadata")

	rootCmd.Flags().IntVar(&expandDepth, "expand-depth", 1, "Number of tree levels open at start")
}
