// Package commands implements the CLI commands for mkd.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/mkd/internal/app"
	"go.trai.ch/mkd/internal/build"
)

// Usage is the one-line synopsis printed when no file is given.
const Usage = "mkd <file.md | host:path.md>"

// CLI represents the command line interface for mkd.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, arg string, opts app.RunOptions) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	c := &CLI{app: a}

	rootCmd := &cobra.Command{
		Use:   Usage,
		Short: "Live view of a local or remote markdown file",
		Long: "mkd shows a markdown file and refreshes it whenever the file changes.\n" +
			"Remote files are given as host:path and are followed over ssh.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE:          c.runRoot,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.Flags().StringP("output-mode", "o", "", "Output mode: auto, tui, or linear (default from config, else auto)")
	rootCmd.Flags().StringP("config", "c", "", "Path to the config file")
	rootCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().String("log-format", "", "Log format: pretty or json")
	rootCmd.Flags().Bool("once", false, "Print the file to stdout and exit without watching")

	c.rootCmd = rootCmd
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) runRoot(cmd *cobra.Command, args []string) error {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}

	outputMode, _ := cmd.Flags().GetString("output-mode")
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	logFormat, _ := cmd.Flags().GetString("log-format")
	once, _ := cmd.Flags().GetBool("once")

	return c.app.Run(cmd.Context(), arg, app.RunOptions{
		ConfigPath: configPath,
		OutputMode: outputMode,
		LogFormat:  logFormat,
		Verbose:    verbose,
		Once:       once,
	})
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
