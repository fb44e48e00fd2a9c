package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/itsmostafa/jsrepl/internal/host"
	"github.com/itsmostafa/jsrepl/internal/version"
	"github.com/spf13/cobra"
)

var promptGlyph string
var noColor bool
var debug bool

var rootCmd = &cobra.Command{
	Use:   "jsrepl [script]",
	Short: "Run a JavaScript file, then continue in an interactive shell",
	Long: `jsrepl runs a JavaScript file and then drops into an interactive shell that
shares the script's global scope. Without a script it starts the shell at once.

Scripts can call alert(), prompt() and confirm() to stop and ask for input on
the terminal. Press Ctrl+C while a script runs to interrupt it into the shell.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := host.New(host.Config{
			Stdin:   cmd.InOrStdin(),
			Stdout:  cmd.OutOrStdout(),
			Prompt:  promptGlyph,
			NoColor: noColor,
			Logger:  newLogger(cmd.ErrOrStderr(), debug),
		})
		if err != nil {
			return err
		}

		var script string
		if len(args) > 0 {
			script = args[0]
		}
		return host.NewRunner(app).Run(script)
	},
}

func init() {
	build := version.Get()
	rootCmd.Version = build.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("jsrepl %s\n", build))

	// Prompt flag with env var fallback
	defaultPrompt := host.DefaultPrompt
	if envPrompt := os.Getenv("JSREPL_PROMPT"); envPrompt != "" {
		defaultPrompt = envPrompt
	}
	rootCmd.Flags().StringVar(&promptGlyph, "prompt", defaultPrompt, "Shell prompt glyph")

	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored errors and results")
	rootCmd.Flags().BoolVar(&debug, "debug", os.Getenv("JSREPL_DEBUG") != "", "Log shell lifecycle events to stderr")
}

func newLogger(w io.Writer, enabled bool) *slog.Logger {
	if !enabled {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
