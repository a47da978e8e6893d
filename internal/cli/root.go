package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/logger"
	"github.com/MandiZhao/lowvr/internal/ui"
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "lowvr",
	Short: "Compare local wandb runs in the terminal or over HTTP",
	Long: `lowvr reads the run directories wandb writes to disk and compares
their metrics side by side, without uploading anything.

  lowvr dash    - terminal dashboard, one panel per metric, one line per run
  lowvr serve   - REST API for the web viewer and remote dashboards
  lowvr runs    - list the runs of a wandb directory
  lowvr doctor  - check the wandb directory and config`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
		if noColor {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .lowvr.yaml, searched upward)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(handleError(os.Stderr, err))
	}
}

// handleError prints err in the form the active output mode expects and
// returns the exit code.
func handleError(w io.Writer, err error) int {
	if machineMode {
		_ = WriteJSONFromError(os.Stdout, err)
		return 1
	}

	if isUnknownCommandError(err) {
		msg := err.Error()
		if name := extractUnknownCommand(err); name != "" {
			msg = fmt.Sprintf("Unknown command %q", name)
		}
		fmt.Fprintln(w, ui.ErrorStyle().Render(ui.SymbolFail+" "+msg))
		fmt.Fprintln(w, ui.MutedStyle().Render("  Run 'lowvr --help' for the list of commands"))
		return 2
	}

	if _, ok := err.(*errors.Error); ok {
		fmt.Fprint(w, err.Error())
	} else {
		fmt.Fprintln(w, ui.ErrorStyle().Render(ui.SymbolFail+" "+err.Error()))
	}
	return 1
}

// isUnknownCommandError reports cobra's usage errors for unknown commands
// and flags.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "lowvr"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// stdoutIsTerminal decides between styled and plain output.
func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
