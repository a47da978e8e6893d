package cli

import (
	"github.com/spf13/cobra"

	"github.com/MandiZhao/lowvr/internal/errors"
)

// Command-specific flags
var (
	dashFlags    dashOptions
	serveFlags   serveOptions
	runsFlags    runsOptions
	metricsFlags metricsOptions
	doctorJSON   bool
)

// dashCmd starts the terminal comparison dashboard
var dashCmd = &cobra.Command{
	Use:   "dash [wandb_dir]",
	Short: "Compare runs in a terminal dashboard",
	Long: `Open a dashboard with one chart panel per metric and one line per run.

Runs default to the newest dashboard.max_runs runs. Metrics default to every
numeric metric the runs log, filtered by dashboard.metrics patterns.

Keyboard shortcuts:
  q / Ctrl+C       Quit
  r                Refresh now
  arrows, h/j/k/l  Move between panels
  [ / ]            Pin previous/next x position
  Esc              Unpin
  + / -            More/fewer columns
  x                Cycle x axis
  < / >            Move the focused panel
  H/L, K/J         Resize the focused panel
  ?                Show help

Examples:
  lowvr dash
  lowvr dash ./wandb --runs abc123,def456
  lowvr dash --metrics 'train/*' --metrics 'eval/loss' --columns 3
  lowvr dash --remote http://gpu-box:8765 --pick`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashCommand(cmd.Context(), args, dashFlags)
	},
}

// serveCmd runs the REST API
var serveCmd = &cobra.Command{
	Use:   "serve [wandb_dir]",
	Short: "Serve runs and aligned metrics over HTTP",
	Long: `Serve the runs of a wandb directory as a JSON REST API.

Endpoints:
  GET    /api/runs
  GET    /api/runs/:id
  DELETE /api/runs/:id
  POST   /api/runs/:id/stop
  GET    /api/runs/:id/metrics
  GET    /api/runs/:id/available-metrics
  GET    /api/runs/:id/videos
  GET    /api/media/:id/*path
  GET    /api/compare
  GET    /api/config-keys
  POST   /api/refresh
  GET    /api/run-sets, POST /api/run-sets, DELETE /api/run-sets/:id

Examples:
  lowvr serve
  lowvr serve ~/experiments/wandb --port 9000
  lowvr serve --host 0.0.0.0`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCommand(cmd.Context(), args, serveFlags)
	},
}

// runsCmd lists runs
var runsCmd = &cobra.Command{
	Use:   "runs [wandb_dir]",
	Short: "List runs, newest first",
	Long: `List the runs of a wandb directory or a remote lowvr server.

Examples:
  lowvr runs
  lowvr runs --limit 5 --trend train/loss
  lowvr runs --remote http://gpu-box:8765 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if runsFlags.Limit < 0 {
			return errors.New(errors.ErrInput, "--limit can't be negative", "Use 0 to list every run")
		}
		machineMode = runsFlags.JSON
		return runsCommand(cmd.Context(), cmd.OutOrStdout(), args, runsFlags)
	},
}

// metricsCmd lists the metrics of one run
var metricsCmd = &cobra.Command{
	Use:   "metrics [wandb_dir] <run>",
	Short: "List the numeric metrics a run logs",
	Long: `List each numeric metric of a run with its point count and last value.

Examples:
  lowvr metrics abc123
  lowvr metrics ./wandb abc123 --json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		machineMode = metricsFlags.JSON
		return metricsCommand(cmd.Context(), cmd.OutOrStdout(), args, metricsFlags)
	},
}

// doctorCmd diagnoses config and wandb directory issues
var doctorCmd = &cobra.Command{
	Use:   "doctor [wandb_dir]",
	Short: "Diagnose config and wandb directory issues",
	Long: `Run diagnostic checks on the config file, the wandb directory and the
history of every run it holds.

Exits non-zero when a check fails.

Examples:
  lowvr doctor
  lowvr doctor ./wandb --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		machineMode = doctorJSON
		return doctorCommand(cmd.OutOrStdout(), args, doctorJSON)
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for lowvr.

Examples:
  # Bash
  lowvr completion bash > /etc/bash_completion.d/lowvr

  # Zsh
  lowvr completion zsh > "${fpath[1]}/_lowvr"

  # Fish
  lowvr completion fish > ~/.config/fish/completions/lowvr.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return errors.New(errors.ErrInput,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	// dash command flags
	dashCmd.Flags().StringSliceVar(&dashFlags.Runs, "runs", nil, "run IDs or names to compare (comma-separated)")
	dashCmd.Flags().StringArrayVar(&dashFlags.Metrics, "metrics", nil, "metric glob to chart (repeatable)")
	dashCmd.Flags().IntVar(&dashFlags.Columns, "columns", 0, "panel columns, 0 picks from terminal width")
	dashCmd.Flags().StringVar(&dashFlags.XAxis, "x-axis", "", "history key to plot against (default: row index)")
	dashCmd.Flags().DurationVar(&dashFlags.Refresh, "refresh", 0, "reload interval (e.g., 5s), 0 disables")
	dashCmd.Flags().StringVar(&dashFlags.Remote, "remote", "", "read runs from a lowvr server URL")
	dashCmd.Flags().BoolVar(&dashFlags.Pick, "pick", false, "choose runs and metrics interactively")

	// serve command flags
	serveCmd.Flags().StringVar(&serveFlags.Host, "host", "", "address to bind (default from config)")
	serveCmd.Flags().IntVar(&serveFlags.Port, "port", 0, "port to listen on (default from config)")

	// runs command flags
	runsCmd.Flags().BoolVar(&runsFlags.JSON, "json", false, "output as JSON")
	runsCmd.Flags().IntVar(&runsFlags.Limit, "limit", 0, "show at most this many runs")
	runsCmd.Flags().StringVar(&runsFlags.Trend, "trend", "", "metric to draw as a sparkline")
	runsCmd.Flags().StringVar(&runsFlags.Remote, "remote", "", "read runs from a lowvr server URL")

	// metrics command flags
	metricsCmd.Flags().BoolVar(&metricsFlags.JSON, "json", false, "output as JSON")
	metricsCmd.Flags().StringVar(&metricsFlags.Remote, "remote", "", "read runs from a lowvr server URL")

	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output as JSON")

	// Register all commands
	rootCmd.AddCommand(dashCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(completionCmd)
}
