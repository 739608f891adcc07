package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/config"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/logging"
)

// Global flag values accessible to all subcommands.
var (
	flagVerbose   bool
	flagQuiet     bool
	flagConfig    string
	flagDir       string
	flagNoColor   bool
	flagLogLevel  string
	flagLogFormat string
)

// rootCmd is the base command for StepBar.
var rootCmd = &cobra.Command{
	Use:   "stepbar",
	Short: "Sequential step runner with live elapsed-time progress",
	Long: `StepBar runs an ordered list of steps one after another and reports how
long each step, and the whole run, has been going while it works.

Steps come from stepbar.toml: simulated delays, simulated failures, or
external commands. Use "stepbar run" for line-oriented output and
"stepbar watch" for the interactive progress view.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Check env vars for flags not explicitly set on command line.
		if !cmd.Flags().Changed("verbose") && os.Getenv("STEPBAR_VERBOSE") != "" {
			flagVerbose = true
		}
		if !cmd.Flags().Changed("quiet") && os.Getenv("STEPBAR_QUIET") != "" {
			flagQuiet = true
		}
		if !cmd.Flags().Changed("no-color") && (os.Getenv("NO_COLOR") != "" || os.Getenv("STEPBAR_NO_COLOR") != "") {
			flagNoColor = true
		}

		// Initialize logging; commands that load a config re-apply it with
		// the resolved [log] settings.
		jsonFormat := os.Getenv(config.EnvLogFormat) == "json"
		if err := logging.Setup(logging.Options{Verbose: flagVerbose, Quiet: flagQuiet, JSON: jsonFormat}); err != nil {
			return err
		}

		if flagNoColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}

		if flagDir != "" {
			if err := os.Chdir(flagDir); err != nil {
				return fmt.Errorf("changing directory to %s: %w", flagDir, err)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose (debug) output (env: STEPBAR_VERBOSE)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress all output except errors (env: STEPBAR_QUIET)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to stepbar.toml config file")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Override working directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output (env: STEPBAR_NO_COLOR, NO_COLOR)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (env: STEPBAR_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text or json (env: STEPBAR_LOG_FORMAT)")
}

// Execute runs the root command and returns the exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// NewRootCmd returns a root command for external tools such as the shell
// completion and man page generators. It carries the same persistent flags
// as the global rootCmd. The run and watch commands are fresh instances; the
// remaining subcommands are moved over from the global tree, so the result
// must not be executed alongside Execute.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               rootCmd.Use,
		Short:             rootCmd.Short,
		Long:              rootCmd.Long,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: rootCmd.PersistentPreRunE,
	}
	cmd.PersistentFlags().AddFlagSet(rootCmd.PersistentFlags())

	cmd.AddCommand(newRunCmd(), newWatchCmd())
	for _, child := range rootCmd.Commands() {
		switch child.Name() {
		case runCmd.Name(), watchCmd.Name():
			continue
		}
		cmd.AddCommand(child)
	}
	return cmd
}
