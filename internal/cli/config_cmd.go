package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/config"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/logging"
)

// configCmd is the parent "config" namespace command. It has no action of its
// own -- it groups the debug, validate and init subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  "Inspect, validate, and create StepBar configuration.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// configDebugCmd implements "stepbar config debug".
var configDebugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Show resolved configuration with source annotations",
	Long: `Display the fully-resolved configuration showing each value and
the source where it came from (cli flag, environment variable, config file, or default).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved, _, err := loadAndResolveConfig(nil)
		if err != nil {
			return err
		}
		return printResolvedConfig(cmd.OutOrStdout(), resolved)
	},
}

// configValidateCmd implements "stepbar config validate".
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and report issues",
	Long:  "Check the configuration for errors and warnings.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved, meta, err := loadAndResolveConfig(nil)
		if err != nil {
			return err
		}
		result := config.Validate(resolved.Config, meta)
		printValidationResult(cmd.OutOrStdout(), result)
		if result.HasErrors() {
			return fmt.Errorf("configuration has %d error(s)", len(result.Errors()))
		}
		return nil
	},
}

// configInitForce skips the overwrite prompt.
var configInitForce bool

// errInitDeclined is returned when the user keeps an existing file.
var errInitDeclined = errors.New("config init: existing file kept")

// confirmOverwrite asks whether path may be replaced. Tests swap it out.
var confirmOverwrite = func(path string) (bool, error) {
	if !isStdinTTY() {
		return false, fmt.Errorf("%s already exists; use --force to overwrite", path)
	}
	var overwrite bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("%s already exists. Overwrite it?", path)).
		Affirmative("Overwrite").
		Negative("Keep").
		Value(&overwrite).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return overwrite, err
}

// configInitCmd implements "stepbar config init".
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a stepbar.toml with the default demo steps",
	Long: `Write stepbar.toml in the current directory (or the --config path)
containing the default settings and the eight-step demo sequence.

An existing file is only replaced after confirmation, or with --force.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			path = config.ConfigFileName
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			ok, err := confirmOverwrite(path)
			if err != nil {
				return err
			}
			if !ok {
				return errInitDeclined
			}
		}

		data, err := config.Encode(config.NewDefaults())
		if err != nil {
			return err
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		logging.New("config").Debug("wrote config", "path", path, "bytes", len(data))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file without asking")
	configCmd.AddCommand(configDebugCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// cliOverrides collects the global flags that were explicitly set, merged
// with per-command overrides in extra.
func cliOverrides(extra *config.CLIOverrides) *config.CLIOverrides {
	o := &config.CLIOverrides{}
	if extra != nil {
		*o = *extra
	}
	if f := rootCmd.PersistentFlags().Lookup("log-level"); f != nil && f.Changed {
		o.LogLevel = &flagLogLevel
	}
	if f := rootCmd.PersistentFlags().Lookup("log-format"); f != nil && f.Changed {
		o.LogFormat = &flagLogFormat
	}
	return o
}

// loadAndResolveConfig loads and resolves the configuration from all sources
// (file, env, CLI flags). It returns the resolved config, the TOML metadata
// (nil when no file was found), and any loading error.
//
// When flagConfig is set, that path is used directly. Otherwise,
// config.FindConfigFile searches upward from the current directory.
func loadAndResolveConfig(extra *config.CLIOverrides) (*config.ResolvedConfig, *toml.MetaData, error) {
	var (
		fileCfg *config.Config
		meta    *toml.MetaData
		cfgPath string
	)

	if flagConfig != "" {
		cfgPath = flagConfig
	} else {
		found, err := config.FindConfigFile(".")
		if err != nil {
			return nil, nil, fmt.Errorf("finding config file: %w", err)
		}
		cfgPath = found
	}

	if cfgPath != "" {
		fc, md, err := config.LoadFromFile(cfgPath)
		if err != nil {
			return nil, nil, err
		}
		fileCfg = fc
		meta = &md
	}

	resolved := config.Resolve(config.NewDefaults(), fileCfg, os.LookupEnv, cliOverrides(extra))
	resolved.Path = cfgPath

	return resolved, meta, nil
}

// ---- Lipgloss styles --------------------------------------------------------

// sourceStyle returns a lipgloss style for a given ConfigSource.
func sourceStyle(src config.ConfigSource) lipgloss.Style {
	switch src {
	case config.SourceFile:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // bright blue
	case config.SourceEnv:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // bright yellow
	case config.SourceCLI:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")) // bright red
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // bright green
	}
}

var (
	styleHeader   = lipgloss.NewStyle().Bold(true)
	styleSection  = lipgloss.NewStyle().Bold(true)
	styleErrorLbl = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)  // red
	styleWarnLbl  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true) // yellow
	styleSuccess  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))            // green
)

// ---- printResolvedConfig ----------------------------------------------------

const fieldWidth = 16 // column width for field names

// printResolvedConfig writes the resolved configuration with the source of
// every value.
func printResolvedConfig(out io.Writer, rc *config.ResolvedConfig) error {
	printHeader(out, "Configuration Debug")

	if rc.Path != "" {
		fmt.Fprintf(out, "Config file: %s\n", rc.Path)
	} else {
		fmt.Fprintln(out, "Config file: none found")
	}
	fp, err := config.Fingerprint(rc.Config)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Fingerprint: %s\n\n", fp)

	fmt.Fprintln(out, styleSection.Render("[run]"))
	printField(out, "name", fmtStr(rc.Config.Run.Name), rc.Sources["run.name"])
	printField(out, "sample_interval", fmtStr(rc.Config.Run.SampleInterval), rc.Sources["run.sample_interval"])
	fmt.Fprintln(out)

	fmt.Fprintln(out, styleSection.Render("[log]"))
	printField(out, "level", fmtStr(rc.Config.Log.Level), rc.Sources["log.level"])
	printField(out, "format", fmtStr(rc.Config.Log.Format), rc.Sources["log.format"])
	fmt.Fprintln(out)

	src := rc.Sources["steps"]
	fmt.Fprintf(out, "%s %s\n", styleSection.Render("[[steps]]"), sourceStyle(src).Render(fmt.Sprintf("(source: %s)", src)))
	for i, s := range rc.Config.Steps {
		fmt.Fprintf(out, "  %d. %-28s %s\n", i+1, s.Name, describeStep(s))
	}
	return nil
}

// describeStep summarizes what a step does in one line.
func describeStep(s config.StepConfig) string {
	var desc string
	switch {
	case s.IsCommand():
		desc = "command " + fmtSlice(s.Command)
	case s.Duration != "":
		desc = "wait " + s.Duration
	default:
		lo, hi := s.MinDuration, s.MaxDuration
		if lo == "" {
			lo = "0s"
		}
		if hi == "" {
			hi = lo
		}
		desc = fmt.Sprintf("wait %s-%s", lo, hi)
	}
	if s.Fail != "" {
		desc += fmt.Sprintf(", then fail %q", s.Fail)
	}
	return desc
}

func printHeader(out io.Writer, title string) {
	fmt.Fprintln(out, styleHeader.Render(title))
	fmt.Fprintln(out, strings.Repeat("=", len(title)))
	fmt.Fprintln(out)
}

// printField writes a single key = value (source: ...) line.
func printField(out io.Writer, name, value string, src config.ConfigSource) {
	padded := fmt.Sprintf("  %-*s", fieldWidth, name)
	srcLabel := sourceStyle(src).Render(fmt.Sprintf("(source: %s)", src))
	fmt.Fprintf(out, "%s = %-24s %s\n", padded, value, srcLabel)
}

// fmtStr formats a string value for display (quoted).
func fmtStr(s string) string {
	return fmt.Sprintf("%q", s)
}

// fmtSlice formats a string slice for display.
func fmtSlice(ss []string) string {
	if len(ss) == 0 {
		return "[]"
	}
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// ---- printValidationResult --------------------------------------------------

// printValidationResult writes the formatted validation report.
func printValidationResult(out io.Writer, result *config.ValidationResult) {
	printHeader(out, "Configuration Validation")

	errs := result.Errors()
	warns := result.Warnings()

	if len(errs) == 0 && len(warns) == 0 {
		fmt.Fprintln(out, styleSuccess.Render("No issues found."))
		return
	}

	if len(errs) > 0 {
		fmt.Fprintln(out, styleErrorLbl.Render("Errors:"))
		for _, issue := range errs {
			fmt.Fprintf(out, "  [%s] %s\n", issue.Field, issue.Message)
		}
		fmt.Fprintln(out)
	}

	if len(warns) > 0 {
		fmt.Fprintln(out, styleWarnLbl.Render("Warnings:"))
		for _, issue := range warns {
			fmt.Fprintf(out, "  [%s] %s\n", issue.Field, issue.Message)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "%d error(s), %d warning(s)\n", len(errs), len(warns))
}

// isStdinTTY reports whether stdin is attached to a terminal.
func isStdinTTY() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// isStdoutTTY reports whether stdout is attached to a terminal.
func isStdoutTTY() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
