package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/config"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/logging"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/steps"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/workflow"
)

// eventBuffer is the subscriber buffer used by watch. At the default
// 100ms sample interval a step produces ten elapsed events per second.
const eventBuffer = 256

// sessionFlags are the flags shared by run and watch.
type sessionFlags struct {
	Only     []string
	Name     string
	Interval string
}

// overrides converts explicitly set flags into config overrides.
func (f sessionFlags) overrides() *config.CLIOverrides {
	o := &config.CLIOverrides{}
	if f.Name != "" {
		o.RunName = &f.Name
	}
	if f.Interval != "" {
		o.SampleInterval = &f.Interval
	}
	return o
}

// session bundles what a run needs once configuration is resolved.
type session struct {
	resolved    *config.ResolvedConfig
	fingerprint string
	ctrl        *workflow.RunController
}

// newSession resolves and validates configuration, re-applies logging with
// the resolved [log] settings, builds the selected steps and returns a
// controller ready to run. Validation errors are written to errOut.
func newSession(flags sessionFlags, errOut io.Writer, opts ...workflow.Option) (*session, error) {
	resolved, meta, err := loadAndResolveConfig(flags.overrides())
	if err != nil {
		return nil, err
	}
	cfg := resolved.Config

	if err := logging.Setup(logging.Options{
		Verbose: flagVerbose,
		Quiet:   flagQuiet,
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.Format == "json",
	}); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	logger := logging.New("cli")

	result := config.Validate(cfg, meta)
	for _, w := range result.Warnings() {
		logger.Warn("config", "field", w.Field, "issue", w.Message)
	}
	if result.HasErrors() {
		printValidationResult(errOut, result)
		return nil, fmt.Errorf("configuration has %d error(s)", len(result.Errors()))
	}

	interval, err := cfg.SampleIntervalDuration()
	if err != nil {
		return nil, err
	}

	selected, err := steps.Select(cfg.Steps, flags.Only)
	if err != nil {
		return nil, err
	}

	builderOpts := []steps.Option{steps.WithLogger(logging.New("steps"))}
	if resolved.Path != "" {
		builderOpts = append(builderOpts, steps.WithDir(filepath.Dir(resolved.Path)))
	}
	defs, err := steps.NewBuilder(builderOpts...).Build(selected)
	if err != nil {
		return nil, err
	}

	fp, err := config.Fingerprint(cfg)
	if err != nil {
		return nil, err
	}

	opts = append([]workflow.Option{
		workflow.WithLogger(logging.New("workflow")),
		workflow.WithSampleInterval(interval),
	}, opts...)
	ctrl, err := workflow.NewRunController(defs, opts...)
	if err != nil {
		return nil, err
	}

	logger.Debug("runtime ready",
		"config", resolved.Path,
		"fingerprint", fp,
		"steps", len(defs),
		"interval", interval,
	)
	return &session{resolved: resolved, fingerprint: fp, ctrl: ctrl}, nil
}
