package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/logging"
)

// ValidationSeverity indicates whether a validation issue is an error or warning.
type ValidationSeverity string

const (
	// SeverityError indicates the configuration is unusable.
	SeverityError ValidationSeverity = "error"
	// SeverityWarning indicates the configuration works but may misbehave.
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue is a single validation finding.
type ValidationIssue struct {
	Severity ValidationSeverity
	Field    string // dotted path, e.g. "steps[2].duration"
	Message  string
}

// ValidationResult holds all validation findings.
type ValidationResult struct {
	Issues []ValidationIssue
}

// HasErrors returns true if any issue has error severity.
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors()) > 0
}

// HasWarnings returns true if any issue has warning severity.
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings()) > 0
}

// Errors returns only error-severity issues.
func (vr *ValidationResult) Errors() []ValidationIssue {
	return vr.filter(SeverityError)
}

// Warnings returns only warning-severity issues.
func (vr *ValidationResult) Warnings() []ValidationIssue {
	return vr.filter(SeverityWarning)
}

func (vr *ValidationResult) filter(sev ValidationSeverity) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range vr.Issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

// slowSampleInterval is the point past which progress output feels stale.
const slowSampleInterval = time.Second

var validLogFormats = map[string]bool{
	"":     true,
	"text": true,
	"json": true,
}

// Validate checks cfg for errors and warnings. meta may be nil when no file
// was loaded; otherwise undecoded keys are reported as warnings.
func Validate(cfg *Config, meta *toml.MetaData) *ValidationResult {
	vr := &ValidationResult{}
	if cfg == nil {
		addError(vr, "", "configuration is nil")
		return vr
	}

	validateRun(vr, &cfg.Run)
	validateLog(vr, &cfg.Log)
	validateSteps(vr, cfg.Steps)
	validateUnknownKeys(vr, meta)
	return vr
}

func validateRun(vr *ValidationResult, r *RunConfig) {
	if r.SampleInterval == "" {
		addError(vr, "run.sample_interval", "must not be empty")
		return
	}
	d, err := parseDuration(r.SampleInterval)
	switch {
	case err != nil:
		addError(vr, "run.sample_interval", fmt.Sprintf("invalid duration %q: %v", r.SampleInterval, err))
	case d == 0:
		addError(vr, "run.sample_interval", "must be positive")
	case d > slowSampleInterval:
		addWarning(vr, "run.sample_interval",
			fmt.Sprintf("%s is slow; progress will update at most once per %s", d, d))
	}
}

func validateLog(vr *ValidationResult, l *LogConfig) {
	if l.Level != "" {
		if _, err := logging.ParseLevel(l.Level); err != nil {
			addError(vr, "log.level",
				fmt.Sprintf("unrecognized level %q; must be one of: debug, info, warn, error", l.Level))
		}
	}
	if !validLogFormats[l.Format] {
		addError(vr, "log.format",
			fmt.Sprintf("unrecognized format %q; must be text or json", l.Format))
	}
}

func validateSteps(vr *ValidationResult, steps []StepConfig) {
	if len(steps) == 0 {
		addWarning(vr, "steps", "no steps configured; a run completes immediately")
		return
	}

	seen := make(map[string]int, len(steps))
	for i, s := range steps {
		prefix := fmt.Sprintf("steps[%d]", i)

		if strings.TrimSpace(s.Name) == "" {
			addError(vr, prefix+".name", "must not be empty")
		} else if first, dup := seen[s.Name]; dup {
			addWarning(vr, prefix+".name",
				fmt.Sprintf("duplicate step name %q (also steps[%d])", s.Name, first))
		} else {
			seen[s.Name] = i
		}

		timed := s.Duration != "" || s.MinDuration != "" || s.MaxDuration != ""
		switch {
		case s.IsCommand() && timed:
			addError(vr, prefix, "set either command or a duration, not both")
		case s.IsCommand() && s.Fail != "":
			addError(vr, prefix+".fail", "only simulated steps can be told to fail")
		case s.IsCommand():
			if strings.TrimSpace(s.Command[0]) == "" {
				addError(vr, prefix+".command", "program must not be empty")
			}
		case !timed:
			addError(vr, prefix, "must set command, duration, or min_duration/max_duration")
		default:
			if s.Duration != "" && (s.MinDuration != "" || s.MaxDuration != "") {
				addError(vr, prefix, "duration cannot be combined with min_duration/max_duration")
				continue
			}
			if _, _, err := s.Delay(); err != nil {
				addError(vr, prefix, err.Error())
			}
		}
	}
}

// validateUnknownKeys reports TOML keys that did not map to a config field.
func validateUnknownKeys(vr *ValidationResult, meta *toml.MetaData) {
	if meta == nil {
		return
	}
	for _, key := range meta.Undecoded() {
		addWarning(vr, strings.Join(key, "."), "unknown configuration key")
	}
}

func addError(vr *ValidationResult, field, message string) {
	vr.Issues = append(vr.Issues, ValidationIssue{Severity: SeverityError, Field: field, Message: message})
}

func addWarning(vr *ValidationResult, field, message string) {
	vr.Issues = append(vr.Issues, ValidationIssue{Severity: SeverityWarning, Field: field, Message: message})
}
