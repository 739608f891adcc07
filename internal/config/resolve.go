package config

// ConfigSource identifies where a configuration value came from.
type ConfigSource string

const (
	// SourceDefault indicates the value came from built-in defaults.
	SourceDefault ConfigSource = "default"
	// SourceFile indicates the value came from stepbar.toml.
	SourceFile ConfigSource = "file"
	// SourceEnv indicates the value came from an environment variable.
	SourceEnv ConfigSource = "env"
	// SourceCLI indicates the value came from a CLI flag.
	SourceCLI ConfigSource = "cli"
)

// ResolvedConfig holds the merged configuration with source tracking.
type ResolvedConfig struct {
	Config  *Config
	Sources map[string]ConfigSource // dotted path, e.g. "run.sample_interval"
	Path    string                  // config file used; empty if none
}

// CLIOverrides captures flag values that override configuration. A nil
// pointer means "not set".
type CLIOverrides struct {
	RunName        *string
	SampleInterval *string
	LogLevel       *string
	LogFormat      *string
}

// EnvFunc looks up environment variables. os.LookupEnv in production.
type EnvFunc func(key string) (string, bool)

// Environment variables consulted by Resolve.
const (
	EnvRunName        = "STEPBAR_RUN_NAME"
	EnvSampleInterval = "STEPBAR_SAMPLE_INTERVAL"
	EnvLogLevel       = "STEPBAR_LOG_LEVEL"
	EnvLogFormat      = "STEPBAR_LOG_FORMAT"
)

// Resolve merges configuration in priority order:
// CLI flags > environment variables > config file > defaults.
//
// Scalar values from the file override defaults only when non-empty. A
// non-empty steps list in the file replaces the default steps entirely.
func Resolve(defaults *Config, fileConfig *Config, envFn EnvFunc, overrides *CLIOverrides) *ResolvedConfig {
	rc := &ResolvedConfig{
		Config:  &Config{},
		Sources: make(map[string]ConfigSource),
	}
	if defaults == nil {
		defaults = &Config{}
	}
	if envFn == nil {
		envFn = func(string) (string, bool) { return "", false }
	}
	if overrides == nil {
		overrides = &CLIOverrides{}
	}

	// Layer 1: defaults.
	c := rc.Config
	setString(&c.Run.Name, defaults.Run.Name, "run.name", SourceDefault, rc.Sources)
	setString(&c.Run.SampleInterval, defaults.Run.SampleInterval, "run.sample_interval", SourceDefault, rc.Sources)
	setString(&c.Log.Level, defaults.Log.Level, "log.level", SourceDefault, rc.Sources)
	setString(&c.Log.Format, defaults.Log.Format, "log.format", SourceDefault, rc.Sources)
	c.Steps = copySteps(defaults.Steps)
	rc.Sources["steps"] = SourceDefault

	// Layer 2: file.
	if fileConfig != nil {
		mergeString(&c.Run.Name, fileConfig.Run.Name, "run.name", SourceFile, rc.Sources)
		mergeString(&c.Run.SampleInterval, fileConfig.Run.SampleInterval, "run.sample_interval", SourceFile, rc.Sources)
		mergeString(&c.Log.Level, fileConfig.Log.Level, "log.level", SourceFile, rc.Sources)
		mergeString(&c.Log.Format, fileConfig.Log.Format, "log.format", SourceFile, rc.Sources)
		if len(fileConfig.Steps) > 0 {
			c.Steps = copySteps(fileConfig.Steps)
			rc.Sources["steps"] = SourceFile
		}
	}

	// Layer 3: environment.
	envString(&c.Run.Name, envFn, EnvRunName, "run.name", rc.Sources)
	envString(&c.Run.SampleInterval, envFn, EnvSampleInterval, "run.sample_interval", rc.Sources)
	envString(&c.Log.Level, envFn, EnvLogLevel, "log.level", rc.Sources)
	envString(&c.Log.Format, envFn, EnvLogFormat, "log.format", rc.Sources)

	// Layer 4: CLI.
	cliString(&c.Run.Name, overrides.RunName, "run.name", rc.Sources)
	cliString(&c.Run.SampleInterval, overrides.SampleInterval, "run.sample_interval", rc.Sources)
	cliString(&c.Log.Level, overrides.LogLevel, "log.level", rc.Sources)
	cliString(&c.Log.Format, overrides.LogFormat, "log.format", rc.Sources)

	return rc
}

// setString unconditionally sets the target and records the source.
func setString(target *string, value, path string, source ConfigSource, sources map[string]ConfigSource) {
	*target = value
	sources[path] = source
}

// mergeString overwrites the target only if value is non-empty; an empty
// string in the file means "not set in file".
func mergeString(target *string, value, path string, source ConfigSource, sources map[string]ConfigSource) {
	if value != "" {
		*target = value
		sources[path] = source
	}
}

func envString(target *string, envFn EnvFunc, key, path string, sources map[string]ConfigSource) {
	if val, ok := envFn(key); ok {
		*target = val
		sources[path] = SourceEnv
	}
}

func cliString(target *string, value *string, path string, sources map[string]ConfigSource) {
	if value != nil {
		*target = *value
		sources[path] = SourceCLI
	}
}

// copySteps deep-copies a step list, including command argv slices.
func copySteps(src []StepConfig) []StepConfig {
	if src == nil {
		return nil
	}
	out := make([]StepConfig, len(src))
	for i, s := range src {
		out[i] = s
		if s.Command != nil {
			out[i].Command = make([]string, len(s.Command))
			copy(out[i].Command, s.Command)
		}
	}
	return out
}
