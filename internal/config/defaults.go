package config

// defaultStepNames is the demo production-line sequence used when no steps
// are configured.
var defaultStepNames = []string{
	"Idle",
	"Wait for PLC ready signal",
	"Scan barcode",
	"Take photo",
	"MES check-in",
	"Save data",
	"Write PLC done signal",
	"Complete",
}

// NewDefaults returns a Config populated with all default values: a 100ms
// sample interval and the demo sequence, each step a random 1-3s delay.
func NewDefaults() *Config {
	steps := make([]StepConfig, len(defaultStepNames))
	for i, name := range defaultStepNames {
		steps[i] = StepConfig{
			Name:        name,
			MinDuration: "1s",
			MaxDuration: "3s",
		}
	}
	return &Config{
		Run: RunConfig{
			Name:           "demo",
			SampleInterval: "100ms",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Steps: steps,
	}
}
