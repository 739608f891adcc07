package steps

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/config"
)

// Select keeps the steps whose name matches at least one pattern, preserving
// order. Patterns use doublestar syntax ("Scan*", "{Save,Write}*"). With no
// patterns every step is kept. A pattern that matches nothing is an error so
// that a typo does not silently run an empty workflow.
func Select(cfgs []config.StepConfig, patterns []string) ([]config.StepConfig, error) {
	if len(patterns) == 0 {
		return cfgs, nil
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("steps: invalid pattern %q", p)
		}
	}

	hits := make([]bool, len(patterns))
	var out []config.StepConfig
	for _, sc := range cfgs {
		keep := false
		for i, p := range patterns {
			if ok, _ := doublestar.Match(p, sc.Name); ok {
				hits[i] = true
				keep = true
			}
		}
		if keep {
			out = append(out, sc)
		}
	}
	for i, hit := range hits {
		if !hit {
			return nil, fmt.Errorf("steps: pattern %q matches no step", patterns[i])
		}
	}
	return out, nil
}
