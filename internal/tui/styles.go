package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// ---------------------------------------------------------------------------
// Color Palette
// ---------------------------------------------------------------------------

// ColorPrimary is the main accent color used for titles and key hints.
var ColorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7B78FF"}

// ColorAccent marks the step that is currently running.
var ColorAccent = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"}

// ColorSuccess marks completed steps.
var ColorSuccess = lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}

// ColorWarning is used for notices such as a rejected run request.
var ColorWarning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// ColorError marks failed steps and run errors.
var ColorError = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}

// ColorMuted is a subdued foreground color for pending steps and hints.
var ColorMuted = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

// ColorHighlight is the status bar background.
var ColorHighlight = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#1F2937"}

// ---------------------------------------------------------------------------
// Step state
// ---------------------------------------------------------------------------

// StepState is the display state of one step row.
type StepState int

const (
	// StepPending has not run in the current run.
	StepPending StepState = iota
	// StepRunning is executing now.
	StepRunning
	// StepDone finished successfully.
	StepDone
	// StepFailed halted the run.
	StepFailed
)

// String returns a lowercase label for the state.
func (s StepState) String() string {
	switch s {
	case StepRunning:
		return "running"
	case StepDone:
		return "done"
	case StepFailed:
		return "failed"
	default:
		return "pending"
	}
}

// ---------------------------------------------------------------------------
// Theme
// ---------------------------------------------------------------------------

// Theme holds the Lipgloss styles for the watch view and the headless
// printer. Width is never set here; the view applies it at render time.
type Theme struct {
	TitleBar     lipgloss.Style
	TitleVersion lipgloss.Style

	StepName    lipgloss.Style
	StepElapsed lipgloss.Style

	StatusPending lipgloss.Style
	StatusRunning lipgloss.Style
	StatusDone    lipgloss.Style
	StatusFailed  lipgloss.Style

	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style

	Notice    lipgloss.Style
	ErrorText lipgloss.Style
	HelpKey   lipgloss.Style
	HelpDesc  lipgloss.Style
}

// DefaultTheme returns the adaptive-color theme.
func DefaultTheme() Theme {
	return Theme{
		TitleBar: lipgloss.NewStyle().
			Bold(true).
			Background(ColorPrimary).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1),

		TitleVersion: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#E0DFFF", Dark: "#C4C2FF"}),

		StepName: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}),

		StepElapsed: lipgloss.NewStyle().
			Foreground(ColorMuted),

		StatusPending: lipgloss.NewStyle().
			Foreground(ColorMuted),

		StatusRunning: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent),

		StatusDone: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		StatusFailed: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError),

		StatusBar: lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(ColorMuted).
			Padding(0, 1),

		StatusKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		StatusValue: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#374151", Dark: "#D1D5DB"}),

		Notice: lipgloss.NewStyle().
			Foreground(ColorWarning),

		ErrorText: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError),

		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		HelpDesc: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// StatusIndicator returns a styled symbol for the given step state:
// "○" pending, "●" running, "✓" done, "✗" failed.
func (t Theme) StatusIndicator(state StepState) string {
	switch state {
	case StepRunning:
		return t.StatusRunning.Render("●")
	case StepDone:
		return t.StatusDone.Render("✓")
	case StepFailed:
		return t.StatusFailed.Render("✗")
	default:
		return t.StatusPending.Render("○")
	}
}
