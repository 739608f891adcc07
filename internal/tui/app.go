package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/workflow"
)

const (
	// minBarWidth and maxBarWidth bound the run progress bar.
	minBarWidth = 10
	maxBarWidth = 60
)

// AppConfig holds configuration for the watch view.
type AppConfig struct {
	// Version is the StepBar version shown in the title bar.
	Version string
	// Title is the run name shown next to the version.
	Title string
	// AutoRun starts a run as soon as the program starts.
	AutoRun bool
	// NoColor renders the progress bar without ANSI colors. Other styles
	// follow the global lipgloss color profile.
	NoColor bool
}

// App is the Bubble Tea model of the watch view. It renders whatever the
// controller reports: on every event it re-reads a snapshot, so a dropped
// event only delays the next repaint.
type App struct {
	ctx    context.Context
	config AppConfig
	ctrl   Controller
	events <-chan workflow.Event

	theme   Theme
	keys    KeyMap
	spinner spinner.Model
	bar     progress.Model

	snap     workflow.RunSnapshot
	runErr   error
	notice   string
	width    int
	showHelp bool
	quitting bool
}

// NewApp builds the model. events should come from ctrl's Subscribe.
func NewApp(ctx context.Context, cfg AppConfig, ctrl Controller, events <-chan workflow.Event) App {
	theme := DefaultTheme()
	return App{
		ctx:    ctx,
		config: cfg,
		ctrl:   ctrl,
		events: events,
		theme:  theme,
		keys:   DefaultKeyMap(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(theme.StatusRunning),
		),
		bar:  NewProgressBar(maxBarWidth/2, cfg.NoColor),
		snap: ctrl.Snapshot(),
	}
}

// Init starts the spinner, begins draining events and optionally starts a run.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spinner.Tick, WaitForEvent(a.ctx, a.events)}
	if a.config.AutoRun {
		cmds = append(cmds, RunCmd(a.ctx, a.ctrl))
	}
	return tea.Batch(cmds...)
}

// Update handles resizing, key bindings, controller events and run results.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.bar.Width = clampBarWidth(m.Width)
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(m, a.keys.Quit):
			a.quitting = true
			return a, tea.Quit
		case key.Matches(m, a.keys.Run):
			a.notice = ""
			return a, RunCmd(a.ctx, a.ctrl)
		case key.Matches(m, a.keys.Help):
			a.showHelp = !a.showHelp
			return a, nil
		}

	case EventMsg:
		a.snap = a.ctrl.Snapshot()
		if m.Event.Type == workflow.EventRunStarted {
			a.runErr = nil
		}
		return a, WaitForEvent(a.ctx, a.events)

	case eventsClosedMsg:
		a.snap = a.ctrl.Snapshot()
		return a, nil

	case RunFinishedMsg:
		a.snap = a.ctrl.Snapshot()
		if errors.Is(m.Err, workflow.ErrRunInProgress) {
			a.notice = "a run is already in progress"
			return a, nil
		}
		a.runErr = m.Err
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	}

	return a, nil
}

// View renders the title bar, one row per step, the run bar and the status
// line. It returns an empty string once quitting to clear the screen.
func (a App) View() string {
	if a.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(a.renderTitleBar())
	sb.WriteString("\n\n")
	sb.WriteString(a.renderSteps())
	sb.WriteString("\n")
	sb.WriteString(a.renderRunLine())
	sb.WriteString("\n")
	if a.runErr != nil {
		sb.WriteString(a.theme.ErrorText.Render("error: " + a.runErr.Error()))
		sb.WriteString("\n")
	}
	if a.notice != "" {
		sb.WriteString(a.theme.Notice.Render(a.notice))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(a.renderHelp())
	return sb.String()
}

func (a App) renderTitleBar() string {
	title := "StepBar " + a.theme.TitleVersion.Render("v"+a.config.Version)
	if a.config.Title != "" {
		title = fmt.Sprintf("%s  |  %s", title, a.config.Title)
	}
	style := a.theme.TitleBar
	if a.width > 0 {
		style = style.Width(a.width)
	}
	return style.Render(title)
}

func (a App) renderSteps() string {
	if len(a.snap.Steps) == 0 {
		return a.theme.StatusPending.Render("  no steps configured") + "\n"
	}

	nameWidth := 0
	for _, s := range a.snap.Steps {
		nameWidth = max(nameWidth, lipgloss.Width(s.Name))
	}

	states := StepStates(a.snap)
	var sb strings.Builder
	for i, s := range a.snap.Steps {
		indicator := a.theme.StatusIndicator(states[i])
		if states[i] == StepRunning {
			indicator = a.spinner.View()
		}
		name := a.theme.StepName.Width(nameWidth).Render(s.Name)
		elapsed := a.theme.StepElapsed.Render(FormatElapsed(s.Elapsed))
		fmt.Fprintf(&sb, "  %s %s  %s\n", indicator, name, elapsed)
	}
	return sb.String()
}

func (a App) renderRunLine() string {
	status := "idle"
	statusStyle := a.theme.StatusPending
	switch {
	case a.snap.Running:
		status, statusStyle = "running", a.theme.StatusRunning
	case a.snap.Failed():
		status, statusStyle = "failed", a.theme.StatusFailed
	case len(a.snap.Steps) > 0 && a.snap.CurrentStepIndex == len(a.snap.Steps):
		status, statusStyle = "done", a.theme.StatusDone
	}

	return fmt.Sprintf("  %s %s  %s %s  %s",
		a.bar.ViewAs(a.snap.Fraction()),
		a.theme.StatusValue.Render(fmt.Sprintf("%d/%d", a.snap.Completed(), len(a.snap.Steps))),
		a.theme.StatusKey.Render("total"),
		a.theme.StatusValue.Render(FormatElapsed(a.snap.TotalElapsed)),
		statusStyle.Render(status),
	)
}

func (a App) renderHelp() string {
	if !a.showHelp {
		return renderHelp(a.theme, a.keys.ShortHelp())
	}
	var sb strings.Builder
	for _, b := range []key.Binding{a.keys.Run, a.keys.Quit, a.keys.Help} {
		fmt.Fprintf(&sb, "  %-8s %s\n", a.theme.HelpKey.Render(strings.Join(b.Keys(), "/")), a.theme.HelpDesc.Render(b.Help().Desc))
	}
	return sb.String()
}

func clampBarWidth(termWidth int) int {
	w := termWidth - 40
	return min(max(w, minBarWidth), maxBarWidth)
}

// Run starts the watch view and blocks until the user quits or ctx is done.
// A run still in flight when Run returns keeps going until ctx is cancelled;
// the caller owns that context.
func Run(ctx context.Context, cfg AppConfig, ctrl Controller, events <-chan workflow.Event, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewApp(ctx, cfg, ctrl, events), opts...)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("running watch view: %w", err)
	}
	return nil
}
