package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/tui"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/workflow"
)

// summaryBarWidth is the width of the progress bar in the run summary.
const summaryBarWidth = 30

// eventPrinter renders a headless run.
type eventPrinter interface {
	// Print handles one controller event.
	Print(ev workflow.Event) error
	// Summary renders the final state once the run returned.
	Summary(snap workflow.RunSnapshot) error
}

// newPrinter returns the NDJSON printer when asJSON is set, else the text one.
func newPrinter(out io.Writer, asJSON bool, name string, total int, plain bool) eventPrinter {
	if asJSON {
		return &jsonPrinter{enc: json.NewEncoder(out)}
	}
	return &textPrinter{out: out, theme: tui.DefaultTheme(), name: name, total: total, plain: plain}
}

// textPrinter writes one line per step transition and a summary bar.
type textPrinter struct {
	out   io.Writer
	theme tui.Theme
	name  string
	total int
	plain bool
}

func (p *textPrinter) Print(ev workflow.Event) error {
	var err error
	switch ev.Type {
	case workflow.EventRunStarted:
		_, err = fmt.Fprintf(p.out, "Running %s (%d steps)\n", p.name, p.total)
	case workflow.EventStepStarted:
		_, err = fmt.Fprintf(p.out, "  %s %s %s\n",
			p.theme.StatusIndicator(tui.StepRunning), p.position(ev.Index), ev.Step)
	case workflow.EventStepCompleted:
		_, err = fmt.Fprintf(p.out, "  %s %s %s  %s\n",
			p.theme.StatusIndicator(tui.StepDone), p.position(ev.Index), ev.Step,
			p.theme.StepElapsed.Render(tui.FormatElapsed(ev.Elapsed)))
	case workflow.EventStepFailed:
		_, err = fmt.Fprintf(p.out, "  %s %s %s  %s  %s\n",
			p.theme.StatusIndicator(tui.StepFailed), p.position(ev.Index), ev.Step,
			p.theme.StepElapsed.Render(tui.FormatElapsed(ev.Elapsed)),
			p.theme.ErrorText.Render(ev.Error))
	}
	return err
}

func (p *textPrinter) position(index int) string {
	return fmt.Sprintf("[%d/%d]", index+1, p.total)
}

func (p *textPrinter) Summary(snap workflow.RunSnapshot) error {
	status, style := "done", p.theme.StatusDone
	if snap.Error != "" {
		status, style = "failed", p.theme.StatusFailed
	}
	bar := tui.NewProgressBar(summaryBarWidth, p.plain)
	_, err := fmt.Fprintf(p.out, "\n  %s %d/%d  total %s  %s\n",
		bar.ViewAs(snap.Fraction()),
		snap.Completed(), len(snap.Steps),
		tui.FormatElapsed(snap.TotalElapsed),
		style.Render(status),
	)
	return err
}

// jsonPrinter writes every event, then the final snapshot, as NDJSON.
type jsonPrinter struct {
	enc *json.Encoder
}

func (p *jsonPrinter) Print(ev workflow.Event) error {
	return p.enc.Encode(ev)
}

func (p *jsonPrinter) Summary(snap workflow.RunSnapshot) error {
	return p.enc.Encode(struct {
		Type     string               `json:"type"`
		Snapshot workflow.RunSnapshot `json:"snapshot"`
	}{Type: "summary", Snapshot: snap})
}
