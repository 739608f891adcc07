// Package steps turns [[steps]] configuration entries into workflow step
// definitions. A step either simulates work by sleeping for a fixed or random
// delay, optionally failing afterwards, or runs an external command.
package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/config"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/workflow"
)

// maxOutputBytes caps the command output kept for error messages.
const maxOutputBytes = 4 * 1024

// Builder creates step definitions from configuration.
type Builder struct {
	logger *log.Logger
	dir    string

	mu   sync.Mutex
	rand *rand.Rand
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for command output. Nil disables logging.
func WithLogger(logger *log.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithRand sets the source for simulated delays. Tests pass a seeded source.
func WithRand(r *rand.Rand) Option {
	return func(b *Builder) {
		if r != nil {
			b.rand = r
		}
	}
}

// WithDir sets the working directory for command steps.
func WithDir(dir string) Option {
	return func(b *Builder) { b.dir = dir }
}

// NewBuilder returns a Builder with the given options applied.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		rand: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build converts cfgs into definitions in order. It fails on the first entry
// that cannot be turned into a workload.
func (b *Builder) Build(cfgs []config.StepConfig) ([]*workflow.StepDefinition, error) {
	defs := make([]*workflow.StepDefinition, 0, len(cfgs))
	for i, sc := range cfgs {
		work, err := b.workload(sc)
		if err != nil {
			return nil, fmt.Errorf("steps: entry %d: %w", i, err)
		}
		def, err := workflow.NewStepDefinition(sc.Name, work)
		if err != nil {
			return nil, fmt.Errorf("steps: entry %d: %w", i, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (b *Builder) workload(sc config.StepConfig) (workflow.Workload, error) {
	if sc.IsCommand() {
		return b.command(sc.Name, sc.Command), nil
	}
	lo, hi, err := sc.Delay()
	if err != nil {
		return nil, err
	}
	var failErr error
	if sc.Fail != "" {
		failErr = errors.New(sc.Fail)
	}
	return b.simulated(lo, hi, failErr), nil
}

// simulated returns a workload that waits a delay drawn from [lo, hi] and then
// returns failErr. Cancellation ends the wait early with ctx.Err().
func (b *Builder) simulated(lo, hi time.Duration, failErr error) workflow.Workload {
	return func(ctx context.Context) error {
		if err := Sleep(ctx, b.delay(lo, hi)); err != nil {
			return err
		}
		return failErr
	}
}

// delay picks a duration in [lo, hi].
func (b *Builder) delay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return lo + time.Duration(b.rand.Int64N(int64(hi-lo)+1))
}

// command returns a workload that runs argv and fails on a non-zero exit.
func (b *Builder) command(name string, argv []string) workflow.Workload {
	args := append([]string(nil), argv...)
	return func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Dir = b.dir
		setProcGroup(cmd)

		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out

		if b.logger != nil {
			b.logger.Debug("running command", "step", name, "argv", strings.Join(args, " "))
		}
		err := cmd.Run()
		if b.logger != nil && out.Len() > 0 {
			b.logger.Debug("command output", "step", name, "output", truncateOutput(out.String()))
		}
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", args[0], ctxErr)
		}
		if tail := strings.TrimSpace(truncateOutput(out.String())); tail != "" {
			return fmt.Errorf("%s: %w: %s", args[0], err, tail)
		}
		return fmt.Errorf("%s: %w", args[0], err)
	}
}

// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter
// case. A non-positive d returns immediately unless ctx is already done.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// truncateOutput keeps the last maxOutputBytes of s, where failures usually
// report their cause.
func truncateOutput(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return "..." + s[len(s)-maxOutputBytes:]
}
