//go:build windows

package steps

import (
	"os/exec"
	"time"
)

// setProcGroup only bounds the drain time on Windows; CommandContext already
// kills the process on cancellation.
func setProcGroup(cmd *exec.Cmd) {
	cmd.WaitDelay = time.Second
}
