// Command stepbar runs an ordered list of steps and reports live elapsed time.
package main

import (
	"os"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
