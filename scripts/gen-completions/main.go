// Command gen-completions writes StepBar's shell completion scripts for bash,
// zsh, fish and powershell into an output directory, ready to be bundled
// into release archives.
//
// Usage:
//
//	go run ./scripts/gen-completions [output-dir]
//
// The default output directory is "completions".
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/cli"
)

func main() {
	outDir := "completions"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir %q: %v\n", outDir, err)
		os.Exit(1)
	}

	rootCmd := cli.NewRootCmd()

	entries := []struct {
		filename string
		generate func(w io.Writer) error
	}{
		{"stepbar.bash", func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) }},
		{"_stepbar", rootCmd.GenZshCompletion},
		{"stepbar.fish", func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) }},
		{"stepbar.ps1", rootCmd.GenPowerShellCompletionWithDesc},
	}

	for _, e := range entries {
		path := filepath.Join(outDir, e.filename)
		if err := writeFile(path, e.generate); err != nil {
			fmt.Fprintf(os.Stderr, "error generating %q: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", path)
	}

	fmt.Printf("All completions written to %s/\n", outDir)
}

func writeFile(path string, generate func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := generate(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
