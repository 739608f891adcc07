package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionCmd_Shells(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{shell: "bash", want: "bash"},
		{shell: "zsh", want: "stepbar"},
		{shell: "fish", want: "complete -c stepbar"},
		{shell: "powershell", want: "Register-ArgumentCompleter"},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, _, err := executeCommand(t, "completion", tt.shell)
			require.NoError(t, err)
			assert.NotEmpty(t, out)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestCompletionCmd_InvalidShell(t *testing.T) {
	_, _, err := executeCommand(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestCompletionCmd_NoArgs(t *testing.T) {
	_, _, err := executeCommand(t, "completion")
	assert.Error(t, err)
}
