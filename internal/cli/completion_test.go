package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionBashGeneration(t *testing.T) {
	var buf bytes.Buffer
	err := rootCmd.GenBashCompletion(&buf)

	require.NoError(t, err)
	output := buf.String()

	assert.Contains(t, output, "# bash completion for btcdash")
	assert.Contains(t, output, "__completeNoDesc", "should use dynamic completion")
	assert.Contains(t, output, "complete -o default -F __start_btcdash btcdash")

	// Commands with local flags get their own functions.
	assert.Contains(t, output, "_btcdash_status()")
	assert.Contains(t, output, "_btcdash_exec()")
	assert.Contains(t, output, "_btcdash_qr()")
	assert.Contains(t, output, "_btcdash_init()")

	assert.Equal(t, strings.Count(output, "{"), strings.Count(output, "}"), "braces should be balanced")
}

func TestCompletionZshGeneration(t *testing.T) {
	var buf bytes.Buffer
	err := rootCmd.GenZshCompletion(&buf)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "#compdef btcdash")
	assert.Contains(t, buf.String(), "_btcdash()")
}

func TestCompletionFishGeneration(t *testing.T) {
	var buf bytes.Buffer
	err := rootCmd.GenFishCompletion(&buf, true)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "fish completion for btcdash")
	assert.Contains(t, buf.String(), "complete -c btcdash")
}

func TestCompletionPowershellGeneration(t *testing.T) {
	var buf bytes.Buffer
	err := rootCmd.GenPowerShellCompletion(&buf)

	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(buf.String()), "powershell completion")
	assert.Contains(t, buf.String(), "Register-ArgumentCompleter")
}

func TestCompletionCommandValidArgs(t *testing.T) {
	assert.ElementsMatch(t, []string{"bash", "zsh", "fish", "powershell"}, completionCmd.ValidArgs)
}
