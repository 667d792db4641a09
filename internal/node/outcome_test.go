package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/btcdash/internal/exec"
)

func TestClassifyGeneric(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		stdout   string
		stderr   string
		kind     OutcomeKind
		output   string
	}{
		{"success keeps stdout", 0, "800000\n", "", Succeeded, "800000\n"},
		{"success ignores stderr", 0, "ok", "warning", Succeeded, "ok"},
		{"failure prefers stderr", 1, "partial", "error code: -32601\nerror message:\nMethod not found", Failed, "error code: -32601\nerror message:\nMethod not found"},
		{"failure falls back to stdout", 1, "only stdout", "  \n", Failed, "only stdout"},
		{"failure with nothing", 5, "", "", Failed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := ClassifyGeneric(tt.exitCode, tt.stdout, tt.stderr)
			assert.Equal(t, tt.kind, o.Kind)
			assert.Equal(t, tt.output, o.Output)
			if tt.kind == Failed {
				assert.Equal(t, tt.exitCode, o.ExitCode)
			}
		})
	}
}

func TestFromResult(t *testing.T) {
	tests := []struct {
		name   string
		result exec.Result
		kind   OutcomeKind
		reason string
	}{
		{"completed ok", exec.Result{Kind: exec.Completed, Stdout: "x"}, Succeeded, ""},
		{"completed failure", exec.Result{Kind: exec.Completed, ExitCode: 1, Stderr: "boom"}, Failed, ""},
		{"timed out", exec.Result{Kind: exec.TimedOut, Reason: "no response within 10s, process killed"}, TimedOut, "no response within 10s, process killed"},
		{"spawn failed", exec.Result{Kind: exec.SpawnFailed, Reason: "exec: \"bitcoin-cli\": executable file not found in $PATH"}, SpawnFailed, "exec: \"bitcoin-cli\": executable file not found in $PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := FromResult(tt.result)
			assert.Equal(t, tt.kind, o.Kind)
			assert.Equal(t, tt.reason, o.Reason)
		})
	}
}

func TestFromResult_KeepsTruncation(t *testing.T) {
	o := FromResult(exec.Result{Kind: exec.Completed, Stdout: "big", Truncated: true})
	assert.True(t, o.Truncated)
	assert.Contains(t, o.Detail(), "[output truncated]")
}

func TestClassifyStatus(t *testing.T) {
	finished := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("parses on success", func(t *testing.T) {
		o, snap := ClassifyStatus(exec.Result{
			Kind:       exec.Completed,
			Stdout:     `{"blocks":800000,"connections":8,"chain":"main","verificationprogress":1.0}`,
			FinishedAt: finished,
		})
		assert.True(t, o.OK())
		require.NotNil(t, snap)
		assert.Equal(t, int64(800000), snap.Height)
		assert.Equal(t, finished, snap.FetchedAt)
	})

	t.Run("parse failure", func(t *testing.T) {
		o, snap := ClassifyStatus(exec.Result{Kind: exec.Completed, Stdout: `{"blocks":1}`})
		assert.Nil(t, snap)
		assert.Equal(t, ParseFailed, o.Kind)
		require.NotNil(t, o.Parse)
		assert.Equal(t, MissingField, o.Parse.Kind)
		assert.Contains(t, o.Reason, "connections")
	})

	t.Run("non-zero exit is not parsed", func(t *testing.T) {
		o, snap := ClassifyStatus(exec.Result{Kind: exec.Completed, ExitCode: 28, Stderr: "error code: -28\nLoading block index..."})
		assert.Nil(t, snap)
		assert.Equal(t, Failed, o.Kind)
	})

	t.Run("timeout", func(t *testing.T) {
		o, snap := ClassifyStatus(exec.Result{Kind: exec.TimedOut, Reason: "no response within 10s, process killed"})
		assert.Nil(t, snap)
		assert.Equal(t, TimedOut, o.Kind)
	})
}

func TestClassifyWallet(t *testing.T) {
	o, w := ClassifyWallet(exec.Result{Kind: exec.Completed, Stdout: `{"walletname":"","balance":0.001}`})
	assert.True(t, o.OK())
	require.NotNil(t, w)
	assert.Equal(t, 0.001, w.Balance)

	o, w = ClassifyWallet(exec.Result{Kind: exec.Completed, ExitCode: 18, Stderr: "error code: -18\nerror message:\nNo wallet is loaded."})
	assert.Nil(t, w)
	assert.Equal(t, Failed, o.Kind)
}

func TestOutcome_Summary(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{Outcome{Kind: Succeeded, Output: "x"}, "ok"},
		{Outcome{Kind: Failed, ExitCode: 1, Output: "error code: -1\nmore"}, "exit 1: error code: -1"},
		{Outcome{Kind: Failed, ExitCode: 2}, "exit 2"},
		{Outcome{Kind: TimedOut, Reason: "no response within 1s, process killed"}, "timed out: no response within 1s, process killed"},
		{Outcome{Kind: SpawnFailed, Reason: "not found"}, "spawn failed: not found"},
		{Outcome{Kind: ParseFailed, Reason: `status output is missing "blocks"`}, `parse error: status output is missing "blocks"`},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.Summary())
		})
	}
}

func TestOutcomeKind_String(t *testing.T) {
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "parse error", ParseFailed.String())
	assert.Equal(t, "OutcomeKind(42)", OutcomeKind(42).String())
}
