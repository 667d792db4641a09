package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRCommand(t *testing.T) {
	tests := []struct {
		name      string
		addr      string
		allowAny  bool
		wantErr   bool
		wantLabel string
	}{
		{name: "bech32", addr: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", wantLabel: "VALID (mainnet)"},
		{name: "base58", addr: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", wantLabel: "VALID (mainnet)"},
		{name: "bad checksum", addr: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t5", wantErr: true},
		{name: "arbitrary text allowed", addr: "hello", allowAny: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := qrCommand(&buf, tt.addr, false, tt.allowAny)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrAddress))
				assert.Contains(t, err.Error(), "--any")
				assert.Empty(t, buf.String())
				return
			}

			require.NoError(t, err)
			out := buf.String()
			assert.Contains(t, out, "█")
			lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
			last := lines[len(lines)-1]
			assert.Contains(t, last, tt.addr)
			if tt.wantLabel != "" {
				assert.Contains(t, last, tt.wantLabel)
			}
		})
	}
}

func TestQRCommand_Empty(t *testing.T) {
	err := qrCommand(&bytes.Buffer{}, "", false, true)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAddress))
}

func TestQRDarkOnLight_Flags(t *testing.T) {
	oldLight, oldDark := qrLight, qrDark
	defer func() { qrLight, qrDark = oldLight, oldDark }()

	qrLight, qrDark = true, false
	assert.True(t, qrDarkOnLight())

	qrLight, qrDark = false, true
	assert.False(t, qrDarkOnLight())
}
