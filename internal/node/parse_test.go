package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fetched = time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC)

func TestParseStatus_JSON(t *testing.T) {
	snap, err := ParseStatus(`{"blocks":800000,"connections":8,"chain":"main","verificationprogress":1.0}`, fetched)
	require.NoError(t, err)

	assert.Equal(t, int64(800000), snap.Height)
	assert.Equal(t, 8, snap.Connections)
	assert.Equal(t, "main", snap.Network)
	assert.Equal(t, 1.0, snap.Progress)
	assert.Equal(t, fetched, snap.FetchedAt)
	assert.True(t, snap.Synced())
}

func TestParseStatus_GetInfoJSON(t *testing.T) {
	out := `{
  "version": 260000,
  "blocks": 2500000,
  "headers": 2500010,
  "verificationprogress": 0.9871,
  "timeoffset": 0,
  "connections": {"in": 2, "out": 10, "total": 12},
  "proxy": "",
  "difficulty": 1,
  "chain": "test",
  "relayfee": 0.00001,
  "warnings": ""
}`
	snap, err := ParseStatus(out, fetched)
	require.NoError(t, err)

	assert.Equal(t, int64(2500000), snap.Height)
	assert.Equal(t, int64(2500010), snap.Headers)
	assert.Equal(t, 12, snap.Connections)
	assert.Equal(t, "test", snap.Network)
	assert.InDelta(t, 0.9871, snap.Progress, 1e-9)
	assert.False(t, snap.Synced())
}

func TestParseStatus_ConnectionsInOut(t *testing.T) {
	snap, err := ParseStatus(`{"blocks":1,"connections":{"in":3,"out":4},"chain":"regtest","verificationprogress":1}`, fetched)
	require.NoError(t, err)
	assert.Equal(t, 7, snap.Connections)
}

func TestParseStatus_Text(t *testing.T) {
	out := "Chain: main\n" +
		"Blocks: 800000\n" +
		"Headers: 800001\n" +
		"Verification progress: 99.9871%\n" +
		"Difficulty: 53911173001054.59\n" +
		"\n" +
		"Network: in 0, out 8, total 8\n" +
		"Version: 260000\n" +
		"Time offset (s): 0\n" +
		"Proxies: n/a\n" +
		"Min tx relay fee rate (BTC/kvB): 0.00001000\n"

	snap, err := ParseStatus(out, fetched)
	require.NoError(t, err)

	assert.Equal(t, int64(800000), snap.Height)
	assert.Equal(t, int64(800001), snap.Headers)
	assert.Equal(t, 8, snap.Connections)
	assert.Equal(t, "main", snap.Network)
	assert.InDelta(t, 0.999871, snap.Progress, 1e-9)
}

func TestParseStatus_TextSyncing(t *testing.T) {
	tests := []struct {
		name     string
		progress string
		want     float64
	}{
		{"bar before percentage", "▒▒▒▒▒▒▒▒▒░░░░░░░░░░░░ 45.1234%", 0.451234},
		{"empty bar", "░░░░░░░░░░░░░░░░░░░░░ 0.0012%", 0.000012},
		{"extra spacing", "  ▒▒▒░░░   3.5% ", 0.035},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := "Chain: main\n" +
				"Blocks: 400000\n" +
				"Headers: 800001\n" +
				"Verification progress: " + tt.progress + "\n" +
				"Network: in 0, out 8, total 8\n"

			snap, err := ParseStatus(out, fetched)
			require.NoError(t, err)
			assert.Equal(t, int64(400000), snap.Height)
			assert.InDelta(t, tt.want, snap.Progress, 1e-9)
		})
	}
}

func TestParseStatus_TextWithColor(t *testing.T) {
	out := "\x1b[0mChain: signet\x1b[0m\nBlocks: 10\nConnections: 2\nVerification progress: 1.0\n"
	snap, err := ParseStatus(out, fetched)
	require.NoError(t, err)
	assert.Equal(t, "signet", snap.Network)
	assert.Equal(t, 2, snap.Connections)
	assert.Equal(t, 1.0, snap.Progress)
}

func TestParseStatus_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ParseErrorKind
		field string
	}{
		{"empty", "   ", Malformed, ""},
		{"not json or text", "garbage", Malformed, ""},
		{"array", "[1,2]", Malformed, ""},
		{"broken json", `{"blocks":`, Malformed, ""},
		{"missing blocks", `{"connections":8,"chain":"main","verificationprogress":1}`, MissingField, "blocks"},
		{"missing connections", `{"blocks":1,"chain":"main","verificationprogress":1}`, MissingField, "connections"},
		{"missing chain", `{"blocks":1,"connections":8,"verificationprogress":1}`, MissingField, "chain"},
		{"missing progress", `{"blocks":1,"connections":8,"chain":"main"}`, MissingField, "verificationprogress"},
		{"blocks not a number", `{"blocks":"many","connections":8,"chain":"main","verificationprogress":1}`, Malformed, "blocks"},
		{"negative blocks", `{"blocks":-1,"connections":8,"chain":"main","verificationprogress":1}`, Malformed, "blocks"},
		{"fractional connections", `{"blocks":1,"connections":1.5,"chain":"main","verificationprogress":1}`, Malformed, "connections"},
		{"chain not a string", `{"blocks":1,"connections":8,"chain":5,"verificationprogress":1}`, Malformed, "chain"},
		{"progress above one", `{"blocks":1,"connections":8,"chain":"main","verificationprogress":1.5}`, Malformed, "verificationprogress"},
		{"negative progress", `{"blocks":1,"connections":8,"chain":"main","verificationprogress":-0.1}`, Malformed, "verificationprogress"},
		{"text missing chain", "Blocks: 1\nConnections: 2\nVerification progress: 1\n", MissingField, "chain"},
		{"text bad blocks", "Chain: main\nBlocks: lots\nConnections: 2\nVerification progress: 1\n", Malformed, "blocks"},
		{"text bad network", "Chain: main\nBlocks: 1\nNetwork: plenty\nVerification progress: 1\n", Malformed, "connections"},
		{"text bar without percentage", "Chain: main\nBlocks: 1\nConnections: 2\nVerification progress: ▒▒▒░░░\n", Malformed, "verificationprogress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatus(tt.input, fetched)
			require.Error(t, err)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.kind, pe.Kind)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestParseStatus_ClampsOvershoot(t *testing.T) {
	snap, err := ParseStatus(`{"blocks":1,"connections":1,"chain":"main","verificationprogress":1.000002}`, fetched)
	require.NoError(t, err)
	assert.Equal(t, 1.0, snap.Progress)
}

func TestFormatStatus_RoundTrip(t *testing.T) {
	tests := []Snapshot{
		{Height: 800000, Connections: 8, Network: "main", Progress: 1, FetchedAt: fetched},
		{Height: 0, Connections: 0, Network: "regtest", Progress: 0, FetchedAt: fetched},
		{Height: 123456, Connections: 125, Network: "signet", Progress: 0.123456789012345, FetchedAt: fetched},
		{Height: 2500000, Headers: 2500010, BestBlockHash: "000000000000000000026b4b", Connections: 3, Network: "test", Progress: 0.5, FetchedAt: fetched},
	}

	for _, want := range tests {
		t.Run(want.Network, func(t *testing.T) {
			got, err := ParseStatus(FormatStatus(want), want.FetchedAt)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestFormatStatus_Shape(t *testing.T) {
	out := FormatStatus(Snapshot{Height: 800000, Connections: 8, Network: "main", Progress: 1})
	assert.Equal(t, `{"blocks":800000,"connections":8,"chain":"main","verificationprogress":1}`, out)
}

func TestParseWallet(t *testing.T) {
	w, err := ParseWallet(`{"walletname":"hodl","walletversion":169900,"balance":0.5,"unconfirmed_balance":0,"txcount":42,"keypoolsize":1000}`, fetched)
	require.NoError(t, err)

	assert.Equal(t, "hodl", w.Name)
	assert.Equal(t, 0.5, w.Balance)
	assert.Equal(t, int64(42), w.TxCount)
	assert.Equal(t, int64(1000), w.KeypoolSize)
	assert.Equal(t, fetched, w.FetchedAt)
}

func TestParseWallet_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ParseErrorKind
		field string
	}{
		{"empty", "", Malformed, ""},
		{"not json", "error: no wallet", Malformed, ""},
		{"missing name", `{"balance":1}`, MissingField, "walletname"},
		{"missing balance", `{"walletname":"w"}`, MissingField, "balance"},
		{"bad balance", `{"walletname":"w","balance":"lots"}`, Malformed, "balance"},
		{"bad txcount", `{"walletname":"w","balance":1,"txcount":-3}`, Malformed, "txcount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWallet(tt.input, fetched)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.kind, pe.Kind)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestParseError_Message(t *testing.T) {
	assert.Equal(t, `status output is missing "blocks"`, missing("blocks").Error())
	assert.Equal(t, `malformed "chain": empty value`, malformed("chain", "empty value").Error())
	assert.Equal(t, "malformed output: empty output", malformed("", "empty output").Error())
}
