package node

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// ParseErrorKind says why status or wallet output was rejected.
type ParseErrorKind int

const (
	// MissingField means a required value was absent.
	MissingField ParseErrorKind = iota
	// Malformed means the output wasn't JSON or key/value text, or a value had the wrong type.
	Malformed
)

func (k ParseErrorKind) String() string {
	if k == MissingField {
		return "missing field"
	}
	return "malformed"
}

// ParseError reports status or wallet output that couldn't be read.
type ParseError struct {
	Kind   ParseErrorKind
	Field  string
	Detail string
}

func (e *ParseError) Error() string {
	switch {
	case e.Kind == MissingField:
		return fmt.Sprintf("status output is missing %q", e.Field)
	case e.Field != "":
		return fmt.Sprintf("malformed %q: %s", e.Field, e.Detail)
	default:
		return "malformed output: " + e.Detail
	}
}

func missing(field string) *ParseError {
	return &ParseError{Kind: MissingField, Field: field}
}

func malformed(field, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: Malformed, Field: field, Detail: fmt.Sprintf(format, args...)}
}

// Field names used in errors and in FormatStatus output.
const (
	fieldBlocks        = "blocks"
	fieldHeaders       = "headers"
	fieldConnections   = "connections"
	fieldChain         = "chain"
	fieldProgress      = "verificationprogress"
	fieldBestBlockHash = "bestblockhash"
)

var jsonAPI = jsoniter.Config{
	UseNumber:              true,
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// ParseStatus reads status output into a Snapshot stamped with fetchedAt.
//
// Two formats are accepted: a JSON object with blocks, connections (a number
// or an {in,out,total} object), chain and verificationprogress; or the
// human-readable key/value text printed by bitcoin-cli -getinfo.
func ParseStatus(stdout string, fetchedAt time.Time) (Snapshot, error) {
	text := strings.TrimSpace(ansiEscape.ReplaceAllString(stdout, ""))
	if text == "" {
		return Snapshot{}, malformed("", "empty output")
	}

	var (
		snap Snapshot
		err  *ParseError
	)
	switch text[0] {
	case '{':
		snap, err = parseStatusJSON(text)
	case '[', '"':
		err = malformed("", "expected a JSON object or key/value lines")
	default:
		snap, err = parseStatusText(text)
	}
	if err != nil {
		return Snapshot{}, err
	}

	snap.FetchedAt = fetchedAt
	return snap, nil
}

func parseStatusJSON(text string) (Snapshot, *ParseError) {
	var raw map[string]interface{}
	if err := jsonAPI.UnmarshalFromString(text, &raw); err != nil {
		return Snapshot{}, malformed("", "invalid JSON: %v", err)
	}

	var snap Snapshot
	var perr *ParseError

	if snap.Height, perr = requireInt(raw, fieldBlocks); perr != nil {
		return Snapshot{}, perr
	}

	conns, ok := raw[fieldConnections]
	if !ok {
		return Snapshot{}, missing(fieldConnections)
	}
	if snap.Connections, perr = connectionCount(conns); perr != nil {
		return Snapshot{}, perr
	}

	chain, ok := raw[fieldChain]
	if !ok {
		return Snapshot{}, missing(fieldChain)
	}
	if snap.Network, ok = chain.(string); !ok || snap.Network == "" {
		return Snapshot{}, malformed(fieldChain, "expected a non-empty string")
	}

	progress, ok := raw[fieldProgress]
	if !ok {
		return Snapshot{}, missing(fieldProgress)
	}
	f, isNum := asFloat(progress)
	if !isNum {
		return Snapshot{}, malformed(fieldProgress, "expected a number")
	}
	if snap.Progress, perr = checkProgress(f); perr != nil {
		return Snapshot{}, perr
	}

	if _, ok := raw[fieldHeaders]; ok {
		if snap.Headers, perr = requireInt(raw, fieldHeaders); perr != nil {
			return Snapshot{}, perr
		}
	}
	if hash, ok := raw[fieldBestBlockHash].(string); ok {
		snap.BestBlockHash = hash
	}

	return snap, nil
}

// connectionCount accepts a plain count or the -getinfo {in,out,total} object.
func connectionCount(v interface{}) (int, *ParseError) {
	if obj, ok := v.(map[string]interface{}); ok {
		if total, ok := obj["total"]; ok {
			n, isInt := asInt(total)
			if !isInt || n < 0 {
				return 0, malformed(fieldConnections, "total must be a non-negative integer")
			}
			return int(n), nil
		}
		in, okIn := asInt(obj["in"])
		out, okOut := asInt(obj["out"])
		if !okIn || !okOut || in < 0 || out < 0 {
			return 0, malformed(fieldConnections, "expected total or in/out counts")
		}
		return int(in + out), nil
	}

	n, ok := asInt(v)
	if !ok || n < 0 {
		return 0, malformed(fieldConnections, "expected a non-negative integer")
	}
	return int(n), nil
}

func requireInt(raw map[string]interface{}, field string) (int64, *ParseError) {
	v, ok := raw[field]
	if !ok {
		return 0, missing(field)
	}
	n, ok := asInt(v)
	if !ok || n < 0 {
		return 0, malformed(field, "expected a non-negative integer")
	}
	return n, nil
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// checkProgress rejects values outside [0, 1]. bitcoind can overshoot 1 by
// a rounding hair, which is clamped.
func checkProgress(f float64) (float64, *ParseError) {
	if math.IsNaN(f) || f < 0 || f > 1.0001 {
		return 0, malformed(fieldProgress, "%v is outside [0, 1]", f)
	}
	if f > 1 {
		f = 1
	}
	return f, nil
}

// statusTextKeys maps -getinfo labels (lower-cased) to field names.
var statusTextKeys = map[string]string{
	"blocks":                fieldBlocks,
	"headers":               fieldHeaders,
	"chain":                 fieldChain,
	"verification progress": fieldProgress,
	"network":               fieldConnections,
	"connections":           fieldConnections,
	"best block hash":       fieldBestBlockHash,
	"bestblockhash":         fieldBestBlockHash,
}

var networkLine = regexp.MustCompile(`(?i)^in\s+(\d+)\s*,\s*out\s+(\d+)(?:\s*,\s*total\s+(\d+))?$`)

func parseStatusText(text string) (Snapshot, *ParseError) {
	values := make(map[string]string)
	pairs := 0
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		pairs++
		field, known := statusTextKeys[strings.ToLower(strings.TrimSpace(key))]
		if !known {
			continue
		}
		if _, seen := values[field]; !seen {
			values[field] = strings.TrimSpace(value)
		}
	}
	if pairs == 0 {
		return Snapshot{}, malformed("", "expected a JSON object or key/value lines")
	}

	var snap Snapshot

	blocks, ok := values[fieldBlocks]
	if !ok {
		return Snapshot{}, missing(fieldBlocks)
	}
	h, err := strconv.ParseInt(blocks, 10, 64)
	if err != nil || h < 0 {
		return Snapshot{}, malformed(fieldBlocks, "%q is not a non-negative integer", blocks)
	}
	snap.Height = h

	conns, ok := values[fieldConnections]
	if !ok {
		return Snapshot{}, missing(fieldConnections)
	}
	n, perr := parseConnectionText(conns)
	if perr != nil {
		return Snapshot{}, perr
	}
	snap.Connections = n

	chain, ok := values[fieldChain]
	if !ok {
		return Snapshot{}, missing(fieldChain)
	}
	if chain == "" {
		return Snapshot{}, malformed(fieldChain, "empty value")
	}
	snap.Network = chain

	progress, ok := values[fieldProgress]
	if !ok {
		return Snapshot{}, missing(fieldProgress)
	}
	f, perr := parseProgressText(progress)
	if perr != nil {
		return Snapshot{}, perr
	}
	snap.Progress = f

	if headers, ok := values[fieldHeaders]; ok {
		hd, err := strconv.ParseInt(headers, 10, 64)
		if err != nil || hd < 0 {
			return Snapshot{}, malformed(fieldHeaders, "%q is not a non-negative integer", headers)
		}
		snap.Headers = hd
	}
	snap.BestBlockHash = values[fieldBestBlockHash]

	return snap, nil
}

// parseConnectionText reads "8" or "in 0, out 8, total 8".
func parseConnectionText(s string) (int, *ParseError) {
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n, nil
	}
	m := networkLine.FindStringSubmatch(s)
	if m == nil {
		return 0, malformed(fieldConnections, "%q is not a connection count", s)
	}
	if m[3] != "" {
		total, _ := strconv.Atoi(m[3])
		return total, nil
	}
	in, _ := strconv.Atoi(m[1])
	out, _ := strconv.Atoi(m[2])
	return in + out, nil
}

// parseProgressText reads "99.9871%" as a percentage or "0.999871" as a fraction.
// Below 99% -getinfo draws a bar ahead of the percentage; only the last
// field counts.
func parseProgressText(s string) (float64, *ParseError) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, malformed(fieldProgress, "empty value")
	}
	last := fields[len(fields)-1]
	pct := strings.HasSuffix(last, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(last, "%"), 64)
	if err != nil {
		return 0, malformed(fieldProgress, "%q is not a number", s)
	}
	if pct {
		f /= 100
	}
	return checkProgress(f)
}

// statusJSON is the canonical serialisation used by FormatStatus.
type statusJSON struct {
	Blocks               int64   `json:"blocks"`
	Headers              int64   `json:"headers,omitempty"`
	BestBlockHash        string  `json:"bestblockhash,omitempty"`
	Connections          int     `json:"connections"`
	Chain                string  `json:"chain"`
	VerificationProgress float64 `json:"verificationprogress"`
}

// FormatStatus renders s as the JSON form ParseStatus accepts, so that
// ParseStatus(FormatStatus(s), s.FetchedAt) returns s.
func FormatStatus(s Snapshot) string {
	out, err := jsonAPI.MarshalToString(statusJSON{
		Blocks:               s.Height,
		Headers:              s.Headers,
		BestBlockHash:        s.BestBlockHash,
		Connections:          s.Connections,
		Chain:                s.Network,
		VerificationProgress: s.Progress,
	})
	if err != nil {
		// Only NaN/Inf progress can fail here, which ParseStatus never produces.
		return "{}"
	}
	return out
}

// ParseWallet reads getwalletinfo JSON. walletname and balance are required.
func ParseWallet(stdout string, fetchedAt time.Time) (WalletSnapshot, error) {
	text := strings.TrimSpace(stdout)
	if text == "" {
		return WalletSnapshot{}, malformed("", "empty output")
	}
	var raw map[string]interface{}
	if err := jsonAPI.UnmarshalFromString(text, &raw); err != nil {
		return WalletSnapshot{}, malformed("", "invalid JSON: %v", err)
	}

	w := WalletSnapshot{FetchedAt: fetchedAt}

	name, ok := raw["walletname"]
	if !ok {
		return WalletSnapshot{}, missing("walletname")
	}
	if w.Name, ok = name.(string); !ok {
		return WalletSnapshot{}, malformed("walletname", "expected a string")
	}

	balance, ok := raw["balance"]
	if !ok {
		return WalletSnapshot{}, missing("balance")
	}
	if w.Balance, ok = asFloat(balance); !ok {
		return WalletSnapshot{}, malformed("balance", "expected a number")
	}

	for field, dst := range map[string]*int64{"txcount": &w.TxCount, "keypoolsize": &w.KeypoolSize} {
		v, present := raw[field]
		if !present {
			continue
		}
		n, isInt := asInt(v)
		if !isInt || n < 0 {
			return WalletSnapshot{}, malformed(field, "expected a non-negative integer")
		}
		*dst = n
	}

	return w, nil
}
