// Package address validates bitcoin addresses and keeps the local address book.
package address

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// State is the outcome of checking an address.
type State int

const (
	Empty State = iota
	Invalid
	Valid
)

// Network names a chain an address belongs to.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Signet  Network = "signet"
	Regtest Network = "regtest"
)

// Testnet and signet share address prefixes, so tb1/m/n/2 addresses report
// testnet. Base58 regtest addresses also report testnet.
var networks = []struct {
	name   Network
	params *chaincfg.Params
}{
	{Mainnet, &chaincfg.MainNetParams},
	{Testnet, &chaincfg.TestNet3Params},
	{Signet, &chaincfg.SigNetParams},
	{Regtest, &chaincfg.RegressionNetParams},
}

// Validity describes a checked address.
type Validity struct {
	State   State
	Network Network
}

// Label is the short status shown next to the address input.
func (v Validity) Label() string {
	switch v.State {
	case Empty:
		return "EMPTY"
	case Valid:
		return fmt.Sprintf("VALID (%s)", v.Network)
	default:
		return "INVALID"
	}
}

// OK reports whether the address is valid on some network.
func (v Validity) OK() bool {
	return v.State == Valid
}

// Check validates s (surrounding whitespace ignored) against each known network.
func Check(s string) Validity {
	s = strings.TrimSpace(s)
	if s == "" {
		return Validity{State: Empty}
	}

	candidates := []string{s}
	if lower := strings.ToLower(s); lower != s && strings.ToUpper(s) == s {
		// Bech32 may be written in upper case, e.g. for denser QR codes.
		candidates = append(candidates, lower)
	}

	for _, c := range candidates {
		for _, n := range networks {
			addr, err := btcutil.DecodeAddress(c, n.params)
			if err != nil {
				continue
			}
			if _, raw := addr.(*btcutil.AddressPubKey); raw {
				continue
			}
			if addr.IsForNet(n.params) {
				return Validity{State: Valid, Network: n.name}
			}
		}
	}
	return Validity{State: Invalid}
}

// Short abbreviates long addresses for list display: the first 12 and last 8
// characters around an ellipsis.
func Short(addr string) string {
	if len(addr) <= 22 {
		return addr
	}
	return addr[:12] + "…" + addr[len(addr)-8:]
}
