// Package node knows the shape of the bitcoin-cli conversation: how to build
// an authenticated command line, how to read status and wallet output into
// typed snapshots, and how to classify any invocation into an Outcome.
//
// It never talks to bitcoind directly. Everything goes through an
// exec.Invoker and comes back as text.
package node
