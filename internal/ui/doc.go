// Package ui holds the small pieces of styled output shared by the one-shot
// commands (status, exec, qr, init). The dashboard has its own styles.
//
// # Components
//
//	Spinner - animated "waiting for the node" indicator written to stderr
//	Fields  - aligned label/value block used by status
//
// Colors are ANSI codes so output degrades cleanly on basic terminals. The
// --no-color flag switches lipgloss to the Ascii profile, which strips them.
//
// # Symbols
//
//	✓  success
//	✗  failure
package ui
