// Package dashboard is the terminal UI for btcdash.
//
// It renders the controller's view model and forwards operator input back
// to it. The package never runs bitcoin-cli itself: every command, including
// the getnewaddress requests made from the address overlay, goes through
// the controller so it gets a correlation id and shows up in history.
//
// # Architecture
//
// The package uses Bubble Tea (Model-Update-View):
//
//   - Model: the last ViewModel read from the controller plus local UI state
//     (selection, output scroll, input line, overlays)
//   - Update: keystrokes, window size, animation ticks and change notifications
//   - View: renders header, panels and footer to a string
//
// # Message Flow
//
//  1. waitForChange blocks on Controller.Changes
//  2. changedMsg arrives, Update re-reads the ViewModel and re-arms the wait
//  3. View renders the new state
//
// A spinner tick keeps relative times ("updated 3 seconds ago") current
// between changes.
package dashboard
