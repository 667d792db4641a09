// Package controller schedules status polls, runs operator commands and
// keeps the view model the dashboard renders.
//
// Three pieces cooperate:
//
//   - Scheduler ticks at the poll interval and keeps at most one status poll
//     (and one wallet poll) in flight.
//   - Router validates operator input, assigns a correlation id and runs the
//     command asynchronously.
//   - Store owns all mutable state. Every change is an event applied by a
//     single goroutine; readers get an immutable ViewModel.
//
// Controller wires them together and owns their lifetime.
package controller
