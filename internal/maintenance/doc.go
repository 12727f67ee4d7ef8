// Package maintenance forecasts when recurring equipment maintenance falls due.
//
// It estimates how hard each machine is used from its service history, projects the
// remaining interval of every schedule onto the calendar and classifies the result as
// good, due soon or overdue. Everything here is a pure function of its arguments,
// including the reference time, so callers fetch a consistent snapshot first and may
// evaluate different equipment concurrently.
package maintenance
