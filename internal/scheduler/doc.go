// Package scheduler runs the background process that tracks whether the
// bandwidth schedule's window is currently open. A single goroutine owns the
// evaluation loop: it recomputes the active flag whenever the schedule is
// replaced, publishes it into a reactive cell, and sleeps until the next
// predicted open/close transition. Sleeps are floored at one second so a
// backward clock step or a zero-length wait can never busy-loop the process,
// and capped at one minute so clock jumps, suspend/resume and timezone
// changes are noticed at the next wake rather than at a transition that may
// be days away.
//
// The process holds no persistent state; the active flag is rebuilt from the
// current schedule on every evaluation, and on daemon restart.
package scheduler
