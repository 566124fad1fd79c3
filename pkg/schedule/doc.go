// Package schedule defines the recurring bandwidth schedule value and the
// pure calendar arithmetic around it: whether a given instant falls inside
// the scheduled window, and when the window will next open or close.
//
// A Schedule is an immutable value; edits construct a replacement via New or
// the With* helpers, never mutate in place. All window math works at minute
// granularity and is timezone-aware: day stepping uses AddDate so that
// variable-length days (DST transitions) are handled by the time package
// rather than by fixed 24h offsets.
package schedule
