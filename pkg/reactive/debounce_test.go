package reactive

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(100*time.Millisecond, func() { fires.Add(1) })

	// Five rapid triggers inside the quiet window must produce one fire.
	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(300 * time.Millisecond)

	if got := fires.Load(); got != 1 {
		t.Errorf("fired %d times, want 1", got)
	}
}

func TestDebouncer_SeparateBurstsFireSeparately(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { fires.Add(1) })

	d.Trigger()
	time.Sleep(200 * time.Millisecond)
	d.Trigger()
	time.Sleep(200 * time.Millisecond)

	if got := fires.Load(); got != 2 {
		t.Errorf("fired %d times, want 2", got)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { fires.Add(1) })

	d.Trigger()
	d.Stop()
	d.Stop() // idempotent
	time.Sleep(200 * time.Millisecond)

	if got := fires.Load(); got != 0 {
		t.Errorf("fired %d times after Stop, want 0", got)
	}
}

func TestDebouncer_Flush(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(time.Hour, func() { fires.Add(1) })

	d.Flush() // nothing pending, no fire
	if got := fires.Load(); got != 0 {
		t.Fatalf("flush with nothing pending fired %d times", got)
	}

	d.Trigger()
	d.Flush()
	if got := fires.Load(); got != 1 {
		t.Errorf("fired %d times after Flush, want 1", got)
	}
	time.Sleep(100 * time.Millisecond)
	if got := fires.Load(); got != 1 {
		t.Errorf("timer survived Flush, fired %d times", got)
	}
}
