// Package throttle is the download-engine half of the bandwidth engine: a
// process-wide rate limit that the speed arbitrator pushes effective limits
// into, and reader wrappers that enforce it with a token bucket. A limit of
// 0 (or negative) means unlimited.
package throttle

import (
	"io"
	"sync"
	"time"
)

// Size unit constants for byte conversions.
const (
	// B represents one byte.
	B int64 = 1
	// KB represents one kilobyte (1024 bytes).
	KB = 1024 * B
	// MB represents one megabyte (1024 kilobytes).
	MB = 1024 * KB
	// GB represents one gigabyte (1024 megabytes).
	GB = 1024 * MB
)

// Limiter holds the global transfer rate limit shared by all readers. The
// arbitrator calls SetSpeedLimit whenever the effective limit changes; every
// in-flight Reader picks the new value up on its next Read.
type Limiter struct {
	mu    sync.RWMutex
	limit int64 // bytes per second, 0 or negative = unlimited
}

// NewLimiter creates a limiter with the given initial limit.
func NewLimiter(limit int64) *Limiter {
	return &Limiter{limit: limit}
}

// SetSpeedLimit updates the global limit. 0 or negative means unlimited.
func (l *Limiter) SetSpeedLimit(limit int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limit = limit
}

// SpeedLimit returns the current global limit in bytes per second.
func (l *Limiter) SpeedLimit() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.limit
}

// Reader wraps r so reads respect the limiter's current rate.
func (l *Limiter) Reader(r io.Reader) *Reader {
	return &Reader{
		r:        r,
		limiter:  l,
		lastRead: time.Now(),
	}
}

// ReadCloser wraps rc so reads respect the limiter's current rate and Close
// passes through to the underlying ReadCloser.
func (l *Limiter) ReadCloser(rc io.ReadCloser) *ReadCloser {
	return &ReadCloser{
		Reader: l.Reader(rc),
		closer: rc,
	}
}

// Reader is an io.Reader throttled by a shared Limiter using a token bucket:
// tokens accrue at the current limit and cap at one second's worth, so the
// largest burst after idle is a single second of data.
type Reader struct {
	r       io.Reader
	limiter *Limiter

	mu       sync.Mutex
	lastRead time.Time
	tokens   int64 // available tokens (bytes); bucket starts empty
}

// Read implements io.Reader. The limit is re-read from the shared Limiter on
// every call, so a limit change while a download is running takes effect on
// the next read without reconstructing the reader.
func (r *Reader) Read(b []byte) (n int, err error) {
	limit := r.limiter.SpeedLimit()
	if limit <= 0 {
		return r.r.Read(b)
	}

	r.mu.Lock()

	now := time.Now()
	elapsed := now.Sub(r.lastRead)
	r.lastRead = now

	r.tokens += int64(float64(limit) * elapsed.Seconds())
	if r.tokens > limit {
		r.tokens = limit
	}

	wantToRead := int64(len(b))
	if wantToRead > limit {
		wantToRead = limit // never read more than 1 second worth
	}

	if r.tokens < wantToRead {
		needed := wantToRead - r.tokens
		waitTime := time.Duration(float64(time.Second) * float64(needed) / float64(limit))
		if waitTime > 0 {
			r.mu.Unlock()
			time.Sleep(waitTime)
			r.mu.Lock()

			now = time.Now()
			elapsed = now.Sub(r.lastRead)
			r.lastRead = now
			r.tokens += int64(float64(limit) * elapsed.Seconds())
			if r.tokens > limit {
				r.tokens = limit
			}
		}
	}

	readSize := int(wantToRead)
	if r.tokens > 0 && int64(readSize) > r.tokens {
		readSize = int(r.tokens)
	}
	if readSize <= 0 {
		readSize = 1
	}

	r.mu.Unlock()

	// Actual read happens outside the lock.
	n, err = r.r.Read(b[:readSize])

	r.mu.Lock()
	r.tokens -= int64(n)
	r.mu.Unlock()

	return n, err
}

// ReadCloser is a throttled io.ReadCloser.
type ReadCloser struct {
	*Reader
	closer io.Closer
}

// Close closes the underlying ReadCloser.
func (r *ReadCloser) Close() error {
	return r.closer.Close()
}
