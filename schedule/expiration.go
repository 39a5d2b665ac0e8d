package schedule

import (
	"sync/atomic"
	"time"
)

// Expiration bounds the life of a policy. Once expired it stays expired for the
// rest of the process.
type Expiration interface {
	// Consume is called before emitting a StartCapture. It reports whether
	// the capture may proceed and records it.
	Consume() bool
	// Expired reports whether the expiration is exhausted.
	Expired() bool
}

// countExpiration fires exactly n times.
type countExpiration struct {
	limit int64
	used  atomic.Int64
}

// Count returns an Expiration allowing n captures. Count(0) is expired from
// the start.
func Count(n int) Expiration {
	if n < 0 {
		n = 0
	}
	return &countExpiration{limit: int64(n)}
}

func (e *countExpiration) Consume() bool {
	for {
		used := e.used.Load()
		if used >= e.limit {
			return false
		}
		if e.used.CompareAndSwap(used, used+1) {
			return true
		}
	}
}

func (e *countExpiration) Expired() bool {
	return e.used.Load() >= e.limit
}

// elapsedExpiration expires once more than d passed since it was created.
type elapsedExpiration struct {
	deadline time.Time
	now      func() time.Time
	expired  atomic.Bool
}

// Elapsed returns an Expiration which expires once more than d elapsed.
func Elapsed(d time.Duration) Expiration {
	return newElapsed(d, time.Now)
}

func newElapsed(d time.Duration, now func() time.Time) *elapsedExpiration {
	return &elapsedExpiration{deadline: now().Add(d), now: now}
}

func (e *elapsedExpiration) Consume() bool {
	return !e.Expired()
}

func (e *elapsedExpiration) Expired() bool {
	if e.expired.Load() {
		return true
	}
	if e.now().After(e.deadline) {
		e.expired.Store(true)
		return true
	}
	return false
}

// anyExpiration is expired as soon as one of its parts is.
type anyExpiration []Expiration

// Any combines expirations: the result expires when the first one does.
func Any(exps ...Expiration) Expiration {
	var parts anyExpiration
	for _, e := range exps {
		if e != nil {
			parts = append(parts, e)
		}
	}
	switch len(parts) {
	case 0:
		return Never()
	case 1:
		return parts[0]
	}
	return parts
}

func (a anyExpiration) Consume() bool {
	if a.Expired() {
		return false
	}
	ok := true
	for _, e := range a {
		ok = e.Consume() && ok
	}
	return ok
}

func (a anyExpiration) Expired() bool {
	for _, e := range a {
		if e.Expired() {
			return true
		}
	}
	return false
}

type never struct{}

func (never) Consume() bool { return true }
func (never) Expired() bool { return false }

// Never returns an Expiration which never expires.
func Never() Expiration { return never{} }
