package schedule

import (
	"sync/atomic"

	"github.com/DataDog/datadog-profiling-agent/config"
)

// tunablesHolder publishes copies of the tunables. Readers never lock; writers
// replace the whole value.
type tunablesHolder struct {
	v atomic.Pointer[config.Tunables]
}

func newTunablesHolder(t config.Tunables) *tunablesHolder {
	h := &tunablesHolder{}
	h.store(t)
	return h
}

func (h *tunablesHolder) load() config.Tunables {
	return *h.v.Load()
}

func (h *tunablesHolder) store(t config.Tunables) {
	h.v.Store(&t)
}

// swapIfChanged installs fresh unless it equals the current value, and
// reports whether it did.
func (h *tunablesHolder) swapIfChanged(fresh config.Tunables) bool {
	for {
		cur := h.v.Load()
		if *cur == fresh {
			return false
		}
		if h.v.CompareAndSwap(cur, &fresh) {
			return true
		}
	}
}
