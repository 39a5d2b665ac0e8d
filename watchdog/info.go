package watchdog

import (
	"errors"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
)

// ResourceSource returns the current average usage of some resource, as a
// fraction where 1 means "fully used".
type ResourceSource interface {
	AverageUsage() (float64, error)
}

// CPUInfo contains very basic CPU information
type CPUInfo struct {
	// UserAvg is the average of the user CPU usage since last time
	// it was polled. 0 means "not used at all" and 1 means "1 CPU was
	// totally full for that period". So it might be greater than 1 if
	// the process is monopolizing several cores.
	UserAvg float64
}

// MemInfo contains very basic memory information
type MemInfo struct {
	// Alloc is the number of bytes allocated and not yet freed
	// as described in runtime.MemStats.Alloc
	Alloc uint64
	// AllocPerSec is the average number of bytes allocated, per second,
	// since last time this function was called.
	AllocPerSec float64
}

// ProcessInfo is used to query CPU and Mem info, it keeps data from
// the previous calls to calculate averages. It is thread safe.
type ProcessInfo struct {
	proc *process.Process
	now  func() time.Time

	mu          sync.Mutex
	lastCPUTime time.Time
	lastCPUUser float64
	lastCPU     CPUInfo

	lastMemTime       time.Time
	lastMemTotalAlloc uint64
	lastMem           MemInfo
}

// NewProcessInfo returns a ProcessInfo watching the current process.
func NewProcessInfo() (*ProcessInfo, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	pi := &ProcessInfo{proc: p, now: time.Now}
	pi.lastCPUTime = pi.now()
	pi.lastMemTime = pi.lastCPUTime
	if ts, err := p.Times(); err == nil {
		pi.lastCPUUser = ts.User
	}
	return pi, nil
}

// CPU returns basic CPU info
func (pi *ProcessInfo) CPU() (CPUInfo, error) {
	pi.mu.Lock()
	defer pi.mu.Unlock()

	now := pi.now()
	dt := now.Sub(pi.lastCPUTime)
	if dt <= 0 {
		return pi.lastCPU, nil // shouldn't happen unless time decreases or back to back calls
	}
	ts, err := pi.proc.Times()
	if err != nil {
		return pi.lastCPU, err
	}
	pi.lastCPUTime = now
	dua := ts.User - pi.lastCPUUser
	pi.lastCPUUser = ts.User
	if dua <= 0 {
		pi.lastCPU.UserAvg = 0 // shouldn't happen, but make sure result is always > 0
	} else {
		pi.lastCPU.UserAvg = float64(time.Second) * dua / float64(dt)
	}

	return pi.lastCPU, nil
}

// Mem returns basic memory information
func (pi *ProcessInfo) Mem() MemInfo {
	pi.mu.Lock()
	defer pi.mu.Unlock()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	ret := MemInfo{Alloc: ms.Alloc, AllocPerSec: pi.lastMem.AllocPerSec}

	now := pi.now()
	dt := now.Sub(pi.lastMemTime)
	if dt <= 0 {
		return ret // shouldn't happen unless time decreases or back to back calls
	}
	pi.lastMemTime = now
	dta := int64(ms.TotalAlloc) - int64(pi.lastMemTotalAlloc)
	pi.lastMemTotalAlloc = ms.TotalAlloc
	if dta <= 0 {
		pi.lastMem.AllocPerSec = 0 // shouldn't happen, but make sure result is always > 0
	} else {
		pi.lastMem.AllocPerSec = float64(time.Second) * float64(dta) / float64(dt)
	}
	ret.AllocPerSec = pi.lastMem.AllocPerSec

	return ret
}

// CPUSource reports the user CPU used by this process since the previous
// call, divided by the number of CPUs.
type CPUSource struct {
	info *ProcessInfo
	cpus int
}

// NewCPUSource returns a CPUSource for the current process.
func NewCPUSource() (*CPUSource, error) {
	pi, err := NewProcessInfo()
	if err != nil {
		return nil, err
	}
	return &CPUSource{info: pi, cpus: runtime.NumCPU()}, nil
}

// AverageUsage implements ResourceSource.
func (s *CPUSource) AverageUsage() (float64, error) {
	c, err := s.info.CPU()
	if err != nil {
		return 0, err
	}
	return c.UserAvg / float64(s.cpus), nil
}

// MemorySource reports the resident memory of this process relative to the
// total memory of the host.
type MemorySource struct {
	rss   func() (uint64, error)
	total func() (uint64, error)
}

// NewMemorySource returns a MemorySource for the current process.
func NewMemorySource() (*MemorySource, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &MemorySource{
		rss: func() (uint64, error) {
			mi, err := p.MemoryInfo()
			if err != nil {
				return 0, err
			}
			return mi.RSS, nil
		},
		total: hostMemory,
	}, nil
}

// AverageUsage implements ResourceSource.
func (s *MemorySource) AverageUsage() (float64, error) {
	return usageOf(s.rss, s.total)
}

// HeapSource reports the bytes allocated by the Go heap relative to the total
// memory of the host.
type HeapSource struct {
	info  *ProcessInfo
	total func() (uint64, error)
}

// NewHeapSource returns a HeapSource for the current process.
func NewHeapSource() (*HeapSource, error) {
	pi, err := NewProcessInfo()
	if err != nil {
		return nil, err
	}
	return &HeapSource{info: pi, total: hostMemory}, nil
}

// AverageUsage implements ResourceSource.
func (s *HeapSource) AverageUsage() (float64, error) {
	alloc := func() (uint64, error) { return s.info.Mem().Alloc, nil }
	return usageOf(alloc, s.total)
}

func hostMemory() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Total, nil
}

func usageOf(used, total func() (uint64, error)) (float64, error) {
	t, err := total()
	if err != nil {
		return 0, err
	}
	if t == 0 {
		return 0, errors.New("total memory reported as 0")
	}
	u, err := used()
	if err != nil {
		return 0, err
	}
	return float64(u) / float64(t), nil
}
