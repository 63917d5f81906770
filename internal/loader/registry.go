package loader

import "sync"

// lrRange is one entry of the global LR-range registry: a code range owned
// by a module, and the GOT base that owns it.
type lrRange struct {
	start, end uint32
	base       uint32
}

func (r lrRange) contains(addr uint32) bool {
	return addr >= r.start && addr < r.end
}

// registry is the append-only LR-range registry: appended to from thread
// context whenever a module is loaded, scanned read-only from the SVC
// handler. On real hardware the critical section around append would
// disable interrupts; a mutex plays the same role here.
type registry struct {
	mu     sync.Mutex
	ranges []lrRange
}

func newRegistry() *registry {
	return &registry{}
}

func (r *registry) add(start, end, base uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranges = append(r.ranges, lrRange{start: start, end: end, base: base})
}

// find returns the base of the range containing addr, and whether one was
// found. At most one range should ever contain a given address; the first
// match is returned.
func (r *registry) find(addr uint32) (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rr := range r.ranges {
		if rr.contains(addr) {
			return rr.base, true
		}
	}
	return 0, false
}
