// Package loader implements stage 2 of the system: decoding an Image,
// laying out its RAM regions, applying relocations, synthesizing the
// static PLT, and servicing the dynamic PLT's SVC-driven lazy binding.
//
// Nothing in this package executes ARM instructions. It models the target
// device's address space as a flat simulated RAM buffer plus a set of
// flash-resident byte slices (the Images themselves), and produces exactly
// the bytes a real Cortex-M would need at each of those addresses; running
// them is the job of the firmware this package is cross-compiled into.
package loader

import "github.com/jetsetilly/cortexdl/errors"

// RAMBase is the conventional base address backing every module's GOT,
// Data and PLT allocations in the simulated address space.
const RAMBase = 0x20000000

// ramSize bounds the simulated heap. Exhausting it is fatal: on real
// hardware a bare-metal breakpoint would fire.
const ramSize = 4 << 20

// heap is a bump allocator standing in for the device's global allocator: a
// single process-wide resource touched from both thread context and the
// SVC handler.
type heap struct {
	buf  []byte
	next uint32
}

func newHeap() *heap {
	return &heap{buf: make([]byte, ramSize), next: RAMBase}
}

// alloc reserves n word-aligned bytes and returns both their base address
// and a slice of the underlying buffer backing them, so callers can write
// through the slice or address it later via at(). A zero-size request still
// advances the heap by one word, so every region gets a distinct base.
func (h *heap) alloc(n int) (uint32, []byte, error) {
	n = wordAlign(n)
	step := n
	if step == 0 {
		step = 4
	}

	off := h.next - RAMBase
	if int(off)+step > len(h.buf) {
		return 0, nil, errors.Errorf(errors.AllocatorExhausted)
	}

	region := h.buf[off : off+uint32(n)]
	base := h.next
	h.next += uint32(step)
	return base, region, nil
}

// at returns the n bytes at addr, which must lie within a region this heap
// has already allocated.
func (h *heap) at(addr uint32, n int) []byte {
	off := addr - RAMBase
	return h.buf[off : off+uint32(n)]
}

func wordAlign(n int) int {
	if r := n % 4; r != 0 {
		n += 4 - r
	}
	return n
}
