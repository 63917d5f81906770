package loader

import (
	"encoding/binary"

	"github.com/jetsetilly/cortexdl/internal/asmgen"
)

const (
	manualSlotLen = 20
	crossSlotLen  = 60
)

// synthesizePLT implements R4: for each exported function of m, emit a
// manual-entry slot and a cross-boundary slot, then patch the symbol
// table's index1/index2 fields with their Thumb-tagged addresses.
func (l *Loader) synthesizePLT(m *Module) error {
	n := len(m.img.GlobalFuncs)

	base, region, err := l.heap.alloc(n*manualSlotLen + n*crossSlotLen)
	if err != nil {
		return err
	}
	m.PLTBegin = base
	m.plt = region

	for i, symIdx := range m.img.GlobalFuncs {
		sym := &m.img.Symbols[symIdx]
		funcEntry := m.TextBegin + sym.Payload

		manual := region[i*manualSlotLen : (i+1)*manualSlotLen]
		writeManualSlot(manual, funcEntry, m.GotBegin)

		crossOff := n*manualSlotLen + i*crossSlotLen
		cross := region[crossOff : crossOff+crossSlotLen]
		writeCrossSlot(cross, funcEntry, m.GotBegin)

		sym.Index1 = base + uint32(i*manualSlotLen) + 1
		sym.Index2 = base + uint32(n*manualSlotLen+i*crossSlotLen) + 1
	}

	return nil
}

// writeManualSlot fills a 20-byte manual-entry PLT stub: load the function
// entry and this module's GOT base into r12/r9, branch in, fall back to
// the caller's own LR. No R9 restore is needed since the caller never
// pushed one.
func writeManualSlot(slot []byte, funcEntry, gotBase uint32) {
	copy(slot[0:4], asmgen.LdrPCRel(12, 8))
	copy(slot[4:8], asmgen.LdrPCRel(9, 8))
	copy(slot[8:10], asmgen.Bx2(12))
	copy(slot[10:12], asmgen.Bx2(14))
	binary.LittleEndian.PutUint32(slot[12:16], funcEntry)
	binary.LittleEndian.PutUint32(slot[16:20], gotBase)
}

// writeCrossSlot fills the initial 60-byte cross-boundary PLT slot with a
// single supervisor call body; the SVC handler (R5) rewrites this region
// in place the first time a given caller dispatches through it.
func writeCrossSlot(slot []byte, funcEntry, gotBase uint32) {
	copy(slot[0:2], asmgen.Svc())
	copy(slot[2:4], asmgen.Nop())
	binary.LittleEndian.PutUint32(slot[4:8], gotBase)
	binary.LittleEndian.PutUint32(slot[8:12], funcEntry)
	// remaining bytes stay zero: reserved for the dynamic chain (R5).
}
