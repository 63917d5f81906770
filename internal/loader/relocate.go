package loader

import (
	"encoding/binary"

	"github.com/jetsetilly/cortexdl/internal/faults"
	"github.com/jetsetilly/cortexdl/internal/image"
)

// Resolve implements R3: for each relocation in m's Image, read the GOT
// slot index the builder planted in .text and write the resolved entry
// into that slot. dependencies is the ordered list consulted for External
// symbols; the first dependency whose symbol table has a matching name
// wins.
//
// Relocations are processed in Image order, so a later write to the same
// GOT slot overwrites an earlier one — the contract the builder relies on
// when a movw/movt pair shares a slot. An External symbol absent from every
// dependency leaves its slot zero; this is not itself an error, only a
// recorded fault.
func (l *Loader) Resolve(m *Module, dependencies []*Module) error {
	for _, r := range m.img.Relocations {
		sym := m.img.Symbols[r.SymbolIndex]

		g := binary.LittleEndian.Uint32(m.img.Text[r.Offset:])

		var entry uint32
		switch sym.Kind {
		case image.Local, image.Exported:
			if sym.IsFunction {
				entry = sym.Payload + m.TextBegin
			} else {
				entry = sym.Payload + m.DataBegin
			}
		case image.External:
			entry = resolveExternal(sym.Name, dependencies)
			if entry == 0 {
				m.Faults.NewEntry("unresolved external "+sym.Name, faults.UnresolvedSymbol, m.TextBegin, 0)
			}
		case image.Module:
			continue
		}

		binary.LittleEndian.PutUint32(m.got[g*4:g*4+4], entry)
	}

	return nil
}

// resolveExternal returns the cross-boundary, Thumb-tagged PLT address of
// name in the first dependency that exports it, or 0 if none does.
func resolveExternal(name string, dependencies []*Module) uint32 {
	for _, dep := range dependencies {
		idx, ok := dep.byName[name]
		if !ok {
			continue
		}
		sym := dep.img.Symbols[idx]
		if sym.Kind != image.Exported || !sym.IsFunction {
			continue
		}
		return sym.Index2
	}
	return 0
}
