package image

import (
	"bytes"
	"encoding/binary"

	"github.com/jetsetilly/cortexdl/errors"
	"github.com/jetsetilly/cortexdl/internal/elfreader"
)

// Encode builds the Image byte stream for obj, the filtered output of B1:
// header, relocation table, global-functions table, symbol table, name
// pool, .text, .data, in that fixed order. Repeated relocations against the
// same symbol each keep their own relocation entry rather than being
// deduplicated (see DESIGN.md).
func Encode(moduleName string, obj *elfreader.Object) ([]byte, error) {
	idx := map[string]uint32{}
	var symbols []Symbol
	var names bytes.Buffer

	// symbol 0 is always the module's own self-name, kind Module, payload 0.
	symbols = append(symbols, Symbol{Kind: Module, Name: moduleName, Payload: 0})

	addSymbol := func(s elfreader.Symbol) uint32 {
		if i, ok := idx[s.Name]; ok {
			return i
		}

		kind := Local
		switch s.Kind {
		case elfreader.Exported:
			kind = Exported
		case elfreader.External:
			kind = External
		}

		sym := Symbol{Kind: kind, IsFunction: s.IsFunction, Name: s.Name}

		switch kind {
		case External:
			sym.Payload = 0
		default:
			if s.IsFunction {
				sym.Payload = uint32(s.Address)
			} else {
				sym.Payload = uint32(s.Address) - uint32(len(obj.Text))
			}
		}

		i := uint32(len(symbols))
		symbols = append(symbols, sym)
		idx[s.Name] = i
		return i
	}

	byName := map[string]elfreader.Symbol{}
	for _, s := range obj.Symbols {
		byName[s.Name] = s
	}

	for _, s := range obj.Symbols {
		if s.Kind == elfreader.Exported || s.Kind == elfreader.External {
			addSymbol(s)
		}
	}

	relocs := make([]Relocation, 0, len(obj.Relocations))
	for _, r := range obj.Relocations {
		s, ok := byName[r.SymbolName]
		if !ok {
			return nil, errors.Errorf(errors.ImageEncodeError, "relocation references unknown symbol: "+r.SymbolName)
		}
		si := addSymbol(s)
		relocs = append(relocs, Relocation{Offset: r.Offset, SymbolIndex: si})
	}

	// name pool: only Exported/External names occupy it, in symbol-table
	// order, each "name\0".
	nameOffset := make([]uint32, len(symbols))
	for i, s := range symbols {
		if s.Kind == Exported || s.Kind == External {
			nameOffset[i] = uint32(names.Len())
			names.WriteString(s.Name)
			names.WriteByte(0)
		}
	}

	globalFuncs := make([]uint32, 0, len(obj.PublicFuncs))
	for _, name := range obj.PublicFuncs {
		i, ok := idx[name]
		if !ok {
			return nil, errors.Errorf(errors.ImageEncodeError, "public function missing from symbol table: "+name)
		}
		globalFuncs = append(globalFuncs, i)
	}

	symtBytes := len(symbols)*8 + names.Len()
	lSymT := wordAlign(symtBytes)

	hdr := Image{
		NFuncs:  uint32(len(globalFuncs)),
		NReloc:  uint32(len(relocs)),
		LSymT:   uint32(lSymT),
		LText:   uint32(len(obj.Text)),
		LData:   uint32(len(obj.Data)),
		LBss:    uint32(obj.Bss),
		NSymbol: uint32(len(symbols)),
	}

	var out bytes.Buffer
	write32 := func(v uint32) { binary.Write(&out, binary.LittleEndian, v) }

	write32(hdr.NFuncs)
	write32(hdr.NReloc)
	write32(hdr.LSymT)
	write32(hdr.LText)
	write32(hdr.LData)
	write32(hdr.LBss)
	write32(hdr.NSymbol)

	for _, r := range relocs {
		write32(r.Offset)
		write32(r.SymbolIndex)
	}

	for _, g := range globalFuncs {
		write32(g)
	}

	symtBegin := out.Len()

	for i, s := range symbols {
		kindBits := uint32(s.Kind)
		if s.IsFunction {
			kindBits |= 4
		}
		write32(kindBits<<28 | nameOffset[i])
		write32(s.Payload)
	}

	out.Write(names.Bytes())
	for out.Len()-symtBegin < lSymT {
		out.WriteByte(0)
	}

	out.Write(obj.Text)
	out.Write(obj.Data)

	return out.Bytes(), nil
}

func wordAlign(n int) int {
	return n + padding(n)
}

func padding(n int) int {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}
