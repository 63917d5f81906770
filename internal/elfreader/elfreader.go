// Package elfreader enumerates symbols and relocations from a host-class
// ELF32 relocatable object, the first stage of the image builder (B1).
// ARM32 REL relocations are parsed with nothing but debug/elf, rather than
// a third-party ELF library.
package elfreader

import (
	"debug/elf"
	"strings"

	"github.com/jetsetilly/cortexdl/errors"
)

// SymbolKind classifies a filtered symbol by binding and definedness.
type SymbolKind int

const (
	Local SymbolKind = iota
	Exported
	External
)

// RelocType is one of the relocation types this system understands. Any
// other ARM relocation type is dropped during reading.
type RelocType uint32

const (
	RelocMOVWBrelNC RelocType = 87
	RelocMOVTBrel   RelocType = 88
	RelocABS32      RelocType = 2
)

// Symbol is a filtered symbol from the object's symbol table: non-empty
// name, not a Thumb mapping symbol ($t/$d), not the module's own name, and
// not of STT_FILE kind.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	IsFunction bool
	Address    uint64
}

// Relocation is a retained REL entry: one of MOVW_BREL_NC, MOVT_BREL, or
// ABS32, targeting .text.
type Relocation struct {
	Offset      uint32
	Type        RelocType
	SymbolName  string
	SymbolValue uint64
}

// Object is the flat output of reading one ELF32 relocatable object.
type Object struct {
	// PublicFuncs are symbols with global binding and function kind, in
	// file order. Used to decide which trampolines to emit (B2) and to
	// populate the Image's global-functions table (B4).
	PublicFuncs []string

	Symbols     []Symbol
	Relocations []Relocation

	Text []byte
	Data []byte
	Bss  int
}

// Read parses path and returns the filtered symbol/relocation universe
// relative to moduleName (the module's own self-name, excluded from both
// lists).
func Read(path string, moduleName string) (*Object, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, errors.Errorf(errors.ELFReadError, err)
	}
	defer f.Close()

	obj := &Object{}

	textSec := f.Section(".text")
	if textSec == nil {
		return nil, errors.Errorf(errors.ELFMissingSection, ".text")
	}
	obj.Text, err = textSec.Data()
	if err != nil {
		return nil, errors.Errorf(errors.ELFReadError, err)
	}

	if dataSec := f.Section(".data"); dataSec != nil {
		obj.Data, err = dataSec.Data()
		if err != nil {
			return nil, errors.Errorf(errors.ELFReadError, err)
		}
	}

	if bssSec := f.Section(".bss"); bssSec != nil {
		obj.Bss = int(bssSec.Size)
	}

	elfSyms, err := f.Symbols()
	if err != nil {
		return nil, errors.Errorf(errors.ELFReadError, err)
	}

	for _, s := range elfSyms {
		if s.Name == "" || strings.HasPrefix(s.Name, "$t") || strings.HasPrefix(s.Name, "$d") {
			continue
		}
		if s.Name == moduleName {
			continue
		}

		bind := elf.ST_BIND(s.Info)
		typ := elf.ST_TYPE(s.Info)
		isGlobal := bind == elf.STB_GLOBAL
		isUndefined := s.Section == elf.SHN_UNDEF
		isFunction := typ == elf.STT_FUNC

		var kind SymbolKind
		switch {
		case isGlobal && !isUndefined:
			kind = Exported
		case isGlobal:
			kind = External
		case typ == elf.STT_FILE:
			continue
		default:
			kind = Local
		}

		obj.Symbols = append(obj.Symbols, Symbol{
			Name:       s.Name,
			Kind:       kind,
			IsFunction: isFunction,
			Address:    s.Value,
		})

		if kind == Exported && isFunction {
			obj.PublicFuncs = append(obj.PublicFuncs, s.Name)
		}
	}

	relSec := f.Section(".rel.text")
	if relSec == nil {
		return obj, nil
	}

	relData, err := relSec.Data()
	if err != nil {
		return nil, errors.Errorf(errors.ELFReadError, err)
	}

	for i := 0; i+8 <= len(relData); i += 8 {
		offset := f.ByteOrder.Uint32(relData[i:])
		info := f.ByteOrder.Uint32(relData[i+4:])
		symIdx := info >> 8
		relType := info & 0xff

		if symIdx == 0 || int(symIdx) > len(elfSyms) {
			continue
		}
		sym := elfSyms[symIdx-1]

		var rt RelocType
		switch relType {
		case 87:
			rt = RelocMOVWBrelNC
		case 88:
			rt = RelocMOVTBrel
		case 2:
			rt = RelocABS32
		default:
			continue
		}

		if strings.HasSuffix(sym.Name, moduleName) {
			continue
		}

		obj.Relocations = append(obj.Relocations, Relocation{
			Offset:      offset,
			Type:        rt,
			SymbolName:  sym.Name,
			SymbolValue: sym.Value,
		})
	}

	return obj, nil
}
