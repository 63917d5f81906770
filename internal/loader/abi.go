package loader

import (
	"github.com/jetsetilly/cortexdl/errors"
	"github.com/jetsetilly/cortexdl/internal/image"
)

// EntryByName returns the Thumb-tagged manual-entry PLT address of the
// exported function name in m, for firmware that obtains a function
// pointer directly. A mistyped or non-exported name is an error: the
// caller is expected to be firmware built against the same symbol names
// the module was built with.
func EntryByName(m *Module, name string) (uint32, error) {
	idx, ok := m.byName[name]
	if !ok {
		return 0, errors.Errorf(errors.SymbolNotFound, name)
	}
	sym := m.img.Symbols[idx]
	if sym.Kind != image.Exported || !sym.IsFunction {
		return 0, errors.Errorf(errors.SymbolNotFound, name)
	}
	return sym.Index1, nil
}

// Decoder converts the little-endian bytes of a data symbol into a T.
type Decoder[T any] func([]byte) T

// ValByName returns a decoded copy of the data symbol name from m's .data
// region. Returns an error if name is unknown or is not a data symbol.
func ValByName[T any](m *Module, name string, size int, decode Decoder[T]) (T, error) {
	var zero T

	idx, ok := m.byName[name]
	if !ok {
		return zero, errors.Errorf(errors.SymbolNotFound, name)
	}
	sym := m.img.Symbols[idx]
	if sym.IsFunction {
		return zero, errors.Errorf(errors.SymbolNotFound, name)
	}

	off := int(sym.Payload)
	if off < 0 || off+size > len(m.data) {
		return zero, errors.Errorf(errors.SymbolNotFound, name)
	}

	return decode(m.data[off : off+size]), nil
}
