// Package image implements the binary Image codec shared by the builder
// (encoder, B4) and the loader (decoder, R1): a self-describing, trusted
// byte stream of header, relocation table, global-functions table, symbol
// table, name pool, .text and .data.
package image

// SymbolKind is the 2-bit kind field stored in a symbol record's high
// nibble. The function-vs-data flag is carried as a separate explicit bit
// (Symbol.IsFunction) rather than inferred from the kind value.
type SymbolKind uint8

const (
	Local SymbolKind = iota
	Exported
	External
	Module
)

// Symbol is one entry of an Image's symbol table.
type Symbol struct {
	Kind       SymbolKind
	IsFunction bool
	Name       string

	// Payload is the address_payload field: the offset produced by the
	// builder (offset within .text for functions, offset within .data for
	// data, 0 for externals). The loader never rewrites it; the runtime PLT
	// addresses of an exported function go into Index1/Index2 instead.
	Payload uint32

	// Index1 and Index2 are populated by the loader's static PLT synthesis
	// (R4) for symbols that are exported functions of their own module:
	// Index1 is the Thumb-tagged manual-entry PLT address, Index2 the
	// Thumb-tagged cross-boundary PLT address.
	Index1 uint32
	Index2 uint32
}

// Relocation is one entry of an Image's relocation table: a location in
// .text holding a GOT slot index planted by the toolchain, paired with the
// symbol table index that slot should ultimately resolve to.
type Relocation struct {
	Offset      uint32
	SymbolIndex uint32
}

// Image is the fully decoded representation of the binary Image format.
// Text and Data alias the underlying buffer passed to Decode; the loader's
// layout step (R2) is responsible for deciding whether Text stays
// flash-resident or is copied.
type Image struct {
	NFuncs  uint32
	NReloc  uint32
	LSymT   uint32
	LText   uint32
	LData   uint32
	LBss    uint32
	NSymbol uint32

	Relocations []Relocation
	GlobalFuncs []uint32
	Symbols     []Symbol

	Text []byte
	Data []byte
}
