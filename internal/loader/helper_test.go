package loader

import (
	"testing"

	"github.com/jetsetilly/cortexdl/internal/elfreader"
	"github.com/jetsetilly/cortexdl/internal/image"
	"github.com/jetsetilly/cortexdl/test"
)

// buildImage runs the object through the same Encode/Decode codec the real
// builder and loader share, so loader-package tests exercise the full
// Image wire format rather than poking at *image.Image fields directly.
func buildImage(t *testing.T, moduleName string, obj *elfreader.Object) *image.Image {
	t.Helper()

	buf, err := image.Encode(moduleName, obj)
	test.ExpectSuccess(t, err)

	img, err := image.Decode(buf)
	test.ExpectSuccess(t, err)

	return img
}

// singleModuleObject models a single exported function "test" taking a u8
// argument, plus three GLOBAL_X/GLOBAL_8/GLOBAL_Y data symbols.
func singleModuleObject() *elfreader.Object {
	return &elfreader.Object{
		PublicFuncs: []string{"test"},
		Symbols: []elfreader.Symbol{
			{Name: "test", Kind: elfreader.Exported, IsFunction: true, Address: 0},
			{Name: "GLOBAL_X", Kind: elfreader.Exported, IsFunction: false, Address: 16},
			{Name: "GLOBAL_8", Kind: elfreader.Exported, IsFunction: false, Address: 17},
			{Name: "GLOBAL_Y", Kind: elfreader.Exported, IsFunction: false, Address: 18},
		},
		Text: make([]byte, 16),
		Data: make([]byte, 8),
	}
}

// externSymbolsDefObject mirrors extern_symbols_1a: a module exporting a
// single function "adc".
func externSymbolsDefObject() *elfreader.Object {
	return &elfreader.Object{
		PublicFuncs: []string{"adc"},
		Symbols: []elfreader.Symbol{
			{Name: "adc", Kind: elfreader.Exported, IsFunction: true, Address: 0},
		},
		Text: make([]byte, 16),
	}
}

// externSymbolsCallObject mirrors extern_symbols_1: a module exporting
// "test" and referencing "adc" as an external, via an ABS32 relocation
// planted at text offset 4. The GOT-index word the toolchain would have
// embedded there (slot 0, this module's only relocation) is planted
// directly into Text, since that word is what the real assembler/linker
// pipeline (B2/B3, out of scope for this package) would have produced.
func externSymbolsCallObject() *elfreader.Object {
	text := make([]byte, 16)
	plantGOTIndex(text, 4, 0)

	return &elfreader.Object{
		PublicFuncs: []string{"test"},
		Symbols: []elfreader.Symbol{
			{Name: "test", Kind: elfreader.Exported, IsFunction: true, Address: 0},
			{Name: "adc", Kind: elfreader.External, IsFunction: true, Address: 0},
		},
		Relocations: []elfreader.Relocation{
			{Offset: 4, Type: elfreader.RelocABS32, SymbolName: "adc"},
		},
		Text: text,
	}
}

// plantGOTIndex writes g (the GOT slot index the builder would have
// planted at compile time) as a little-endian word at the given text
// offset, mirroring what B4's toolchain output embeds: the loader's
// relocation applier expects to find the slot index already sitting in
// .text, not the relocation's own offset.
func plantGOTIndex(text []byte, offset uint32, g uint32) {
	text[offset] = byte(g)
	text[offset+1] = byte(g >> 8)
	text[offset+2] = byte(g >> 16)
	text[offset+3] = byte(g >> 24)
}
