package image

import (
	"encoding/binary"

	"github.com/jetsetilly/cortexdl/errors"
)

const headerWords = 7

// Decode walks an Image byte stream, advancing a cursor through each sized
// region in turn. Text and Data alias buf rather than copying it: .text
// stays addressable at its image position, which is what lets the loader
// treat it as flash-resident.
func Decode(buf []byte) (*Image, error) {
	if len(buf) < headerWords*4 {
		return nil, errors.Errorf(errors.ImageTruncated)
	}

	c := cursor{buf: buf}

	img := &Image{
		NFuncs:  c.u32(),
		NReloc:  c.u32(),
		LSymT:   c.u32(),
		LText:   c.u32(),
		LData:   c.u32(),
		LBss:    c.u32(),
		NSymbol: c.u32(),
	}
	if c.err != nil {
		return nil, c.err
	}

	img.Relocations = make([]Relocation, img.NReloc)
	for i := range img.Relocations {
		img.Relocations[i] = Relocation{Offset: c.u32(), SymbolIndex: c.u32()}
	}

	img.GlobalFuncs = make([]uint32, img.NFuncs)
	for i := range img.GlobalFuncs {
		img.GlobalFuncs[i] = c.u32()
	}
	if c.err != nil {
		return nil, c.err
	}

	symtBegin := c.pos
	symRaw := make([]struct{ word0, payload uint32 }, img.NSymbol)
	for i := range symRaw {
		symRaw[i].word0 = c.u32()
		symRaw[i].payload = c.u32()
	}
	if c.err != nil {
		return nil, c.err
	}

	names := c.bytes(int(img.LSymT) - (c.pos - symtBegin))
	if c.err != nil {
		return nil, c.err
	}

	img.Symbols = make([]Symbol, img.NSymbol)
	for i, raw := range symRaw {
		kindBits := raw.word0 >> 28
		nameOffset := raw.word0 & 0x0fffffff

		sym := Symbol{
			Kind:       SymbolKind(kindBits & 3),
			IsFunction: kindBits&4 != 0,
			Payload:    raw.payload,
		}
		if sym.Kind == Exported || sym.Kind == External {
			sym.Name = cString(names, nameOffset)
		}
		img.Symbols[i] = sym
	}

	img.Text = c.bytes(int(img.LText))
	img.Data = c.bytes(int(img.LData))
	if c.err != nil {
		return nil, c.err
	}

	for _, r := range img.Relocations {
		if r.SymbolIndex >= img.NSymbol {
			return nil, errors.Errorf(errors.ImageDecodeError, "relocation symbol index out of range")
		}
	}
	for _, g := range img.GlobalFuncs {
		if g >= img.NSymbol {
			return nil, errors.Errorf(errors.ImageDecodeError, "global function symbol index out of range")
		}
	}

	return img, nil
}

// cursor is a bounds-checked reader over an Image byte slice. Once err is
// set, every further read is a no-op so callers can defer the single check
// to the end of a run of reads.
type cursor struct {
	buf []byte
	pos int
	err error
}

func (c *cursor) u32() uint32 {
	if c.err != nil {
		return 0
	}
	if c.pos+4 > len(c.buf) {
		c.err = errors.Errorf(errors.ImageTruncated)
		return 0
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v
}

func (c *cursor) bytes(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.pos+n > len(c.buf) {
		c.err = errors.Errorf(errors.ImageTruncated)
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

func cString(buf []byte, offset uint32) string {
	if int(offset) >= len(buf) {
		return ""
	}
	end := int(offset)
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	return string(buf[offset:end])
}
