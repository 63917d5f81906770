// Package asmgen generates the Thumb-2 trampoline assembly emitted by the
// builder (B2) and provides the same byte-level instruction encoders used
// by the loader's static and dynamic PLT synthesis (R4/R5), so that both
// sides of the image agree on exactly one encoding of each mnemonic.
//
// This system only ever needs about ten mnemonics, so a general-purpose
// assembler would be overkill.
package asmgen

// LdrPCRel encodes "ldr.w reg, [pc, #imm8]" (imm8 in bytes, must be a
// multiple of 4 and fit in 8 bits), matching the two-instruction idiom used
// by both PLT stub templates: load a register from a literal word that
// immediately follows the instruction pair.
func LdrPCRel(reg byte, imm8 byte) []byte {
	return []byte{0xdf, 0xf8, imm8, reg << 4}
}

// BW encodes "b.w imm24", a long unconditional branch with a signed,
// word-aligned 24-bit offset relative to the instruction.
func BW(imm24 int32) []byte {
	imm11 := uint16((imm24 >> 1) & 0x7ff)
	imm11H := byte(imm11 >> 8)
	imm11L := byte(imm11 & 0xff)

	imm10 := uint16((imm24 >> 12) & 0x3ff)
	imm10H := byte(imm10 >> 8)
	imm10L := byte(imm10 & 0xff)

	s := byte((imm24 >> 24) & 1)
	i1 := byte((imm24>>23)&1) ^ s ^ 1
	i2 := byte((imm24>>22)&1) ^ s ^ 1

	return []byte{
		imm10L,
		imm10H | (s << 2) | (0x1e << 3),
		imm11L,
		imm11H | (i2 << 3) | (i1 << 5) | 0x90,
	}
}

// DecodeBW is the inverse of BW: it recovers the signed imm24 offset a b.w
// instruction was built with, so callers that only have the installed bytes
// (no record of the offset passed to BW) can re-derive a branch target.
func DecodeBW(b []byte) int32 {
	s := uint32((b[1] >> 2) & 1)
	imm10 := uint32(b[1]&0x3)<<8 | uint32(b[0])
	imm11 := uint32(b[3]&0x7)<<8 | uint32(b[2])
	i2 := uint32((b[3] >> 3) & 1)
	i1 := uint32((b[3] >> 5) & 1)

	bit23 := i1 ^ s ^ 1
	bit22 := i2 ^ s ^ 1

	raw := s<<24 | bit23<<23 | bit22<<22 | imm10<<12 | imm11<<1
	if s == 1 {
		raw |= 0xfe000000
	}
	return int32(raw)
}

// Blx encodes the 4-byte "blx reg" form used when building dynamic PLT case
// blocks (R5).
func Blx(reg byte) []byte {
	return []byte{0x47, 0xf0, 0x00, reg}
}

// Bx encodes the 4-byte "bx reg" form used when building dynamic PLT case
// blocks (R5).
func Bx(reg byte) []byte {
	return []byte{0x47, 0xf0, 0x30, reg}
}

// Bx2 encodes the real 16-bit Thumb-1 "bx reg" instruction, the form baked
// into the manual-entry PLT stub template (NO_RECOV_FUNC_CALL): opcode
// 0100 0111 0 Rm 000, reg in {12 (r12), 14 (lr)} for that template.
func Bx2(reg byte) []byte {
	instr := uint16(0x4700) | uint16(reg)<<3
	return []byte{byte(instr), byte(instr >> 8)}
}

// CmpLrR12 encodes "cmp lr, r12".
func CmpLrR12() []byte {
	return []byte{0xe6, 0x45}
}

// Beq2 encodes "beq +2" (branch target = instr_addr+4+imm8*2): from offset
// 10 in a case node this lands exactly on offset 16 (case_body), skipping
// the 4-byte b.w at offset 12.
func Beq2() []byte {
	return []byte{0x01, 0xd0}
}

// Svc encodes "svc #0".
func Svc() []byte {
	return []byte{0x00, 0xdf}
}

// Nop encodes "nop".
func Nop() []byte {
	return []byte{0x00, 0xbf}
}
