package loader

import (
	"encoding/binary"

	"github.com/jetsetilly/cortexdl/errors"
	"github.com/jetsetilly/cortexdl/internal/asmgen"
	"github.com/jetsetilly/cortexdl/internal/faults"
)

// ExceptionFrame is the subset of the simulated SVCall exception frame the
// naked trampoline hands to the handler (the stack-pointer/EXC_RETURN dance
// itself is out of scope for a portable library, see DESIGN.md): LR, the
// foreign caller's return address, and PC, the address of the "svc #0"
// instruction that trapped.
type ExceptionFrame struct {
	LR uint32
	PC uint32
}

// caseNodeLen is the footprint of one case node: it always fits inside a
// single PLT slot (crossSlotLen bytes), which is what lets SVC overwrite a
// slot or a relocated default in place without growing it.
const caseNodeLen = crossSlotLen

// Case node layout (see writeCaseNode for the byte-exact encoding):
//
//	off 0  nop; nop
//	off 4  ldr r12, [pc, #36]      -> literal lrLit      (witnessed LR)
//	off 8  cmp lr, r12
//	off 10 beq +2                  (skip the b.w on match)
//	off 12 b.w <relocated default>
//	off 16 ldr r9,  [pc, #28]      -> literal defBaseLit
//	off 20 ldr r12, [pc, #28]      -> literal funcEntryLit
//	off 24 blx r12
//	off 28 ldr r9,  [pc, #24]      -> literal callBaseLit
//	off 32 ldr r12, [pc, #8]       -> literal lrLit  (reused)
//	off 36 bx r12
//	off 40 nop                     (alignment padding before literal pool)
//	off 44 lrLit
//	off 48 defBaseLit
//	off 52 funcEntryLit
//	off 56 callBaseLit
const (
	caseLRLitOff     = 44
	caseDefBaseOff   = 48
	caseFuncEntryOff = 52
	caseCallBaseOff  = 56
)

// SVC implements the SVCall handler (R5). It is called once per distinct
// (caller site, callee) pair: the first invocation through a cross-boundary
// PLT slot always traps here, because the slot's initial body is a bare
// "svc #0"; every subsequent dispatch from the same call site matches the
// case this installs and runs to completion with no further exception.
//
// frame.PC addresses the default body that trapped — either the slot's
// original location or a previously relocated default further down the
// chain. SVC must not itself raise SVC and must not call EntryByName; it
// only manipulates RAM-resident PLT bytes and the heap.
func (l *Loader) SVC(frame ExceptionFrame) error {
	body := l.heap.at(frame.PC, crossSlotLen)

	defBase, funcEntry, ok := readDefaultBody(body)
	if !ok {
		return errors.Errorf(errors.SVCChainExtendError, frame.PC)
	}

	callerBase, found := l.registry.find(frame.LR)
	if !found {
		// Unknown LR is tolerated: behavior on return is undefined but the
		// handler itself does not fault.
		l.faults.NewEntry("svc fault from unregistered caller", faults.SVCUnknownCaller, frame.LR, frame.PC)
	}

	newDefaultAddr, newDefaultRegion, err := l.heap.alloc(crossSlotLen)
	if err != nil {
		return err
	}
	copy(newDefaultRegion, body)

	writeCaseNode(body, frame.PC, frame.LR, defBase, funcEntry, callerBase, newDefaultAddr)

	return nil
}

// readDefaultBody reports whether slot currently holds an un-grown default
// body ("svc #0; nop; .word got_base; .word func_entry; ..."), returning
// its two embedded words. A slot that has already been extended with a
// case node fails this check (its first halfword is "nop", not "svc").
func readDefaultBody(slot []byte) (gotBase, funcEntry uint32, ok bool) {
	if len(slot) < 12 || slot[0] != asmgen.Svc()[0] || slot[1] != asmgen.Svc()[1] {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint32(slot[4:8]), binary.LittleEndian.Uint32(slot[8:12]), true
}

// writeCaseNode overwrites slot (crossSlotLen bytes, living at selfAddr) in
// place with a new case: on a witnessed-LR match it swaps R9 to defBase,
// calls funcEntry, swaps R9 back to callerBase and returns to LR; on
// mismatch it falls through via b.w to relocatedDefault, which is always a
// byte-for-byte copy of whatever default body selfAddr held a moment ago.
func writeCaseNode(slot []byte, selfAddr, lr, defBase, funcEntry, callerBase, relocatedDefault uint32) {
	w := func(off int, b []byte) { copy(slot[off:], b) }

	w(0, asmgen.Nop())
	w(2, asmgen.Nop())
	w(4, asmgen.LdrPCRel(12, caseLRLitOff-8))
	w(8, asmgen.CmpLrR12())
	w(10, asmgen.Beq2())
	w(12, asmgen.BW(int32(relocatedDefault)-int32(selfAddr+12+4)))
	w(16, asmgen.LdrPCRel(9, caseDefBaseOff-20))
	w(20, asmgen.LdrPCRel(12, caseFuncEntryOff-24))
	w(24, asmgen.Blx(12))
	w(28, asmgen.LdrPCRel(9, caseCallBaseOff-32))
	w(32, asmgen.LdrPCRel(12, caseLRLitOff-36))
	w(36, asmgen.Bx(12))
	w(40, asmgen.Nop())

	binary.LittleEndian.PutUint32(slot[caseLRLitOff:], lr)
	binary.LittleEndian.PutUint32(slot[caseDefBaseOff:], defBase)
	binary.LittleEndian.PutUint32(slot[caseFuncEntryOff:], funcEntry)
	binary.LittleEndian.PutUint32(slot[caseCallBaseOff:], callerBase)
}

// ReadCase parses a previously installed case node back into its four
// fields, for tests that want to assert on the installed chain without
// re-deriving the byte layout. isCase is false if slot still holds an
// un-grown default body.
func ReadCase(slot []byte) (lr, defBase, funcEntry, callerBase uint32, isCase bool) {
	if len(slot) < caseCallBaseOff+4 || slot[0] != asmgen.Nop()[0] || slot[1] != asmgen.Nop()[1] {
		return 0, 0, 0, 0, false
	}
	lr = binary.LittleEndian.Uint32(slot[caseLRLitOff:])
	defBase = binary.LittleEndian.Uint32(slot[caseDefBaseOff:])
	funcEntry = binary.LittleEndian.Uint32(slot[caseFuncEntryOff:])
	callerBase = binary.LittleEndian.Uint32(slot[caseCallBaseOff:])
	return lr, defBase, funcEntry, callerBase, true
}

// ReadCaseDefaultTarget decodes the relocated-default address a case node's
// fallback b.w (offset 12) branches to on a witnessed-LR mismatch, given the
// node's own address selfAddr. It inverts the same offset arithmetic
// writeCaseNode used to encode that branch.
func ReadCaseDefaultTarget(slot []byte, selfAddr uint32) uint32 {
	off := asmgen.DecodeBW(slot[12:16])
	return uint32(int32(selfAddr+12+4) + off)
}
