package asmgen

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// WrapName derives a stable, collision-resistant label for a trampoline
// function: the first 8 hex characters of the MD5 of name, prefixed and
// suffixed so the result stays a legal assembler symbol.
func WrapName(name string) string {
	sum := md5.Sum([]byte(name))
	hash8 := hex.EncodeToString(sum[:])[:8]
	return fmt.Sprintf("__%s__%s", hash8, name)
}

// GenerateTrampolines emits Thumb-2 assembly source for the module named
// moduleName, with one prologue block per entry in funcs and a single
// shared tail. The movw/movt pairs loading r11 and r9 are emitted as literal
// zero immediates, matching the reference toolchain's own templates: the
// assembled .text carries them unpatched all the way through the image
// (see image.Encode), the same as the source templates this is derived
// from. r11 and r9 only ever take on real values on the loader side, via
// the cross-module call path the PLT (R4/R5) synthesizes, not by rewriting
// these two instructions in place.
func GenerateTrampolines(moduleName string, funcs []string) string {
	var b strings.Builder

	b.WriteString("    .syntax unified\n")
	b.WriteString("    .arch armv7-m\n\n")
	b.WriteString("    .text\n")
	b.WriteString("    .thumb\n")

	wrappedModule := WrapName(moduleName)

	for _, f := range funcs {
		label := WrapName(f)
		fmt.Fprintf(&b, `
.thumb_func
.align 1
.globl %s
.type %s, %%function
.extern %s
%s:
push    {r9, lr}
movw    r11, #0
movt    r11, #0
b       %s
.size   %s, . - %s
`, label, label, wrappedModule, label, wrappedModule, label, label)
	}

	fmt.Fprintf(&b, `
.thumb_func
.align 1
.globl %s
.type %s, %%function
%s:
movw    r9, #0
movt    r9, #0
blx     r11
pop     {r9, pc}
.size   %s, . - %s
`, wrappedModule, wrappedModule, wrappedModule, wrappedModule, wrappedModule)

	b.WriteString("\n    .end\n")

	return b.String()
}
