// Package toolchain drives the two opaque subprocesses the builder depends
// on: a cross-assembler producing an auxiliary object from the generated
// trampoline source, and a linker merging that object with the original one
// into a single relocatable ELF. Neither subprocess's internals are this
// package's concern; a non-zero exit is simply fatal to the build.
package toolchain

import (
	"bytes"
	"os/exec"

	"github.com/jetsetilly/cortexdl/errors"
	"github.com/jetsetilly/cortexdl/logger"
)

// Driver names the two external executables and the linker script the
// builder depends on. The zero value names no executables; NewDriver fills
// in the defaults noted below for a thumbv7em-none-eabi toolchain.
type Driver struct {
	Assembler  string // NewDriver: "clang"
	Linker     string // NewDriver: "ld.lld"
	Target     string // NewDriver: "thumbv7em-none-eabi"
	LinkScript string // NewDriver: "code_before_data.ld"
}

// NewDriver returns a Driver configured with conventional toolchain names
// for a thumbv7em-none-eabi target.
func NewDriver() *Driver {
	return &Driver{
		Assembler:  "clang",
		Linker:     "ld.lld",
		Target:     "thumbv7em-none-eabi",
		LinkScript: "code_before_data.ld",
	}
}

// Assemble invokes the cross-assembler on asmPath, producing objPath.
func (d *Driver) Assemble(asmPath, objPath string) error {
	args := []string{"-c", asmPath, "-o", objPath, "--target=" + d.Target}
	return d.run(d.Assembler, args)
}

// Link merges objs (original object plus assembled trampoline object) into
// a single linked ELF at outPath, preserving relocations and tolerating
// unresolved externals: cross-module symbols stay unresolved until the
// loader's relocation applier runs on the device.
func (d *Driver) Link(objs []string, outPath string) error {
	args := []string{
		"-T", d.LinkScript,
		"--unresolved-symbols=ignore-in-object-files",
		"--emit-relocs",
	}
	args = append(args, objs...)
	args = append(args, "-o", outPath)
	return d.run(d.Linker, args)
}

func (d *Driver) run(name string, args []string) error {
	cmd := exec.Command(name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Logf("toolchain", "running %s %v", name, args)

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.Error); ok {
			return errors.Errorf(errors.ToolchainNotFound, name)
		}
		return errors.Errorf(errors.ToolchainExitError, name, stderr.String())
	}

	return nil
}
