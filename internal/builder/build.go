// Package builder wires together the four builder stages (B1-B4) into the
// single pipeline the CLI drives: read an ELF32 relocatable object, emit
// and assemble trampoline source, link it back in, then encode the result
// as an Image.
package builder

import (
	"os"
	"path/filepath"

	"github.com/jetsetilly/cortexdl/errors"
	"github.com/jetsetilly/cortexdl/internal/asmgen"
	"github.com/jetsetilly/cortexdl/internal/elfreader"
	"github.com/jetsetilly/cortexdl/internal/image"
	"github.com/jetsetilly/cortexdl/internal/toolchain"
)

// Options configures a Build run. ModuleName is the symbol the reader
// treats as the module's own self-name; it is conventionally derived from
// the input object's base name.
type Options struct {
	ModuleName string
	AsmPath    string
	ObjPath    string
	LinkedPath string
	Driver     *toolchain.Driver
}

// DefaultOptions derives build paths from objPath, so a caller only has to
// name the input object and gets conventional names for every intermediate
// file.
func DefaultOptions(objPath string) Options {
	dir := filepath.Dir(objPath)
	base := filepath.Base(objPath)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]

	return Options{
		ModuleName: stem,
		AsmPath:    filepath.Join(dir, stem+"_trampoline.s"),
		ObjPath:    filepath.Join(dir, stem+"_trampoline.o"),
		LinkedPath: filepath.Join(dir, stem+"_linked.o"),
		Driver:     toolchain.NewDriver(),
	}
}

// Build runs B1 through B4 against the ELF32 relocatable object at
// objPath and returns the encoded Image bytes.
func Build(objPath string, opt Options) ([]byte, error) {
	obj, err := elfreader.Read(objPath, opt.ModuleName)
	if err != nil {
		return nil, err
	}

	asmSrc := asmgen.GenerateTrampolines(opt.ModuleName, obj.PublicFuncs)
	if err := os.WriteFile(opt.AsmPath, []byte(asmSrc), 0o644); err != nil {
		return nil, errors.Errorf(errors.AsmGenError, err)
	}

	if err := opt.Driver.Assemble(opt.AsmPath, opt.ObjPath); err != nil {
		return nil, err
	}

	if err := opt.Driver.Link([]string{objPath, opt.ObjPath}, opt.LinkedPath); err != nil {
		return nil, err
	}

	linked, err := elfreader.Read(opt.LinkedPath, opt.ModuleName)
	if err != nil {
		return nil, err
	}

	return image.Encode(opt.ModuleName, linked)
}
