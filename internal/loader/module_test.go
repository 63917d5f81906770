package loader

import (
	"testing"

	"github.com/jetsetilly/cortexdl/test"
)

func TestLoadAllocatesDistinctRegions(t *testing.T) {
	img := buildImage(t, "single", singleModuleObject())

	l := NewLoader()
	m, err := l.Load(img, 0x08000000)
	test.ExpectSuccess(t, err)

	test.Equate(t, m.TextBegin, uint32(0x08000000))
	test.Equate(t, m.TextEnd, uint32(0x08000000+16))

	if m.GotBegin == m.DataBegin || m.DataBegin == m.PLTBegin || m.GotBegin == m.PLTBegin {
		t.Fatalf("GOT/Data/PLT regions must not overlap: got=%#x data=%#x plt=%#x", m.GotBegin, m.DataBegin, m.PLTBegin)
	}

	if m.GotBegin%4 != 0 || m.DataBegin%4 != 0 || m.PLTBegin%4 != 0 {
		t.Fatalf("every allocated region must be 4-byte aligned: got=%#x data=%#x plt=%#x", m.GotBegin, m.DataBegin, m.PLTBegin)
	}
}

func TestLoadRegistersLRRange(t *testing.T) {
	img := buildImage(t, "single", singleModuleObject())

	l := NewLoader()
	m, err := l.Load(img, 0x08000000)
	test.ExpectSuccess(t, err)

	base, found := l.registry.find(m.TextBegin)
	test.ExpectSuccess(t, found)
	test.Equate(t, base, m.GotBegin)

	_, found = l.registry.find(m.TextEnd)
	test.ExpectFailure(t, found)
}

func TestLoadZeroFuncsProducesEmptyPLT(t *testing.T) {
	obj := externSymbolsDefObject()
	obj.PublicFuncs = nil
	obj.Symbols[0].Kind = 0 // downgrade "adc" to Local: no exported functions at all
	img := buildImage(t, "no-funcs", obj)

	l := NewLoader()
	m, err := l.Load(img, 0x08000000)
	test.ExpectSuccess(t, err)

	test.Equate(t, len(m.plt), 0)

	_, err = EntryByName(m, "adc")
	test.ExpectFailure(t, err)
}
