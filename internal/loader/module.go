package loader

import (
	"github.com/jetsetilly/cortexdl/internal/faults"
	"github.com/jetsetilly/cortexdl/internal/image"
)

// Module is a loaded Image: the flash-resident .text region at its given
// base address, plus the RAM regions allocated for its GOT, Data and PLT.
type Module struct {
	img *image.Image

	TextBegin uint32
	TextEnd   uint32

	GotBegin  uint32
	DataBegin uint32
	PLTBegin  uint32

	got  []byte
	data []byte
	plt  []byte

	byName map[string]int

	// Faults records non-fatal diagnostics encountered while loading and
	// resolving this module (unresolved externals).
	Faults faults.Faults
}

// Loader owns the simulated RAM heap and the global LR-range registry
// shared by every module it loads.
type Loader struct {
	heap     *heap
	registry *registry

	// faults records SVC-handler-level diagnostics that are not tied to a
	// single module (an unrecognised LR can't be attributed to a caller).
	faults faults.Faults
}

// NewLoader returns a Loader with a fresh simulated heap and an empty
// LR-range registry.
func NewLoader() *Loader {
	return &Loader{heap: newHeap(), registry: newRegistry(), faults: faults.NewFaults()}
}

// Faults returns the SVC-handler-level fault log (unresolved LRs observed
// by the dynamic PLT handler across every module this Loader has loaded).
func (l *Loader) Faults() faults.Faults {
	return l.faults
}

// Load allocates a module's GOT, Data and PLT regions and synthesizes its
// static PLT (R1, R2, R4), leaving relocations unresolved. textBase is the
// in-place flash address of img.Text.
func (l *Loader) Load(img *image.Image, textBase uint32) (*Module, error) {
	m := &Module{
		img:       img,
		TextBegin: textBase,
		TextEnd:   textBase + img.LText,
		byName:    map[string]int{},
		Faults:    faults.NewFaults(),
	}

	for i, s := range img.Symbols {
		if s.Name != "" {
			m.byName[s.Name] = i
		}
	}

	gotBase, gotRegion, err := l.heap.alloc(int(img.NReloc) * 4)
	if err != nil {
		return nil, err
	}
	m.GotBegin = gotBase
	m.got = gotRegion

	dataBase, dataRegion, err := l.heap.alloc(int(img.LData))
	if err != nil {
		return nil, err
	}
	m.DataBegin = dataBase
	m.data = dataRegion
	copy(m.data, img.Data)

	if err := l.synthesizePLT(m); err != nil {
		return nil, err
	}

	l.registry.add(m.TextBegin, m.TextEnd, m.GotBegin)

	return m, nil
}
