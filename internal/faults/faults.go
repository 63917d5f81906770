// This file is part of cortexdl.
//
// cortexdl is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// cortexdl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.

// Package faults records the loader's non-fatal diagnostic events: the
// things a device-side loader wants to remember (and rate-limit) without
// aborting the load, such as an external symbol no dependency exports, or an
// SVC trap whose caller lies outside every registered module range.
package faults

import (
	"fmt"
	"io"
)

// Category classifies the approximate reason for a loader fault.
type Category string

// List of valid Category values.
const (
	UnresolvedSymbol Category = "unresolved symbol"
	SVCUnknownCaller Category = "svc unknown caller"
)

// Entry is a single entry in the fault log.
type Entry struct {
	Category Category

	// description of the event that triggered the fault
	Event string

	// addresses related to the fault: typically the caller's address and
	// the address (or symbol-derived value) being accessed or resolved
	InstructionAddr uint32
	AccessAddr      uint32

	// number of times this specific fault has been seen
	Count int
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %s: %08x (caller: %08x)", e.Category, e.Event, e.AccessAddr, e.InstructionAddr)
}

// Faults records loader events that are "illegal" or noteworthy but not
// immediately fatal.
type Faults struct {
	// entries are keyed by concatenation of InstructionAddr and AccessAddr
	// expressed as a 16 character string
	entries map[string]*Entry

	// all the events in order of their first appearance. the Count field in
	// the Entry can be used to see if that entry was seen more than once
	// *after* the first appearance
	Log []*Entry
}

// NewFaults creates an empty fault log.
func NewFaults() Faults {
	return Faults{
		entries: make(map[string]*Entry),
	}
}

// Clear removes every entry from the fault log.
func (flt *Faults) Clear() {
	clear(flt.entries)
	flt.Log = flt.Log[:0]
}

// WriteLog writes the list of faults in the order they were added.
func (flt Faults) WriteLog(w io.Writer) {
	for _, e := range flt.Log {
		w.Write([]byte(e.String()))
		w.Write([]byte("\n"))
	}
}

// NewEntry adds a new entry to the fault log, or increments the count of a
// matching existing entry.
func (flt *Faults) NewEntry(event string, category Category, instructionAddr uint32, accessAddr uint32) {
	key := fmt.Sprintf("%08x%08x", instructionAddr, accessAddr)

	e, found := flt.entries[key]
	if !found {
		e = &Entry{
			Category:        category,
			Event:           event,
			InstructionAddr: instructionAddr,
			AccessAddr:      accessAddr,
		}

		flt.entries[key] = e
		flt.Log = append(flt.Log, e)
	}

	e.Count++
}
