// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package link combines relocatable object modules into a single
// executable image.
package link

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/beevik/edasm/prodos"
	"github.com/beevik/edasm/rel"
)

// Errors reported by the linker wrap one of these or rel.ErrDecode.
var (
	ErrUnresolvedExternal = errors.New("unresolved external symbol")
	ErrDuplicateSymbol    = errors.New("duplicate symbol")
	ErrImageTooLarge      = errors.New("image too large")
)

// DefaultOrigin is the load address used when none is requested.
const DefaultOrigin = 0x0800

// Options control a link.
type Options struct {
	Origin  *uint16   // load address of the first module, or nil for DefaultOrigin
	Names   []string  // module names used in messages, in input order
	Verbose bool      // trace the link to Log
	Log     io.Writer // destination of verbose output, or nil for stdout
}

// A Module describes where one input module was placed in the image.
type Module struct {
	Name    string
	Base    uint16 // load address of the module's first byte
	Length  int    // length of the module's code
	Entries []rel.Symbol
}

// Result describes the outcome of a link.
type Result struct {
	OK         bool
	Errors     []string
	Warnings   []string
	Errs       []error           // the errors, for use with errors.Is
	Executable []byte            // linked image, if OK
	Modules    []Module          // load map, in load order
	Symbols    map[string]uint16 // absolute value of every entry point
	Attributes prodos.Attributes // ProDOS file type and aux type
}

// Err returns the link's errors joined into one, or nil if the link
// succeeded.
func (r *Result) Err() error {
	return errors.Join(r.Errs...)
}

// WriteMap writes the load map and the global symbol table.
func (r *Result) WriteMap(w io.Writer) error {
	for _, m := range r.Modules {
		if _, err := fmt.Fprintf(w, "$%04X-$%04X  %s\n", m.Base, int(m.Base)+max(m.Length, 1)-1, m.Name); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(r.Symbols))
	for name := range r.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%-16s $%04X\n", name, r.Symbols[name]); err != nil {
			return err
		}
	}
	return nil
}

// The linker is a state object used during a single link.
type linker struct {
	origin   int
	modules  []*module
	symbols  map[string]uint16 // entry point -> absolute value
	owner    map[string]string // entry point -> defining module
	out      io.Writer
	verbose  bool
	errors   []error
	warnings []string
}

type module struct {
	name string
	obj  *rel.Object
	base int
}

// Link decodes the object modules, lays them out consecutively starting at
// the origin, resolves external references between them and returns the
// combined image.
func Link(objects [][]byte, opts Options) *Result {
	l := &linker{
		origin:  DefaultOrigin,
		symbols: make(map[string]uint16),
		owner:   make(map[string]string),
		out:     opts.Log,
		verbose: opts.Verbose,
	}
	if opts.Origin != nil {
		l.origin = int(*opts.Origin)
	}
	if l.out == nil {
		l.out = os.Stdout
	}

	l.logSection("Decoding modules")
	for i, b := range objects {
		name := fmt.Sprintf("module %d", i+1)
		if i < len(opts.Names) {
			name = opts.Names[i]
		}
		obj, err := rel.Decode(b)
		if err != nil {
			l.addError(fmt.Errorf("%s: %w", name, err))
			continue
		}
		l.modules = append(l.modules, &module{name: name, obj: obj})
	}
	if len(objects) == 0 {
		l.addError(errors.New("no modules to link"))
	}

	// Duplicate and unresolved symbols are reported together before the
	// link gives up.
	if len(l.errors) == 0 {
		l.assignBases()
	}
	if len(l.errors) == 0 {
		l.defineSymbols()
		l.resolveExterns()
	}
	if len(l.errors) == 0 {
		l.applyRelocation()
	}

	return l.result()
}

// LinkFiles reads object modules from files and links them.
func LinkFiles(paths []string, opts Options) (*Result, error) {
	objects := make([][]byte, len(paths))
	for i, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		objects[i] = b
	}
	if opts.Names == nil {
		for _, p := range paths {
			opts.Names = append(opts.Names, filepath.Base(p))
		}
	}
	return Link(objects, opts), nil
}

func (l *linker) assignBases() {
	l.logSection("Assigning load addresses")
	base := l.origin
	for _, m := range l.modules {
		m.base = base
		base += len(m.obj.Code)
		l.log("$%04X  %-16s %d bytes", m.base, m.name, len(m.obj.Code))
		if len(m.obj.Code) == 0 {
			l.addWarning("%s contains no code", m.name)
		}
	}
	if base > 0x10000 {
		l.addError(fmt.Errorf("%w: %d bytes loaded at $%04X pass $FFFF", ErrImageTooLarge, base-l.origin, l.origin))
	}
}

func (l *linker) defineSymbols() {
	l.logSection("Defining entry points")
	for _, m := range l.modules {
		for _, s := range m.obj.Symbols {
			if first, ok := l.owner[s.Name]; ok {
				l.addError(fmt.Errorf("%w '%s' in %s (first defined in %s)", ErrDuplicateSymbol, s.Name, m.name, first))
				continue
			}
			v := uint16(int(s.Value) + m.base)
			l.symbols[s.Name] = v
			l.owner[s.Name] = m.name
			l.log("%-16s $%04X  %s", s.Name, v, m.name)
		}
	}
}

func (l *linker) resolveExterns() {
	seen := make(map[string]bool)
	for _, m := range l.modules {
		for _, name := range m.obj.Header.ExternalRefs {
			if _, ok := l.symbols[name]; ok || seen[name] {
				continue
			}
			seen[name] = true
			l.addError(fmt.Errorf("%w '%s' referenced by %s", ErrUnresolvedExternal, name, m.name))
		}
	}
}

func (l *linker) applyRelocation() {
	l.logSection("Applying relocations")
	for _, m := range l.modules {
		code := m.obj.Code
		for _, r := range m.obj.Relocations {
			off := int(r.Offset)

			var old int
			if r.Word {
				old = int(binary.LittleEndian.Uint16(code[off:]))
			} else {
				old = int(code[off])
			}

			// External fields hold an addend; internal fields hold an
			// offset from the start of the module.
			v := old + m.base
			if r.IsExternal() {
				v = old + int(l.symbols[r.Symbol])
			}
			if r.Relative {
				v -= m.base + off
			}

			if r.Word {
				binary.LittleEndian.PutUint16(code[off:], uint16(v))
			} else {
				code[off] = byte(v)
			}
			l.log("%s+$%04X: $%04X -> $%04X %s", m.name, off, old, v&0xffff, r.Symbol)
		}
	}
}

// Build the result of the link.
func (l *linker) result() *Result {
	r := &Result{
		OK:         len(l.errors) == 0,
		Errs:       l.errors,
		Warnings:   l.warnings,
		Symbols:    l.symbols,
		Attributes: prodos.Attributes{FileType: prodos.TypeSYS, AuxType: uint16(l.origin)},
	}
	for _, e := range l.errors {
		r.Errors = append(r.Errors, e.Error())
	}

	for _, m := range l.modules {
		r.Modules = append(r.Modules, Module{
			Name:    m.name,
			Base:    uint16(m.base),
			Length:  len(m.obj.Code),
			Entries: m.obj.Symbols,
		})
	}

	if r.OK {
		r.Executable = []byte{}
		for _, m := range l.modules {
			r.Executable = append(r.Executable, m.obj.Code...)
		}
	}
	return r
}

// Append an error to the linker's error state.
func (l *linker) addError(err error) {
	l.errors = append(l.errors, err)
	l.log("ERROR: %v", err)
}

// Append a warning to the linker's warning state.
func (l *linker) addWarning(format string, args ...any) {
	w := fmt.Sprintf(format, args...)
	l.warnings = append(l.warnings, w)
	l.log("Warning: %s", w)
}

// In verbose mode, log a string to the output.
func (l *linker) log(format string, args ...any) {
	if l.verbose {
		fmt.Fprintf(l.out, format, args...)
		fmt.Fprintf(l.out, "\n")
	}
}

// In verbose mode, log a section header to the output.
func (l *linker) logSection(name string) {
	if l.verbose {
		fmt.Fprintf(l.out, "-- %s --\n", name)
	}
}
