// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements a two-pass 6502/65C02 assembler in the style of
// the Apple II Editor/Assembler. It produces either absolute machine code
// or a relocatable module that the link package can combine with others.
package asm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/edasm/cpu"
	"github.com/beevik/edasm/prodos"
	"github.com/beevik/edasm/rel"
)

// Options control an assembly.
type Options struct {
	Origin      *uint16   // initial program counter, or nil for $0000
	CPU         string    // "6502" or "65C02"; empty selects 65C02
	Relocatable bool      // produce a REL module instead of absolute code
	Listing     bool      // produce a listing
	Verbose     bool      // trace both passes to Log
	Log         io.Writer // destination of verbose output, or nil for stdout
}

// Result describes the outcome of an assembly. Artifacts are returned
// even when assembly fails, holding whatever was produced.
type Result struct {
	OK          bool
	Errors      []string // formatted diagnostics
	Warnings    []string // formatted warnings
	Diagnostics []*Error // the errors, for use with errors.Is
	Artifacts   *Artifacts
}

// Err returns the assembly's errors as an ErrorList, or nil if assembly
// succeeded.
func (r *Result) Err() error {
	if r.OK {
		return nil
	}
	if len(r.Diagnostics) == 0 {
		return ErrorList{{Err: ErrSyntax, Msg: "assembly failed"}}
	}
	return ErrorList(r.Diagnostics)
}

// Artifacts holds the products of an assembly.
type Artifacts struct {
	ObjectBytes []byte            // machine code or an encoded REL module
	Listing     string            // listing, if requested
	Symbols     *SymbolTable      // every symbol seen during assembly
	Attributes  prodos.Attributes // ProDOS file type and aux type
	Relocatable bool              // ObjectBytes holds a REL module
	Object      *rel.Object       // the REL module, if relocatable
	Origin      uint16            // address of the first byte of code
}

// The assembler holds the state shared by both passes of one assembly.
type assembler struct {
	opts     Options
	instSet  *cpu.InstructionSet // instructions on the requested CPU
	symbols  *SymbolTable        // symbols defined and referenced so far
	reloc    bool                // producing a relocatable module
	out      io.Writer           // destination of verbose output
	verbose  bool                // verbose output
	errors   []*Error            // errors encountered during assembly
	warnings []*Error            // warnings encountered during assembly
}

// Assemble assembles source code into machine code.
func Assemble(src string, opts Options) *Result {
	a := &assembler{
		opts:    opts,
		symbols: NewSymbolTable(),
		out:     opts.Log,
		verbose: opts.Verbose,
	}
	if a.out == nil {
		a.out = os.Stdout
	}

	arch := cpu.CMOS
	if opts.CPU != "" {
		var err error
		if arch, err = cpu.ParseArchitecture(opts.CPU); err != nil {
			a.addError(0, fmt.Errorf("%w: %v", ErrSyntax, err))
			return a.result(nil, nil)
		}
	}
	a.instSet = cpu.GetInstructionSet(arch)

	lines := ParseSource(src)
	a.reloc = opts.Relocatable || hasDirective(lines, dirREL)

	// Pass 2 runs only if pass 1 found no errors.
	p1 := a.pass1(lines)
	if len(a.errors) > 0 {
		return a.result(p1, nil)
	}
	p2 := a.pass2(p1)
	return a.result(p1, p2)
}

// AssembleFile reads a file containing assembly code and assembles it.
func AssembleFile(path string, opts Options) (*Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Assemble(string(b), opts), nil
}

// Build the result of an assembly from the output of whichever passes ran.
func (a *assembler) result(p1 *pass1Result, p2 *pass2Result) *Result {
	art := &Artifacts{
		Symbols:     a.symbols,
		Relocatable: a.reloc,
	}

	if p1 != nil {
		art.Origin = uint16(p1.origin)
		art.Attributes = prodos.Attributes{FileType: prodos.TypeBIN, AuxType: art.Origin}
		if a.reloc {
			art.Attributes.FileType = prodos.TypeREL
		}
	}

	if p2 != nil {
		art.ObjectBytes = p2.code
		if a.opts.Listing {
			art.Listing = p2.listing.String()
		}
		if a.reloc {
			art.Object = rel.NewObject(p2.code, p2.relocs, p2.symbols)
			if len(a.errors) == 0 {
				b, err := rel.Encode(art.Object)
				if err != nil {
					a.addError(0, err)
				} else {
					art.ObjectBytes = b
				}
			}
		}
		a.log("Code: %d bytes, %d relocations, %d entry points", len(p2.code), len(p2.relocs), len(p2.symbols))
	}

	r := &Result{
		OK:          len(a.errors) == 0,
		Diagnostics: a.errors,
		Artifacts:   art,
	}
	for _, e := range a.errors {
		r.Errors = append(r.Errors, e.Error())
	}
	for _, w := range a.warnings {
		r.Warnings = append(r.Warnings, w.Error())
	}
	return r
}

// Return the program counter at the start of each pass.
func (a *assembler) startPC() int {
	if a.opts.Origin != nil {
		return int(*a.opts.Origin)
	}
	return 0
}

// Report whether any line uses the directive.
func hasDirective(lines []SourceLine, d directive) bool {
	for i := range lines {
		if lookupDirective(lines[i].Mnemonic) == d {
			return true
		}
	}
	return false
}

// Append an error to the assembler's error state.
func (a *assembler) addError(line int, err error) {
	e := &Error{Line: line, Err: err, Msg: err.Error()}
	a.errors = append(a.errors, e)
	a.log("ERROR: %s", e)
}

// Append a warning to the assembler's warning state.
func (a *assembler) addWarning(line int, format string, args ...any) {
	w := &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
	a.warnings = append(a.warnings, w)
	a.log("Warning: %s", w)
}

// In verbose mode, log a string to the output.
func (a *assembler) log(format string, args ...any) {
	if a.verbose {
		fmt.Fprintf(a.out, format, args...)
		fmt.Fprintf(a.out, "\n")
	}
}

// In verbose mode, log a string and its associated line
// of assembly code.
func (a *assembler) logLine(sl *SourceLine, format string, args ...any) {
	if a.verbose {
		detail := fmt.Sprintf(format, args...)
		fmt.Fprintf(a.out, "%-4d | %-24s | %s\n", sl.Number, detail, sl.Raw)
	}
}

// In verbose mode, log a series of bytes with starting address.
func (a *assembler) logBytes(addr int, b []byte) {
	if a.verbose {
		for i, n := 0, len(b); i < n; i += 3 {
			j := min(i+3, n)
			a.log("%04X-  %s", (addr+i)&0xffff, byteString(b[i:j]))
		}
	}
}

// In verbose mode, log a section header to the output.
func (a *assembler) logSection(name string) {
	if a.verbose {
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
		fmt.Fprintf(a.out, "-- %s --\n", name)
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
	}
}
