// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/edasm/cpu"
	"github.com/beevik/edasm/rel"
)

// The output of pass 2.
type pass2Result struct {
	code    []byte           // machine code
	relocs  []rel.Relocation // relocation dictionary
	symbols []rel.Symbol     // exported entry points
	listing listing          // assembly listing
	pc      int              // final program counter
}

// A generator holds the state of pass 2 while it emits code for the
// current line.
type generator struct {
	*assembler
	p1       *pass1Result
	res      *pass2Result
	pc       int             // address of the next byte
	reported map[string]bool // undefined symbols already reported
	warnExt  map[string]bool // externals already warned about
}

// Scan the source a second time, now that every label is known, and
// generate machine code.
func (a *assembler) pass2(p1 *pass1Result) *pass2Result {
	a.logSection("Pass 2: code generation")

	g := &generator{
		assembler: a,
		p1:        p1,
		res:       &pass2Result{},
		pc:        p1.start,
		reported:  make(map[string]bool),
		warnExt:   make(map[string]bool),
	}

	scope := ""

scan:
	for i := range p1.lines {
		sl := &p1.lines[i]
		kind := lookupDirective(sl.Mnemonic)

		if sl.Label != "" {
			label := Qualify(sl.Label, scope)
			if !isLocal(sl.Label) {
				scope = label
			}
			if kind != dirEQU {
				if v, ok := a.symbols.Get(label); ok && v != g.pc {
					a.addError(sl.Number, fmt.Errorf("%w: label '%s' moved from $%04X to $%04X", ErrPhase, label, v, g.pc))
				}
			}
		}

		if sl.Mnemonic == "" {
			g.res.listing.addText(sl.Raw)
			continue
		}

		ctx := EvalContext{Symbols: a.symbols, PC: g.pc, Scope: scope}
		start, addr := len(g.res.code), g.pc

		switch kind {
		case dirORG:
			v, _ := Eval(sl.Operand, ctx)
			g.pc = v.Value
			g.res.listing.add(g.pc, nil, sl.Raw)
			continue

		case dirEQU:
			v, _ := a.symbols.Get(Qualify(sl.Label, scope))
			g.res.listing.add(v, nil, sl.Raw)
			continue

		case dirDB, dirDW, dirDDB:
			g.emitData(sl, kind, ctx)

		case dirASC, dirDCI:
			s, _ := parseString(sl.Operand)
			g.emit(stringBytes(s, kind == dirDCI)...)

		case dirDS:
			g.emitStorage(sl, ctx)
			g.res.listing.add(addr, nil, sl.Raw)
			continue

		case dirEXT, dirENT, dirREL, dirCHN:
			g.res.listing.addText(sl.Raw)
			continue

		case dirEND:
			g.res.listing.addText(sl.Raw)
			break scan

		default:
			g.emitInstruction(sl, p1.sizes[i], ctx)
		}

		b := g.res.code[start:]
		g.logBytes(addr, b)
		g.res.listing.add(addr, b, sl.Raw)
	}

	g.res.pc = g.pc
	_ = a.symbols.Define("*", g.pc, false)

	// Report undefined symbols not already reported against a line.
	for _, name := range a.symbols.Undefined() {
		if !g.reported[name] {
			a.addError(0, fmt.Errorf("%w '%s'", ErrUndefinedSymbol, name))
		}
	}

	g.exportEntries()
	return g.res
}

// Append bytes to the code and advance the program counter.
func (g *generator) emit(b ...byte) {
	g.res.code = append(g.res.code, b...)
	g.pc += len(b)
}

// Generate an instruction.
func (g *generator) emitInstruction(sl *SourceLine, size int, ctx EvalContext) {
	info, err := resolveMode(sl.Mnemonic, sl.Operand, ctx, g.instSet, g.reloc)
	if err != nil {
		g.addError(sl.Number, err)
		g.emit(make([]byte, size)...)
		return
	}

	// A forward reference that pass 1 sized as absolute keeps its
	// absolute encoding, so no label after it moves.
	if info.mode.Length() < size && g.instSet.Supports(sl.Mnemonic, info.mode.Wide()) {
		info.mode = info.mode.Wide()
	}
	if info.mode.Length() != size {
		g.addError(sl.Number, fmt.Errorf("%w: %s sized as %d bytes in pass 1 but %d bytes in pass 2",
			ErrPhase, sl.Mnemonic, size, info.mode.Length()))
		g.emit(make([]byte, size)...)
		return
	}

	inst := g.instSet.Find(sl.Mnemonic, info.mode)
	g.emit(inst.Opcode)

	switch {
	case info.mode == cpu.REL:
		g.emit(g.branchOffset(sl, info))
	case info.mode.Length() == 2:
		g.emitField(sl, info.value, 1)
	case info.mode.Length() == 3:
		g.emitField(sl, info.value, 2)
	}
}

// Compute the offset of a relative branch.
func (g *generator) branchOffset(sl *SourceLine, info operandInfo) byte {
	v := info.value
	switch {
	case v.Undefined:
		g.undefinedError(sl, v, info.expr)
		return 0
	case v.External:
		g.addError(sl.Number, fmt.Errorf("%w: branch to external symbol '%s'", ErrInvalidAddressingMode, v.ext))
		return 0
	}

	// The offset is relative to the address following the branch.
	offset, err := relOffset(v.Value, g.pc+1)
	if err != nil {
		g.addError(sl.Number, fmt.Errorf("%w: target $%04X is %d bytes away", ErrBranchOutOfRange, v.Value, v.Value-(g.pc+1)))
	}
	return offset
}

// Emit a one- or two-byte value field, recording a relocation when the
// module is relocatable and the value depends on its load address or on
// an external symbol.
func (g *generator) emitField(sl *SourceLine, v Value, width int) {
	if v.Undefined {
		g.undefinedError(sl, v, sl.Operand)
		g.emit(make([]byte, width)...)
		return
	}

	value := v.Value
	switch {
	case !g.reloc:
		if v.External && !g.warnExt[v.ext] {
			g.warnExt[v.ext] = true
			g.addWarning(sl.Number, "external symbol '%s' in an absolute module assembles as $0000", v.ext)
		}

	case v.External:
		g.res.relocs = append(g.res.relocs, rel.Relocation{
			Offset: uint16(len(g.res.code)),
			Word:   width == 2,
			Symbol: v.ext,
		})

	case v.Relocatable && width == 1:
		g.addWarning(sl.Number, "byte-sized relocation cannot be stored in a REL module; value is absolute")

	case v.Relocatable:
		value -= g.p1.origin
		g.res.relocs = append(g.res.relocs, rel.Relocation{
			Offset: uint16(len(g.res.code)),
			Word:   true,
		})
	}

	g.emit(toBytes(width, value)...)
}

// Emit the operands of a DB, DW or DDB directive.
func (g *generator) emitData(sl *SourceLine, kind directive, ctx EvalContext) {
	for _, expr := range splitOperands(sl.Operand) {
		ctx.PC = g.pc
		v, err := Eval(expr, ctx)
		if err != nil {
			g.addError(sl.Number, err)
			g.emit(make([]byte, kind.width())...)
			continue
		}

		switch kind {
		case dirDDB:
			if v.Undefined {
				g.undefinedError(sl, v, expr)
			} else if g.reloc && (v.Relocatable || v.External) {
				g.addWarning(sl.Number, "DDB value '%s' is not relocated", expr)
			}
			g.emit(byte(v.Value>>8), byte(v.Value))
		default:
			g.emitField(sl, v, kind.width())
		}
	}
}

// Emit the storage reserved by a DS directive, filled with the optional
// second operand.
func (g *generator) emitStorage(sl *SourceLine, ctx EvalContext) {
	ops := splitOperands(sl.Operand)
	n, _ := Eval(ops[0], ctx)

	var fill byte
	if len(ops) > 1 {
		v, err := Eval(ops[1], ctx)
		switch {
		case err != nil:
			g.addError(sl.Number, err)
		case v.Undefined:
			g.undefinedError(sl, v, ops[1])
		default:
			fill = byte(v.Value)
		}
	}

	b := make([]byte, n.Value)
	for i := range b {
		b[i] = fill
	}
	g.emit(b...)
}

// Report the use of an undefined value.
func (g *generator) undefinedError(sl *SourceLine, v Value, expr string) {
	if v.undef == "" {
		g.addError(sl.Number, fmt.Errorf("%w: expression '%s' has no value", ErrUndefinedSymbol, expr))
		return
	}
	g.reported[v.undef] = true
	g.addError(sl.Number, fmt.Errorf("%w '%s'", ErrUndefinedSymbol, v.undef))
}

// Check the symbols named by ENT directives and add them to the module's
// symbol table, sorted by name.
func (g *generator) exportEntries() {
	seen := make(map[string]bool)
	for _, e := range g.p1.entries {
		if seen[e.name] {
			continue
		}
		seen[e.name] = true

		sym, ok := g.symbols.Lookup(e.name)
		switch {
		case !ok || !sym.Defined:
			g.addError(e.line, fmt.Errorf("%w '%s' named as entry point", ErrUndefinedSymbol, e.name))
			continue
		case sym.IsExternal():
			g.addError(e.line, fmt.Errorf("%w: entry point '%s' is declared external", ErrSyntax, e.name))
			continue
		case !sym.IsRelocatable():
			g.addWarning(e.line, "entry point '%s' has an absolute value", e.name)
		}

		g.res.symbols = append(g.res.symbols, rel.Symbol{
			Name:  strings.ToUpper(e.name),
			Value: uint16(sym.Value - g.p1.origin),
		})
	}

	sort.Slice(g.res.symbols, func(i, j int) bool {
		return g.res.symbols[i].Name < g.res.symbols[j].Name
	})
}

// Compute the relative offset of two addresses as a two's-complement
// byte value. If the offset can't fit into a byte, return an error.
func relOffset(addr1, addr2 int) (byte, error) {
	diff := addr1 - addr2
	if diff < -128 || diff > 127 {
		return 0, ErrBranchOutOfRange
	}
	return byte(diff), nil
}
