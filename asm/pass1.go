// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"
)

// An entryPoint is a symbol named by an ENT directive.
type entryPoint struct {
	name string
	line int
}

// The output of pass 1, consumed by pass 2.
type pass1Result struct {
	lines   []SourceLine
	sizes   []int        // byte length of each instruction line
	start   int          // program counter before the first line
	origin  int          // address of the first byte of the module
	sawOrg  bool         // an ORG directive was seen
	entries []entryPoint // symbols exported by ENT
}

// Scan the source to discover the value of every label. Instructions are
// sized using whatever symbols are known when they are reached; forward
// references size as absolute.
func (a *assembler) pass1(lines []SourceLine) *pass1Result {
	a.logSection("Pass 1: symbol discovery")

	p := &pass1Result{
		lines: lines,
		sizes: make([]int, len(lines)),
		start: a.startPC(),
	}
	p.origin = p.start

	pc, scope := p.start, ""

scan:
	for i := range lines {
		sl := &lines[i]
		if sl.IsEmpty() {
			continue
		}

		kind := lookupDirective(sl.Mnemonic)

		var label string
		if sl.Label != "" {
			label = Qualify(sl.Label, scope)
			if !isLocal(sl.Label) {
				scope = label
			}
			if kind != dirEQU {
				if err := a.symbols.Define(label, pc, true); err != nil {
					a.addError(sl.Number, err)
				} else {
					a.logLine(sl, "%s=$%04X", label, pc)
				}
			}
		}

		if sl.Mnemonic == "" {
			continue
		}
		if kind.needsOperand() && sl.Operand == "" {
			a.addError(sl.Number, fmt.Errorf("%w: %s needs an operand", ErrMissingOperand, sl.Mnemonic))
			continue
		}

		ctx := EvalContext{Symbols: a.symbols, PC: pc, Scope: scope}

		switch kind {
		case dirORG:
			v, err := a.evalDefined(sl.Operand, ctx, "ORG")
			if err != nil {
				a.addError(sl.Number, err)
				continue
			}
			if v.Value < 0 || v.Value > 0xffff {
				a.addError(sl.Number, fmt.Errorf("%w: ORG address $%X out of range", ErrSyntax, v.Value))
				continue
			}
			if !p.sawOrg {
				p.origin, p.sawOrg = v.Value, true
			} else if a.reloc {
				a.addWarning(sl.Number, "ORG inside a relocatable module does not move the code")
			}
			pc = v.Value
			a.logLine(sl, "pc=$%04X", pc)

		case dirEQU:
			if sl.Label == "" {
				a.addError(sl.Number, fmt.Errorf("%w: EQU needs a label", ErrSyntax))
				continue
			}
			v, err := a.evalDefined(sl.Operand, ctx, "EQU")
			if err != nil {
				a.addError(sl.Number, err)
				continue
			}
			if err := a.symbols.Define(label, v.Value, v.Relocatable); err != nil {
				a.addError(sl.Number, err)
				continue
			}
			a.logLine(sl, "%s=$%04X", label, v.Value)

		case dirDB, dirDW, dirDDB:
			pc += kind.width() * len(splitOperands(sl.Operand))

		case dirASC, dirDCI:
			s, err := parseString(sl.Operand)
			if err != nil {
				a.addError(sl.Number, err)
				continue
			}
			pc += len(s)

		case dirDS:
			v, err := a.evalDefined(splitOperands(sl.Operand)[0], ctx, "DS")
			if err != nil {
				a.addError(sl.Number, err)
				continue
			}
			if v.Value < 0 {
				a.addError(sl.Number, fmt.Errorf("%w: negative DS size %d", ErrSyntax, v.Value))
				continue
			}
			pc += v.Value

		case dirEXT:
			names, err := parseNames(sl.Operand)
			if err != nil {
				a.addError(sl.Number, err)
				continue
			}
			for _, n := range names {
				if err := a.symbols.DefineExternal(n); err != nil {
					a.addError(sl.Number, err)
				}
			}

		case dirENT:
			names, err := parseNames(sl.Operand)
			if err != nil {
				a.addError(sl.Number, err)
				continue
			}
			for _, n := range names {
				p.entries = append(p.entries, entryPoint{strings.ToUpper(n), sl.Number})
			}

		case dirREL:
			// Handled before the scan starts.

		case dirCHN:
			a.addWarning(sl.Number, "CHN is not supported; directive ignored")

		case dirEND:
			break scan

		default:
			info, err := resolveMode(sl.Mnemonic, sl.Operand, ctx, a.instSet, a.reloc)
			if err != nil {
				a.addError(sl.Number, err)
				continue
			}
			p.sizes[i] = info.mode.Length()
			pc += p.sizes[i]
			a.logLine(sl, "%s %s (%d bytes)", sl.Mnemonic, info.mode, p.sizes[i])
		}

		if pc > 0x10000 {
			a.addError(sl.Number, fmt.Errorf("%w: program counter passed $FFFF", ErrSyntax))
			break scan
		}
	}

	if !p.sawOrg {
		a.addWarning(0, "no ORG directive; origin defaults to $%04X", p.origin)
	}
	return p
}

// Evaluate a directive operand that must have a known value by the time
// the directive is reached.
func (a *assembler) evalDefined(expr string, ctx EvalContext, what string) (Value, error) {
	v, err := Eval(expr, ctx)
	switch {
	case err != nil:
		return v, err
	case v.External:
		return v, fmt.Errorf("%w: %s operand cannot refer to external symbol '%s'", ErrSyntax, what, v.ext)
	case v.Undefined && v.undef != "":
		return v, fmt.Errorf("%w '%s': %s operand must be defined before use", ErrUndefinedSymbol, v.undef, what)
	case v.Undefined:
		return v, fmt.Errorf("%w: %s operand has no value", ErrSyntax, what)
	}
	return v, nil
}
