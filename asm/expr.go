// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strconv"
)

// A Value is the result of evaluating an expression.
type Value struct {
	Value       int  // numeric value, not yet wrapped to a field width
	Relocatable bool // value depends on the module's load address
	External    bool // value depends on a symbol in another module
	Undefined   bool // value depends on a symbol not yet defined

	ext   string // name of the external symbol the value refers to
	undef string // name of the first undefined symbol the value refers to
}

// Resolved reports whether the value is known now and will not change at
// load or link time.
func (v Value) Resolved() bool {
	return !v.Undefined && !v.External
}

// ZeroPage reports whether the value is resolved and fits in the zero
// page.
func (v Value) ZeroPage() bool {
	return v.Resolved() && v.Value >= 0 && v.Value < 0x100
}

func (v Value) or(w Value, value int) Value {
	r := Value{
		Value:       value,
		Relocatable: v.Relocatable || w.Relocatable,
		External:    v.External || w.External,
		Undefined:   v.Undefined || w.Undefined,
		ext:         v.ext,
		undef:       v.undef,
	}
	if r.ext == "" {
		r.ext = w.ext
	}
	if r.undef == "" {
		r.undef = w.undef
	}
	return r
}

// An EvalContext supplies the symbol table, program counter and label
// scope used while evaluating an expression.
type EvalContext struct {
	Symbols *SymbolTable
	PC      int
	Scope   string // current global label, used to qualify local labels
}

// Eval parses and evaluates an operand expression. Symbols referenced by
// the expression are marked as referenced, and symbols not yet in the
// table are added as undefined placeholders.
func Eval(text string, ctx EvalContext) (Value, error) {
	p := exprParser{ctx: ctx, line: newFstring(0, text)}
	p.skipWhitespace()
	if p.line.isEmpty() {
		return Value{}, fmt.Errorf("%w: empty expression", ErrSyntax)
	}

	v, err := p.parseAddSub()
	if err != nil {
		return Value{}, err
	}

	p.skipWhitespace()
	if !p.line.isEmpty() {
		return Value{}, fmt.Errorf("%w: unexpected '%s' in expression '%s'", ErrSyntax, p.line.str, text)
	}
	return v, nil
}

// An exprParser is a recursive-descent parser over a single expression.
type exprParser struct {
	ctx  EvalContext
	line fstring // text remaining to be parsed
}

func (p *exprParser) skipWhitespace() {
	p.line = p.line.consumeWhitespace()
}

// Consume the character c if it is next in the input.
func (p *exprParser) accept(c byte) bool {
	p.skipWhitespace()
	if p.line.startsWithChar(c) {
		p.line = p.line.consume(1)
		return true
	}
	return false
}

// Parse a sum or difference of terms.
func (p *exprParser) parseAddSub() (Value, error) {
	left, err := p.parseMulDiv()
	if err != nil {
		return left, err
	}

	for {
		switch {
		case p.accept('+'):
			right, err := p.parseMulDiv()
			if err != nil {
				return right, err
			}
			left = left.or(right, left.Value+right.Value)

		case p.accept('-'):
			right, err := p.parseMulDiv()
			if err != nil {
				return right, err
			}
			r := left.or(right, left.Value-right.Value)

			// The distance between two relocatable addresses does not
			// depend on where the module is loaded.
			r.Relocatable = left.Relocatable != right.Relocatable
			left = r

		default:
			return left, nil
		}
	}
}

// Parse a product or quotient of unary terms.
func (p *exprParser) parseMulDiv() (Value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return left, err
	}

	for {
		switch {
		case p.accept('*'):
			right, err := p.parseUnary()
			if err != nil {
				return right, err
			}
			left = left.or(right, left.Value*right.Value)

		case p.accept('/'):
			right, err := p.parseUnary()
			if err != nil {
				return right, err
			}
			if right.Value == 0 {
				left = Value{Undefined: true}
			} else {
				left = left.or(right, left.Value/right.Value)
			}

		default:
			return left, nil
		}
	}
}

// Parse a unary operator applied to a term.
func (p *exprParser) parseUnary() (Value, error) {
	switch {
	case p.accept('+'):
		return p.parseUnary()

	case p.accept('-'):
		v, err := p.parseUnary()
		v.Value = -v.Value
		return v, err

	case p.accept('<'):
		v, err := p.parseUnary()
		v.Value &= 0xff
		return v, err

	case p.accept('>'):
		v, err := p.parseUnary()
		v.Value = (v.Value >> 8) & 0xff
		return v, err

	default:
		return p.parsePrimary()
	}
}

// Parse a number, symbol, program counter or parenthesized expression.
func (p *exprParser) parsePrimary() (Value, error) {
	p.skipWhitespace()

	switch {
	case p.line.isEmpty():
		return Value{}, fmt.Errorf("%w: expression ends unexpectedly", ErrSyntax)

	case p.accept('$'):
		return p.parseNumber(hexadecimal, 16, "hexadecimal")

	case p.accept('%'):
		return p.parseNumber(binarynum, 2, "binary")

	case p.line.startsWith(decimal):
		return p.parseNumber(decimal, 10, "decimal")

	case p.accept('*'):
		return Value{Value: p.ctx.PC, Relocatable: true}, nil

	case p.accept('('):
		v, err := p.parseAddSub()
		if err != nil {
			return v, err
		}
		if !p.accept(')') {
			return Value{}, fmt.Errorf("%w: missing ')'", ErrSyntax)
		}
		return v, nil

	case p.line.startsWith(labelStartChar):
		var id fstring
		id, p.line = p.line.consumeWhile(labelChar)
		return p.symbolValue(id.str), nil

	default:
		return Value{}, fmt.Errorf("%w: unexpected '%c' in expression", ErrSyntax, p.line.str[0])
	}
}

// Parse a run of digits in the requested base.
func (p *exprParser) parseNumber(fn func(c byte) bool, base int, kind string) (Value, error) {
	digits, remain := p.line.consumeWhile(fn)
	if digits.isEmpty() {
		return Value{}, fmt.Errorf("%w: missing %s digits", ErrSyntax, kind)
	}
	if remain.startsWith(labelChar) {
		return Value{}, fmt.Errorf("%w: invalid %s number '%s%c'", ErrSyntax, kind, digits.str, remain.str[0])
	}
	p.line = remain

	n, err := strconv.ParseInt(digits.str, base, 32)
	if err != nil {
		return Value{}, fmt.Errorf("%w: number '%s' out of range", ErrSyntax, digits.str)
	}
	return Value{Value: int(n)}, nil
}

// Look up a symbol and convert it to a value.
func (p *exprParser) symbolValue(name string) Value {
	sym := p.ctx.Symbols.Reference(Qualify(name, p.ctx.Scope))
	v := Value{
		Value:       sym.Value,
		Relocatable: sym.IsRelocatable(),
		External:    sym.IsExternal(),
		Undefined:   !sym.Defined,
	}
	if v.External {
		v.ext = sym.Name
	}
	if v.Undefined {
		v.undef = sym.Name
	}
	return v
}
