// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"

	"github.com/beevik/edasm/cpu"
)

// An operandInfo describes an instruction operand after its addressing
// mode has been chosen.
type operandInfo struct {
	mode  cpu.Mode // chosen addressing mode
	expr  string   // operand expression with mode syntax removed
	value Value    // evaluated expression, zero for IMP and ACC
}

// Choose the addressing mode of an instruction from the syntax of its
// operand and, where the syntax is ambiguous, the operand's value. Both
// passes call this with the same inputs, so a line sizes identically in
// each pass unless a forward reference has since been resolved.
//
// When reloc is set, relocatable values never select a zero-page mode,
// since their final address is not known until link time.
func resolveMode(mnemonic, operand string, ctx EvalContext, set *cpu.InstructionSet, reloc bool) (operandInfo, error) {
	if !set.IsMnemonic(mnemonic) {
		return operandInfo{}, fmt.Errorf("%w '%s'", ErrUnknownMnemonic, mnemonic)
	}

	if set.Supports(mnemonic, cpu.REL) {
		if operand == "" {
			return operandInfo{}, fmt.Errorf("%w: %s needs a branch target", ErrMissingOperand, mnemonic)
		}
		v, err := Eval(operand, ctx)
		return operandInfo{mode: cpu.REL, expr: operand, value: v}, err
	}

	var info operandInfo
	switch {
	case operand == "":
		switch {
		case set.Supports(mnemonic, cpu.IMP):
			return operandInfo{mode: cpu.IMP}, nil
		case set.Supports(mnemonic, cpu.ACC):
			return operandInfo{mode: cpu.ACC}, nil
		default:
			return operandInfo{}, fmt.Errorf("%w: %s needs an operand", ErrMissingOperand, mnemonic)
		}

	case strings.EqualFold(operand, "A"):
		info = operandInfo{mode: cpu.ACC}
		return info, checkMode(mnemonic, info.mode, set)

	case operand[0] == '#':
		info.mode, info.expr = cpu.IMM, strings.TrimSpace(operand[1:])

	default:
		var ok bool
		if info, ok = parseIndirect(operand); !ok {
			info = parseDirect(operand)
		}
	}

	v, err := Eval(info.expr, ctx)
	if err != nil {
		return info, err
	}
	info.value = v

	zp := v.ZeroPage() && !(reloc && v.Relocatable)
	switch info.mode {
	case cpu.IDX:
		if strings.EqualFold(mnemonic, "JMP") && v.Resolved() && v.Value >= 0x100 {
			info.mode = cpu.AIX
		}
	case cpu.IND:
		if zp {
			info.mode = cpu.ZPI
		}
	case cpu.ABS, cpu.ABX, cpu.ABY:
		if zp {
			info.mode = info.mode.Narrow()
		}
	}

	// Fall back to the sibling mode when the mnemonic lacks the chosen one.
	// A wider encoding can always hold the value. A narrower one is only
	// tried for forward references, which pass 2 checks again.
	if !set.Supports(mnemonic, info.mode) {
		switch {
		case set.Supports(mnemonic, info.mode.Wide()):
			info.mode = info.mode.Wide()
		case v.Undefined && set.Supports(mnemonic, info.mode.Narrow()):
			info.mode = info.mode.Narrow()
		}
	}
	return info, checkMode(mnemonic, info.mode, set)
}

func checkMode(mnemonic string, mode cpu.Mode, set *cpu.InstructionSet) error {
	if !set.Supports(mnemonic, mode) {
		return fmt.Errorf("%w %s for %s", ErrInvalidAddressingMode, mode, strings.ToUpper(mnemonic))
	}
	return nil
}

// Parse the operand forms "(e,X)", "(e),Y" and "(e)". The result reports
// false when the operand is some other form, such as a parenthesized
// expression used as an address.
func parseIndirect(operand string) (operandInfo, bool) {
	if operand[0] != '(' {
		return operandInfo{}, false
	}
	end := matchParen(operand)
	if end < 0 {
		return operandInfo{}, false
	}

	inner := strings.TrimSpace(operand[1:end])
	rest := strings.TrimSpace(operand[end+1:])

	switch {
	case rest == "":
		if expr, reg := splitIndex(inner); reg == 'X' {
			return operandInfo{mode: cpu.IDX, expr: expr}, true
		}
		return operandInfo{mode: cpu.IND, expr: inner}, true

	case rest[0] == ',' && strings.EqualFold(strings.TrimSpace(rest[1:]), "Y"):
		return operandInfo{mode: cpu.IDY, expr: inner}, true
	}
	return operandInfo{}, false
}

// Parse the operand forms "e,X", "e,Y" and "e". The absolute variant is
// returned; the caller narrows it once the value is known.
func parseDirect(operand string) operandInfo {
	expr, reg := splitIndex(operand)
	switch reg {
	case 'X':
		return operandInfo{mode: cpu.ABX, expr: expr}
	case 'Y':
		return operandInfo{mode: cpu.ABY, expr: expr}
	default:
		return operandInfo{mode: cpu.ABS, expr: operand}
	}
}

// Split a trailing ",X" or ",Y" index register from an expression. The
// register is returned as 'X' or 'Y', or 0 if there is none.
func splitIndex(s string) (expr string, reg byte) {
	i := strings.LastIndexByte(s, ',')
	if i < 0 {
		return s, 0
	}
	switch strings.ToUpper(strings.TrimSpace(s[i+1:])) {
	case "X":
		return strings.TrimSpace(s[:i]), 'X'
	case "Y":
		return strings.TrimSpace(s[:i]), 'Y'
	default:
		return s, 0
	}
}

// Return the index of the parenthesis closing the one that opens s, or -1
// if it is never closed.
func matchParen(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
