// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a 6502 and 65C02 disassembler whose output
// uses the assembler's source syntax.
package disasm

import (
	"fmt"
	"io"

	"github.com/beevik/edasm/cpu"
)

// Disassembler formatting for addressing modes
var modeFormat = []string{
	"#$%s",    // IMM
	"%s",      // IMP
	"$%s",     // REL
	"$%s",     // ZPG
	"$%s,X",   // ZPX
	"$%s,Y",   // ZPY
	"$%s",     // ABS
	"$%s,X",   // ABX
	"$%s,Y",   // ABY
	"($%s)",   // IND
	"($%s,X)", // IDX
	"($%s),Y", // IDY
	"%s",      // ACC
	"($%s)",   // ZPI
	"($%s,X)", // AIX
}

var hex = "0123456789ABCDEF"

// Return a hexadecimal string representation of the little-endian byte
// slice.
func hexString(b []byte) string {
	hexlen := len(b) * 2
	hexbuf := make([]byte, hexlen)
	j := hexlen - 1
	for _, n := range b {
		hexbuf[j] = hex[n&0xf]
		hexbuf[j-1] = hex[n>>4]
		j -= 2
	}
	return string(hexbuf)
}

// Disassemble the instruction found at offset 'off' within 'code', which
// is loaded at address 'base'. Return a 'line' string representing the
// disassembled instruction and the offset 'next' of the following
// instruction. Bytes that do not start a complete instruction on the
// instruction set are returned as DB directives.
func Disassemble(code []byte, off int, base uint16, set *cpu.InstructionSet) (line string, next int) {
	opcode := code[off]
	inst := set.Lookup(opcode)
	if inst == nil || off+int(inst.Length) > len(code) {
		return fmt.Sprintf("DB $%02X", opcode), off + 1
	}

	operand := code[off+1 : off+int(inst.Length)]
	if inst.Mode == cpu.REL {
		// Convert relative offset to absolute address.
		braddr := int(base) + off + int(inst.Length) + int(int8(operand[0]))
		operand = []byte{byte(braddr), byte(braddr >> 8)}
	}
	format := "%s " + modeFormat[inst.Mode]
	line = fmt.Sprintf(format, inst.Name, hexString(operand))
	if inst.Mode == cpu.IMP || inst.Mode == cpu.ACC {
		line = inst.Name
	}
	return line, off + int(inst.Length)
}

// An Annotator returns a comment describing the bytes of one disassembled
// line, or the empty string.
type Annotator func(off, length int) string

// Listing writes a disassembly of all the code, one instruction per line,
// preceded by its address and bytes. The annotate function may be nil.
func Listing(w io.Writer, code []byte, base uint16, set *cpu.InstructionSet, annotate Annotator) error {
	for off := 0; off < len(code); {
		line, next := Disassemble(code, off, base, set)

		var bytes string
		for i := off; i < next; i++ {
			bytes += fmt.Sprintf("%02X ", code[i])
		}

		s := fmt.Sprintf("%04X  %-9s %s", int(base)+off, bytes, line)
		if annotate != nil {
			if c := annotate(off, next-off); c != "" {
				s = fmt.Sprintf("%-32s; %s", s, c)
			}
		}
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
		off = next
	}
	return nil
}
