// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/beevik/edasm/cpu"
)

func TestDisassemble(t *testing.T) {
	code := []byte{
		0xa9, 0x01, // LDA #$01
		0x8d, 0x00, 0x02, // STA $0200
		0xd0, 0xfe, // BNE *
		0x6c, 0x34, 0x12, // JMP ($1234)
		0x0a,       // ASL
		0x12, 0x20, // ORA ($20)
		0x7c, 0x00, 0x10, // JMP ($1000,X)
		0xb1, 0x20, // LDA ($20),Y
		0x03,       // undefined
		0x00,       // BRK
		0xad, 0x00, // truncated
	}
	expected := []struct {
		addr int
		line string
	}{
		{0x0800, "LDA #$01"},
		{0x0802, "STA $0200"},
		{0x0805, "BNE $0805"},
		{0x0807, "JMP ($1234)"},
		{0x080a, "ASL"},
		{0x080b, "ORA ($20)"},
		{0x080d, "JMP ($1000,X)"},
		{0x0810, "LDA ($20),Y"},
		{0x0812, "DB $03"},
		{0x0813, "BRK"},
		{0x0814, "DB $AD"},
		{0x0815, "BRK"},
	}

	set := cpu.GetInstructionSet(cpu.CMOS)
	off := 0
	for _, e := range expected {
		if off >= len(code) {
			t.Fatalf("ran out of code at $%04X", e.addr)
		}
		if 0x0800+off != e.addr {
			t.Errorf("got address $%04X, expected $%04X", 0x0800+off, e.addr)
		}
		var line string
		line, off = Disassemble(code, off, 0x0800, set)
		if line != e.line {
			t.Errorf("$%04X: got %q, expected %q", e.addr, line, e.line)
		}
	}
	if off != len(code) {
		t.Errorf("stopped at offset %d of %d", off, len(code))
	}
}

func TestDisassembleBackwardBranch(t *testing.T) {
	code := []byte{0xea, 0xea, 0x90, 0xfc}
	line, next := Disassemble(code, 2, 0x1000, cpu.GetInstructionSet(cpu.NMOS))
	if line != "BCC $1000" || next != 4 {
		t.Errorf("got %q, %d", line, next)
	}
}

func TestDisassembleNMOS(t *testing.T) {
	line, next := Disassemble([]byte{0x80, 0x10}, 0, 0, cpu.GetInstructionSet(cpu.NMOS))
	if line != "DB $80" || next != 1 {
		t.Errorf("got %q, %d", line, next)
	}
}

func TestListing(t *testing.T) {
	code := []byte{0xa9, 0x01, 0x20, 0x00, 0x00, 0x60}
	annotate := func(off, length int) string {
		if off <= 3 && 3 < off+length {
			return "PRINT"
		}
		return ""
	}

	var buf bytes.Buffer
	if err := Listing(&buf, code, 0x0800, cpu.GetInstructionSet(cpu.CMOS), annotate); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	expected := []string{
		"0800  A9 01     LDA #$01",
		"0802  20 00 00  JSR $0000       ; PRINT",
		"0805  60        RTS",
	}
	if len(lines) != len(expected) {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	for i := range lines {
		if lines[i] != expected[i] {
			t.Errorf("line %d: got %q, expected %q", i, lines[i], expected[i])
		}
	}
}
