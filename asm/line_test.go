// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		raw                               string
		label, mnemonic, operand, comment string
	}{
		{"", "", "", "", ""},
		{"LABEL", "LABEL", "", "", ""},
		{"LABEL LDA #$01 ; load", "LABEL", "LDA", "#$01", " load"},
		{"\tlda $20", "", "LDA", "$20", ""},
		{"  STA  $1234 , X  ", "", "STA", "$1234 , X", ""},
		{"LOOP:\tDEX", "LOOP", "DEX", "", ""},
		{".LOCAL\tNOP", ".LOCAL", "NOP", "", ""},
		{"_START\tNOP", "_START", "NOP", "", ""},
		{"* full line comment", "", "", "", " full line comment"},
		{"; semicolon comment", "", "", "", " semicolon comment"},
		{"\tVALUE EQU $10", "VALUE", "EQU", "$10", ""},
		{"\tVALUE = $10", "VALUE", "=", "$10", ""},
		{"\tASC \"A;B\" ; c", "", "ASC", "\"A;B\"", " c"},
		{"\tASC 'it''s'", "", "ASC", "'it''s'", ""},
		{"\tLDA (PTR),Y", "", "LDA", "(PTR),Y", ""},
		{"\tRTS\r\n", "", "RTS", "", ""},
	}

	for _, test := range tests {
		sl := ParseLine(test.raw, 7)
		if sl.Number != 7 {
			t.Errorf("%q: line number %d", test.raw, sl.Number)
		}
		if sl.Label != test.label || sl.Mnemonic != test.mnemonic ||
			sl.Operand != test.operand || sl.Comment != test.comment {
			t.Errorf("%q: got (%q, %q, %q, %q), expected (%q, %q, %q, %q)", test.raw,
				sl.Label, sl.Mnemonic, sl.Operand, sl.Comment,
				test.label, test.mnemonic, test.operand, test.comment)
		}
	}
}

func TestParseSource(t *testing.T) {
	lines := ParseSource("\tNOP\r\nSTART\tRTS\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, expected 2", len(lines))
	}
	if lines[1].Number != 2 || lines[1].Label != "START" || lines[1].Raw != "START\tRTS" {
		t.Errorf("unexpected second line %+v", lines[1])
	}
}

func TestSymbolTable(t *testing.T) {
	st := NewSymbolTable()

	if err := st.Define("start", 0x1000, true); err != nil {
		t.Fatal(err)
	}
	if err := st.Define("START", 0x2000, false); !errors.Is(err, ErrDuplicateSymbol) {
		t.Errorf("expected duplicate symbol error, got %v", err)
	}
	if v, ok := st.Get("Start"); !ok || v != 0x1000 {
		t.Errorf("START = $%04X, %v", v, ok)
	}

	sym := st.Reference("LATER")
	if sym.Defined || !st.Has("later") {
		t.Error("reference did not create an undefined placeholder")
	}
	if names := st.Undefined(); len(names) != 1 || names[0] != "LATER" {
		t.Errorf("undefined symbols %q", names)
	}
	if err := st.Define("LATER", 5, false); err != nil {
		t.Errorf("defining a forward reference failed: %v", err)
	}
	if sym.Flags&(Undefined|Unreferenced) != 0 || !sym.Defined || sym.Value != 5 {
		t.Errorf("forward reference not resolved: %+v", *sym)
	}
	if len(st.Undefined()) != 0 {
		t.Errorf("undefined symbols %q", st.Undefined())
	}

	if err := st.DefineExternal("EXT"); err != nil {
		t.Fatal(err)
	}
	if ext, _ := st.Lookup("EXT"); !ext.IsExternal() || ext.IsRelocatable() {
		t.Errorf("unexpected external flags $%02X", ext.Flags)
	}
	if err := st.DefineExternal("start"); !errors.Is(err, ErrDuplicateSymbol) {
		t.Errorf("expected duplicate symbol error, got %v", err)
	}

	if names := st.Names(); len(names) != 3 || names[0] != "EXT" || names[2] != "START" {
		t.Errorf("names %q", names)
	}
}

func TestSymbolTableClone(t *testing.T) {
	st := NewSymbolTable()
	st.Define("A", 1, false)

	c := st.Clone()
	c.Reference("B")
	c.Define("C", 3, true)
	if sym, _ := c.Lookup("A"); sym.Flags&Unreferenced == 0 {
		t.Error("clone shares symbols with the original")
	}
	c.Reference("A")

	if st.Len() != 1 || c.Len() != 3 {
		t.Errorf("got %d and %d symbols", st.Len(), c.Len())
	}
	if sym, _ := st.Lookup("A"); sym.Flags&Unreferenced == 0 {
		t.Error("referencing a cloned symbol changed the original")
	}
}

func TestQualify(t *testing.T) {
	tests := []struct{ name, scope, expected string }{
		{".loop", "MAIN", "MAIN.LOOP"},
		{".LOOP", "", ".LOOP"},
		{"global", "MAIN", "GLOBAL"},
	}
	for _, test := range tests {
		if got := Qualify(test.name, test.scope); got != test.expected {
			t.Errorf("Qualify(%q, %q) = %q, expected %q", test.name, test.scope, got, test.expected)
		}
	}
}
