// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/edasm/prodos"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func runScript(t *testing.T, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	h := New()
	h.RunCommands(strings.NewReader(strings.Join(lines, "\n")), &out, false)
	return out.String()
}

func checkContains(t *testing.T, output string, expected ...string) {
	t.Helper()
	for _, e := range expected {
		if !strings.Contains(output, e) {
			t.Errorf("output missing %q:\n%s", e, output)
		}
	}
}

func TestSession(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.s")
	b := filepath.Join(dir, "b.s")
	prog := filepath.Join(dir, "prog")
	writeFile(t, a, "\tEXT SUB2\n\tJSR SUB2\n\tRTS\n")
	writeFile(t, b, "\tENT SUB2\nSUB2\tLDA #$42\n\tRTS\n")

	output := runScript(t,
		"set cpu 6502",
		"set relocatable true",
		"set listing on",
		"assemble "+a,
		"assemble "+b,
		"set linkorigin $8000",
		"link "+prog+" "+filepath.Join(dir, "a.obj")+" "+filepath.Join(dir, "b.obj"),
		"symbols",
		"listing",
		"evaluate SUB2+1",
		"dump "+filepath.Join(dir, "a.obj"),
		"bogus",
		"quit",
		"set origin 5",
	)

	checkContains(t, output,
		"Setting CPU updated.",
		"Setting Relocatable updated.",
		"Setting Listing updated.",
		"Assembled '"+b+"' to '"+filepath.Join(dir, "b.obj")+"'.",
		"Linked 2 module(s)",
		"SUB2",
		"LDA #$42",
		"$0001 (1)",
		"Relocations:",
		"JSR $0000",
		"; SUB2 word",
		"Command not found.",
	)
	if strings.Contains(output, "Setting Origin updated.") {
		t.Error("command after quit was executed")
	}

	code, err := os.ReadFile(prog)
	if err != nil {
		t.Fatal(err)
	}
	expected := []byte{0x20, 0x04, 0x80, 0x60, 0xa9, 0x42, 0x60}
	if !bytes.Equal(code, expected) {
		t.Errorf("linked code % X, expected % X", code, expected)
	}

	attrs, err := prodos.Read(prog)
	if err != nil || attrs == nil || attrs.FileType != prodos.TypeSYS || attrs.AuxType != 0x8000 {
		t.Errorf("program attributes %+v, %v", attrs, err)
	}
	attrs, err = prodos.Read(filepath.Join(dir, "a.obj"))
	if err != nil || attrs == nil || attrs.FileType != prodos.TypeREL {
		t.Errorf("object attributes %+v, %v", attrs, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.lst")); err != nil {
		t.Errorf("listing not written: %v", err)
	}
}

func TestAssembleFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.s")
	writeFile(t, src, "\tORG $1000\n\tBOGUS\n")

	output := runScript(t, "assemble "+src, "listing", "symbols")
	checkContains(t, output,
		"ERROR: "+src+": line 2:",
		"Assembly failed.",
		"No listing.",
	)
	if _, err := os.Stat(filepath.Join(dir, "bad.obj")); err == nil {
		t.Error("object file written for a failed assembly")
	}
}

func TestBinaryDump(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.s")
	writeFile(t, src, "\tORG $0300\nLOOP\tJMP LOOP\n")

	output := runScript(t, "assemble "+src, "dump "+filepath.Join(dir, "prog.obj"))
	checkContains(t, output,
		"File type $06, aux type $0300",
		"0300  4C 00 03  JMP $0300",
	)
}

func TestNothingAssembled(t *testing.T) {
	output := runScript(t, "symbols", "listing", "evaluate 2*3")
	if strings.Count(output, "Nothing has been assembled.") != 2 {
		t.Errorf("unexpected output:\n%s", output)
	}
	checkContains(t, output, "$0006 (6)")
}

func TestExecute(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "script")
	writeFile(t, script, "# comment\nset verbose true\nquit\nset listing true\n")

	output := runScript(t, "execute "+script, "set linkorigin $9000")
	checkContains(t, output, "Setting Verbose updated.")
	if strings.Contains(output, "Listing updated") || strings.Contains(output, "LinkOrigin updated") {
		t.Errorf("commands after quit were executed:\n%s", output)
	}
}

func TestHelp(t *testing.T) {
	output := runScript(t, "help", "help assemble", "? link")
	checkContains(t, output,
		"Commands:",
		"    assemble         Assemble a source file",
		"Syntax: assemble <filename> [<output>]",
		"Syntax: link <output> <object> [<object> ...]",
	)
}

func TestSettings(t *testing.T) {
	output := runScript(t,
		"set cpu z80",
		"set origin $2000",
		"set origin $12345",
		"set bogus 1",
		"set relocatable maybe",
		"set",
	)
	checkContains(t, output,
		"invalid CPU type 'z80'",
		"Setting Origin updated.",
		"invalid value '$12345'",
		"Setting 'bogus' not found.",
		"invalid bool value 'maybe'",
		"Origin           $2000",
		"CPU              \"65C02\"",
	)
}

func TestIndentWrap(t *testing.T) {
	s := indentWrap(3, strings.Repeat("word ", 30))
	lines := strings.Split(s, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), s)
	}
	for _, l := range lines {
		if len(l) > 80 || !strings.HasPrefix(l, "   word") {
			t.Errorf("bad line %q", l)
		}
	}
}
