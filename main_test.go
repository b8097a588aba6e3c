// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/edasm/host"
	"github.com/beevik/edasm/prodos"
)

func run(stdin string, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAssembleAndLink(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.s", "\tEXT SUB2\n\tJSR SUB2\n\tRTS\n")
	b := writeSource(t, dir, "b.s", "\tENT SUB2\nSUB2\tLDA #$42\n\tRTS\n")

	if _, stderr, err := run("", "asm", "-r", a, b); err != nil {
		t.Fatalf("asm failed: %v\n%s", err, stderr)
	}

	prog := filepath.Join(dir, "prog")
	aobj, bobj := filepath.Join(dir, "a.obj"), filepath.Join(dir, "b.obj")
	stdout, stderr, err := run("", "link", "-v", "-o", prog, "--origin", "$8000", aobj, bobj)
	if err != nil {
		t.Fatalf("link failed: %v\n%s", err, stderr)
	}
	if !strings.Contains(stderr, "$8004-$8006  b.obj") {
		t.Errorf("load map missing:\n%s", stderr)
	}
	if !strings.Contains(stdout, "-- Applying relocations --") {
		t.Errorf("verbose trace missing:\n%s", stdout)
	}

	code, err := os.ReadFile(prog)
	if err != nil {
		t.Fatal(err)
	}
	expected := []byte{0x20, 0x04, 0x80, 0x60, 0xa9, 0x42, 0x60}
	if !bytes.Equal(code, expected) {
		t.Errorf("got % X, expected % X", code, expected)
	}

	attrs, err := prodos.Read(prog)
	if err != nil || attrs == nil || *attrs != (prodos.Attributes{FileType: prodos.TypeSYS, AuxType: 0x8000}) {
		t.Errorf("attributes %+v, %v", attrs, err)
	}
}

func TestAssembleBinary(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "prog.s", "START\tLDA #1\n\tJMP START\n")
	out := filepath.Join(dir, "out.bin")

	_, stderr, err := run("", "asm", "-l", "--origin", "0x1000", "--cpu", "6502", "-o", out, src)
	if err != nil {
		t.Fatalf("asm failed: %v\n%s", err, stderr)
	}
	if !strings.Contains(stderr, "Warning: "+src+": no ORG directive") {
		t.Errorf("missing warning:\n%s", stderr)
	}

	code, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(code, []byte{0xa9, 0x01, 0x4c, 0x00, 0x10}) {
		t.Errorf("got % X", code)
	}

	listing, err := os.ReadFile(filepath.Join(dir, "out.lst"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(listing), "1002  4C 00 10") {
		t.Errorf("unexpected listing:\n%s", listing)
	}

	attrs, err := prodos.Read(out)
	if err != nil || attrs == nil || *attrs != (prodos.Attributes{FileType: prodos.TypeBIN, AuxType: 0x1000}) {
		t.Errorf("attributes %+v, %v", attrs, err)
	}
}

func TestAssembleErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeSource(t, dir, "good.s", "\tRTS\n")
	bad := writeSource(t, dir, "bad.s", "\tLDA (1\n")

	_, stderr, err := run("", "asm", good, bad)
	if !errors.Is(err, host.ErrFailed) {
		t.Errorf("unexpected error %v", err)
	}
	if !strings.Contains(stderr, "ERROR: "+bad+": line 1:") {
		t.Errorf("missing diagnostic:\n%s", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "good.obj")); err != nil {
		t.Errorf("good file not assembled: %v", err)
	}

	if _, _, err := run("", "asm", "-o", "x", good, bad); err == nil {
		t.Error("expected an error for -o with several inputs")
	}
	if _, _, err := run("", "asm", "--cpu", "z80", good); err == nil {
		t.Error("expected an error for an unknown CPU")
	}
	if _, _, err := run("", "asm", "--origin", "nowhere", good); err == nil {
		t.Error("expected an error for a bad origin")
	}
	if _, _, err := run("", "asm"); err == nil {
		t.Error("expected an error without source files")
	}
}

func TestLinkErrors(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.s", "\tEXT MISSING\n\tJSR MISSING\n")
	if _, stderr, err := run("", "asm", "-r", a); err != nil {
		t.Fatalf("asm failed: %v\n%s", err, stderr)
	}

	out := filepath.Join(dir, "prog")
	_, stderr, err := run("", "link", "-o", out, filepath.Join(dir, "a.obj"))
	if !errors.Is(err, host.ErrFailed) {
		t.Errorf("unexpected error %v", err)
	}
	if !strings.Contains(stderr, "ERROR: unresolved external symbol 'MISSING' referenced by a.obj") {
		t.Errorf("missing diagnostic:\n%s", stderr)
	}
	if _, err := os.Stat(out); err == nil {
		t.Error("output written for a failed link")
	}
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "a.s", "\tEXT PRINT\n\tENT START\nSTART\tJSR PRINT\n\tRTS\n")
	if _, stderr, err := run("", "asm", "-r", src); err != nil {
		t.Fatalf("asm failed: %v\n%s", err, stderr)
	}

	stdout, _, err := run("", "dump", filepath.Join(dir, "a.obj"))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"File type $FE", "Relocations:", "$0001  PRINT word", "Entry points:", "START", "RTS"} {
		if !strings.Contains(stdout, s) {
			t.Errorf("dump missing %q:\n%s", s, stdout)
		}
	}
}

func TestShell(t *testing.T) {
	dir := t.TempDir()
	script := writeSource(t, dir, "script", "set origin $300\n")

	stdout, _, err := run("set\nquit\n", "shell", script)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Setting Origin updated.") || !strings.Contains(stdout, "$0300") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
	if strings.Contains(stdout, "* ") {
		t.Errorf("prompt shown for non-terminal input:\n%s", stdout)
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		s     string
		value uint16
		ok    bool
	}{
		{"0x8000", 0x8000, true},
		{"0XFFFF", 0xffff, true},
		{"$c000", 0xc000, true},
		{"8000h", 0x8000, true},
		{"2048", 2048, true},
		{"65536", 0, false},
		{"$", 0, false},
		{"12G", 0, false},
		{"", 0, false},
	}

	for _, test := range tests {
		v, err := parseAddress(test.s)
		if (err == nil) != test.ok || v != test.value {
			t.Errorf("parseAddress(%q) = $%04X, %v", test.s, v, err)
		}
	}
}
