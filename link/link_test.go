// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/edasm/asm"
	"github.com/beevik/edasm/prodos"
	"github.com/beevik/edasm/rel"
)

func assembleModule(t *testing.T, src string) []byte {
	t.Helper()
	r := asm.Assemble(src, asm.Options{Relocatable: true, Log: io.Discard})
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	return r.Artifacts.ObjectBytes
}

func origin(v uint16) *uint16 {
	return &v
}

func checkImage(t *testing.T, r *Result, expected []byte) {
	t.Helper()
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(r.Executable, expected) {
		t.Errorf("image mismatch.\n got: % X\n exp: % X", r.Executable, expected)
	}
}

func TestLinkExternal(t *testing.T) {
	a := assembleModule(t, `
	EXT SUB2
	JSR SUB2
	RTS`)
	b := assembleModule(t, `
	ENT SUB2
SUB2	LDA #$42
	RTS`)

	r := Link([][]byte{a, b}, Options{Origin: origin(0x8000), Log: io.Discard})
	checkImage(t, r, []byte{0x20, 0x04, 0x80, 0x60, 0xa9, 0x42, 0x60})

	if r.Symbols["SUB2"] != 0x8004 {
		t.Errorf("SUB2 = $%04X", r.Symbols["SUB2"])
	}
	if len(r.Modules) != 2 || r.Modules[0].Base != 0x8000 || r.Modules[1].Base != 0x8004 || r.Modules[1].Length != 3 {
		t.Errorf("unexpected load map %+v", r.Modules)
	}
	if r.Attributes != (prodos.Attributes{FileType: prodos.TypeSYS, AuxType: 0x8000}) {
		t.Errorf("attributes %+v", r.Attributes)
	}
}

func TestLinkInternal(t *testing.T) {
	a := assembleModule(t, `
	LDA DATA
DATA	DB 0`)

	r := Link([][]byte{a}, Options{Origin: origin(0x9000), Log: io.Discard})
	checkImage(t, r, []byte{0xad, 0x03, 0x90, 0x00})
}

func TestLinkDefaultOrigin(t *testing.T) {
	a := assembleModule(t, `
START	JMP START`)

	r := Link([][]byte{a}, Options{Log: io.Discard})
	checkImage(t, r, []byte{0x4c, 0x00, 0x08})
	if r.Attributes.AuxType != DefaultOrigin {
		t.Errorf("aux type $%04X", r.Attributes.AuxType)
	}
}

func TestLinkAddend(t *testing.T) {
	a := assembleModule(t, `
	EXT TABLE
	LDA TABLE+2`)
	b := assembleModule(t, `
	ENT TABLE
TABLE	DB 1,2,3`)

	r := Link([][]byte{a, b}, Options{Origin: origin(0x1000), Log: io.Discard})
	checkImage(t, r, []byte{0xad, 0x05, 0x10, 0x01, 0x02, 0x03})
}

func TestLinkRelative(t *testing.T) {
	obj := rel.NewObject([]byte{0xea, 0x80, 0x10}, []rel.Relocation{{Offset: 1, Word: true, Relative: true}}, nil)
	b, err := rel.Encode(obj)
	if err != nil {
		t.Fatal(err)
	}

	// A relative field keeps its distance from its own address.
	r := Link([][]byte{b}, Options{Origin: origin(0x2000), Log: io.Discard})
	checkImage(t, r, []byte{0xea, 0x7f, 0x10})
}

func TestLinkUnresolved(t *testing.T) {
	a := assembleModule(t, `
	EXT MISSING,ALSO
	JSR MISSING
	JSR ALSO
	JSR MISSING`)

	r := Link([][]byte{a}, Options{Names: []string{"a.rel"}, Log: io.Discard})
	if r.OK || r.Executable != nil {
		t.Fatal("expected link to fail")
	}
	if len(r.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %q", r.Errors)
	}
	if !errors.Is(r.Err(), ErrUnresolvedExternal) {
		t.Errorf("unexpected error %v", r.Err())
	}
	if !strings.Contains(r.Errors[0], "MISSING") || !strings.Contains(r.Errors[0], "a.rel") {
		t.Errorf("unexpected message %q", r.Errors[0])
	}
}

func TestLinkDuplicate(t *testing.T) {
	a := assembleModule(t, `
	ENT DUP
DUP	RTS`)
	b := assembleModule(t, `
	ENT DUP
	EXT NOWHERE
DUP	JMP NOWHERE`)

	r := Link([][]byte{a, b}, Options{Log: io.Discard})
	if r.OK {
		t.Fatal("expected link to fail")
	}
	if len(r.Errs) != 2 || !errors.Is(r.Errs[0], ErrDuplicateSymbol) || !errors.Is(r.Errs[1], ErrUnresolvedExternal) {
		t.Errorf("unexpected errors %q", r.Errors)
	}
	if !strings.Contains(r.Errors[0], "module 2") || !strings.Contains(r.Errors[0], "module 1") {
		t.Errorf("unexpected message %q", r.Errors[0])
	}
}

func TestLinkDecodeError(t *testing.T) {
	good := assembleModule(t, "\tRTS")
	r := Link([][]byte{good, {0x05, 0x00, 0x01}}, Options{Log: io.Discard})
	if r.OK {
		t.Fatal("expected link to fail")
	}
	if !errors.Is(r.Err(), rel.ErrDecode) || !strings.HasPrefix(r.Errors[0], "module 2:") {
		t.Errorf("unexpected errors %q", r.Errors)
	}
}

func TestLinkNothing(t *testing.T) {
	if r := Link(nil, Options{Log: io.Discard}); r.OK {
		t.Error("expected link of no modules to fail")
	}
}

func TestLinkTooLarge(t *testing.T) {
	obj := rel.NewObject(make([]byte, 0x100), nil, nil)
	b, err := rel.Encode(obj)
	if err != nil {
		t.Fatal(err)
	}

	r := Link([][]byte{b}, Options{Origin: origin(0xff80), Log: io.Discard})
	if !errors.Is(r.Err(), ErrImageTooLarge) {
		t.Errorf("unexpected error %v", r.Err())
	}
}

func TestLinkFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.rel")
	if err := os.WriteFile(path, assembleModule(t, "\tNOP"), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := LinkFiles([]string{path}, Options{Log: io.Discard})
	if err != nil {
		t.Fatal(err)
	}
	checkImage(t, r, []byte{0xea})
	if r.Modules[0].Name != "main.rel" {
		t.Errorf("module name %q", r.Modules[0].Name)
	}

	if _, err := LinkFiles([]string{filepath.Join(dir, "missing.rel")}, Options{}); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestWriteMap(t *testing.T) {
	a := assembleModule(t, `
	ENT START
START	RTS`)

	r := Link([][]byte{a}, Options{Origin: origin(0x4000), Names: []string{"main.rel"}, Log: io.Discard})
	var buf bytes.Buffer
	if err := r.WriteMap(&buf); err != nil {
		t.Fatal(err)
	}

	expected := fmt.Sprintf("$4000-$4000  main.rel\n%-16s $4000\n", "START")
	if buf.String() != expected {
		t.Errorf("got:\n%s\nexpected:\n%s", buf.String(), expected)
	}
}

func TestLinkVerbose(t *testing.T) {
	a := assembleModule(t, "\tRTS")

	var buf bytes.Buffer
	Link([][]byte{a}, Options{Verbose: true, Log: &buf})
	if !strings.Contains(buf.String(), "-- Assigning load addresses --") {
		t.Errorf("verbose output missing sections:\n%s", buf.String())
	}
}
