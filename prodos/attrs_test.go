// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prodos

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPath(t *testing.T) {
	tests := []struct{ target, expected string }{
		{"prog.bin", ".prog.bin"},
		{filepath.Join("out", "prog.rel"), filepath.Join("out", ".prog.rel")},
	}
	for _, test := range tests {
		if got := Path(test.target); got != test.expected {
			t.Errorf("Path(%q) = %q, expected %q", test.target, got, test.expected)
		}
	}
}

func TestWriteRead(t *testing.T) {
	target := filepath.Join(t.TempDir(), "prog.bin")

	if err := Write(target, Attributes{FileType: TypeBIN, AuxType: 0x2000}); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(Path(target))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"fileType": 6`) || !strings.Contains(string(b), `"auxType": 8192`) {
		t.Errorf("unexpected sidecar contents:\n%s", b)
	}

	attrs, err := Read(target)
	if err != nil {
		t.Fatal(err)
	}
	if attrs == nil || attrs.FileType != TypeBIN || attrs.AuxType != 0x2000 {
		t.Errorf("read back %+v", attrs)
	}
}

func TestReadMissing(t *testing.T) {
	attrs, err := Read(filepath.Join(t.TempDir(), "missing.bin"))
	if attrs != nil || err != nil {
		t.Errorf("got %v, %v", attrs, err)
	}
}

func TestReadMalformed(t *testing.T) {
	target := filepath.Join(t.TempDir(), "prog.bin")
	if err := os.WriteFile(Path(target), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(target); err == nil {
		t.Error("expected an error for a malformed sidecar")
	}
}
