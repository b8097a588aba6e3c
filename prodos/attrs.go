// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package prodos persists the ProDOS file attributes of assembled and
// linked output in a JSON sidecar file stored next to the output.
package prodos

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ProDOS file types written by the assembler and linker.
const (
	TypeBIN byte = 0x06 // binary file
	TypeREL byte = 0xfe // relocatable object module
	TypeSYS byte = 0xff // system program
)

// Attributes holds the ProDOS file type and auxiliary type of a file. For
// binary files the auxiliary type is the load address.
type Attributes struct {
	FileType byte   `json:"fileType"`
	AuxType  uint16 `json:"auxType"`
}

// Path returns the path of the sidecar file describing target: a file
// named ".<base>" in the same directory.
func Path(target string) string {
	dir, base := filepath.Split(target)
	return filepath.Join(dir, "."+base)
}

// ReadFrom reads attributes from a JSON input source.
func (a *Attributes) ReadFrom(r io.Reader) (n int64, err error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	err = json.Unmarshal(b, a)
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}

// WriteTo writes the attributes to an output stream as JSON.
func (a *Attributes) WriteTo(w io.Writer) (n int64, err error) {
	b, err := json.MarshalIndent(*a, "", "  ")
	if err != nil {
		return 0, err
	}

	nn, err := w.Write(b)
	return int64(nn), err
}

// Write stores the attributes of target in its sidecar file.
func Write(target string, attrs Attributes) error {
	f, err := os.Create(Path(target))
	if err != nil {
		return err
	}

	_, err = attrs.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Read loads the attributes of target from its sidecar file. It returns
// nil and no error if the sidecar does not exist.
func Read(target string) (*Attributes, error) {
	f, err := os.Open(Path(target))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	attrs := new(Attributes)
	if _, err := attrs.ReadFrom(f); err != nil {
		return nil, err
	}
	return attrs, nil
}
