// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rel reads and writes relocatable object modules.
//
// A module is laid out as follows, with all multi-byte fields stored
// little-endian:
//
//	u16        code length N
//	N bytes    code
//	entries    relocation dictionary, one entry per relocation:
//	             u8  type (0x80 word, 0x40 PC-relative, 0x01 external)
//	             u16 offset of the field within the code
//	             u8  name length, then the name (external entries only)
//	u8         0x00, ending the dictionary
//	symbols    until the end of the data:
//	             name with the high bit set on its last character
//	             u8  flags
//	             u16 value relative to the start of the module
//
// A relocation that is byte-sized, absolute and internal has type 0x00,
// which cannot be told apart from the end of the dictionary, so such
// relocations are not representable.
package rel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Errors returned by Decode and Encode wrap one of these.
var (
	ErrDecode = errors.New("malformed REL object")
	ErrEncode = errors.New("cannot encode REL object")
)

// Relocation type bits.
const (
	TypeWord     byte = 0x80 // the field is two bytes wide
	TypeRelative byte = 0x40 // the field is relative to its own address
	TypeExternal byte = 0x01 // the field refers to a symbol in another module

	typeReserved = ^(TypeWord | TypeRelative | TypeExternal)
)

const (
	endOfRelocations = 0x00
	maxCodeLength    = 0xffff
	maxNameLength    = 0xff
)

// A Header summarizes a module.
type Header struct {
	CodeLength   int      // length of the code in bytes
	EntryPoints  []string // names of the symbols the module exports
	ExternalRefs []string // names of the symbols the module imports
}

// A Relocation identifies a field in the code whose value depends on
// where the module is loaded or on a symbol defined by another module.
type Relocation struct {
	Offset   uint16 // offset of the field within the code
	Word     bool   // two-byte field if set, one byte otherwise
	Relative bool   // field is relative to its own address
	Symbol   string // name of the external symbol, or empty
}

// IsExternal reports whether the relocation refers to a symbol defined in
// another module.
func (r *Relocation) IsExternal() bool {
	return r.Symbol != ""
}

// Width returns the size of the relocated field in bytes.
func (r *Relocation) Width() int {
	if r.Word {
		return 2
	}
	return 1
}

func (r *Relocation) typeByte() byte {
	var t byte
	if r.Word {
		t |= TypeWord
	}
	if r.Relative {
		t |= TypeRelative
	}
	if r.IsExternal() {
		t |= TypeExternal
	}
	return t
}

// A Symbol is an entry point exported by a module.
type Symbol struct {
	Name  string
	Flags byte
	Value uint16 // value relative to the start of the module
}

// An Object is a decoded relocatable module.
type Object struct {
	Header      Header
	Code        []byte
	Relocations []Relocation
	Symbols     []Symbol
}

// NewObject creates an object from its parts and fills in its header.
func NewObject(code []byte, relocs []Relocation, symbols []Symbol) *Object {
	o := &Object{
		Code:        code,
		Relocations: relocs,
		Symbols:     symbols,
	}
	o.Header = o.header()
	return o
}

// Derive the header from the object's contents.
func (o *Object) header() Header {
	h := Header{CodeLength: len(o.Code)}

	seen := make(map[string]bool)
	for _, r := range o.Relocations {
		if r.IsExternal() && !seen[r.Symbol] {
			seen[r.Symbol] = true
			h.ExternalRefs = append(h.ExternalRefs, r.Symbol)
		}
	}
	for _, s := range o.Symbols {
		h.EntryPoints = append(h.EntryPoints, s.Name)
	}
	return h
}

// Encode serializes an object.
func Encode(o *Object) ([]byte, error) {
	if len(o.Code) > maxCodeLength {
		return nil, fmt.Errorf("%w: code length %d exceeds 64K", ErrEncode, len(o.Code))
	}

	b := make([]byte, 0, 2+len(o.Code)+3*len(o.Relocations)+1)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(o.Code)))
	b = append(b, o.Code...)

	for _, r := range o.Relocations {
		t := r.typeByte()
		if t == endOfRelocations {
			return nil, fmt.Errorf("%w: byte-sized absolute relocation at offset $%04X", ErrEncode, r.Offset)
		}
		if int(r.Offset)+r.Width() > len(o.Code) {
			return nil, fmt.Errorf("%w: relocation at offset $%04X lies outside the code", ErrEncode, r.Offset)
		}

		b = append(b, t)
		b = binary.LittleEndian.AppendUint16(b, r.Offset)
		if r.IsExternal() {
			if err := checkName(r.Symbol); err != nil {
				return nil, err
			}
			b = append(b, byte(len(r.Symbol)))
			b = append(b, r.Symbol...)
		}
	}
	b = append(b, endOfRelocations)

	for _, s := range o.Symbols {
		if err := checkName(s.Name); err != nil {
			return nil, err
		}
		last := len(s.Name) - 1
		b = append(b, s.Name[:last]...)
		b = append(b, s.Name[last]|0x80)
		b = append(b, s.Flags)
		b = binary.LittleEndian.AppendUint16(b, s.Value)
	}
	return b, nil
}

func checkName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty symbol name", ErrEncode)
	case len(name) > maxNameLength:
		return fmt.Errorf("%w: symbol name '%s' is too long", ErrEncode, name)
	}
	for i := 0; i < len(name); i++ {
		if name[i] >= 0x80 {
			return fmt.Errorf("%w: symbol name '%s' is not ASCII", ErrEncode, name)
		}
	}
	return nil
}

// Decode parses a serialized object. The end-of-relocations marker may be
// omitted when the module has no symbols.
func Decode(b []byte) (*Object, error) {
	d := decoder{b: b}

	n, ok := d.uint16()
	if !ok {
		return nil, fmt.Errorf("%w: missing code length", ErrDecode)
	}
	code, ok := d.bytes(int(n))
	if !ok {
		return nil, fmt.Errorf("%w: code truncated (%d of %d bytes)", ErrDecode, len(b)-2, n)
	}

	o := &Object{Code: append([]byte{}, code...)}

	for !d.done() {
		start := d.pos
		t := d.b[d.pos]
		d.pos++
		if t == endOfRelocations {
			break
		}
		if t&typeReserved != 0 {
			return nil, fmt.Errorf("%w: reserved bits set in relocation type $%02X at $%04X", ErrDecode, t, start)
		}

		off, ok := d.uint16()
		if !ok {
			return nil, fmt.Errorf("%w: relocation entry at $%04X truncated", ErrDecode, start)
		}
		r := Relocation{
			Offset:   off,
			Word:     t&TypeWord != 0,
			Relative: t&TypeRelative != 0,
		}
		if int(off)+r.Width() > len(o.Code) {
			return nil, fmt.Errorf("%w: relocation at offset $%04X lies outside the code", ErrDecode, off)
		}

		if t&TypeExternal != 0 {
			l, ok := d.byte()
			if !ok {
				return nil, fmt.Errorf("%w: relocation entry at $%04X truncated", ErrDecode, start)
			}
			if l == 0 {
				return nil, fmt.Errorf("%w: empty external name at $%04X", ErrDecode, start)
			}
			name, ok := d.bytes(int(l))
			if !ok {
				return nil, fmt.Errorf("%w: external name at $%04X truncated", ErrDecode, start)
			}
			r.Symbol = string(name)
		}
		o.Relocations = append(o.Relocations, r)
	}

	for !d.done() {
		start := d.pos
		name, ok := d.dci()
		if !ok {
			return nil, fmt.Errorf("%w: unterminated symbol name at $%04X", ErrDecode, start)
		}
		flags, ok1 := d.byte()
		value, ok2 := d.uint16()
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: symbol '%s' truncated", ErrDecode, name)
		}
		o.Symbols = append(o.Symbols, Symbol{Name: name, Flags: flags, Value: value})
	}

	o.Header = o.header()
	return o, nil
}

// ReadFrom reads and decodes an object from a binary input source.
func (o *Object) ReadFrom(r io.Reader) (n int64, err error) {
	b, err := io.ReadAll(r)
	n = int64(len(b))
	if err != nil {
		return n, err
	}

	obj, err := Decode(b)
	if err != nil {
		return n, err
	}
	*o = *obj
	return n, nil
}

// WriteTo encodes the object and writes it to an output writer.
func (o *Object) WriteTo(w io.Writer) (n int64, err error) {
	b, err := Encode(o)
	if err != nil {
		return 0, err
	}
	nn, err := w.Write(b)
	return int64(nn), err
}

// A decoder reads fields sequentially from a byte slice.
type decoder struct {
	b   []byte
	pos int
}

func (d *decoder) done() bool {
	return d.pos >= len(d.b)
}

func (d *decoder) byte() (byte, bool) {
	if d.done() {
		return 0, false
	}
	c := d.b[d.pos]
	d.pos++
	return c, true
}

func (d *decoder) uint16() (uint16, bool) {
	if d.pos+2 > len(d.b) {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(d.b[d.pos:])
	d.pos += 2
	return v, true
}

func (d *decoder) bytes(n int) ([]byte, bool) {
	if d.pos+n > len(d.b) {
		return nil, false
	}
	b := d.b[d.pos : d.pos+n]
	d.pos += n
	return b, true
}

// Read a name whose last character has its high bit set.
func (d *decoder) dci() (string, bool) {
	for i := d.pos; i < len(d.b); i++ {
		if d.b[i]&0x80 != 0 {
			name := make([]byte, i-d.pos+1)
			copy(name, d.b[d.pos:i+1])
			name[len(name)-1] &= 0x7f
			d.pos = i + 1
			return string(name), true
		}
	}
	return "", false
}
