// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"io"
	"strings"
)

const (
	listBytesPerLine = 4
	listIndent       = 20 // width of the address and byte columns
)

// A listing accumulates the lines of an assembly listing.
type listing struct {
	lines []string
}

// Add a line showing an address, the bytes generated at it and the source
// text. Bytes that do not fit on the line continue on following lines.
func (l *listing) add(addr int, b []byte, raw string) {
	n := min(len(b), listBytesPerLine)
	l.lines = append(l.lines, fmt.Sprintf("%04X  %-12s  %s", addr&0xffff, byteString(b[:n]), raw))

	for i := n; i < len(b); i += listBytesPerLine {
		j := min(i+listBytesPerLine, len(b))
		l.lines = append(l.lines, fmt.Sprintf("%04X  %s", (addr+i)&0xffff, byteString(b[i:j])))
	}
}

// Add a line of source text that generated nothing.
func (l *listing) addText(raw string) {
	l.lines = append(l.lines, strings.Repeat(" ", listIndent)+raw)
}

func (l *listing) String() string {
	if len(l.lines) == 0 {
		return ""
	}
	return strings.Join(l.lines, "\n") + "\n"
}

// WriteTo writes the symbol table as a sorted list of names, values and
// flags. Flags are R (relocatable), X (external), U (unreferenced) and
// ? (undefined).
func (t *SymbolTable) WriteTo(w io.Writer) (n int64, err error) {
	for _, name := range t.Names() {
		sym := t.symbols[name]

		var flags []byte
		if sym.IsRelocatable() {
			flags = append(flags, 'R')
		}
		if sym.IsExternal() {
			flags = append(flags, 'X')
		}
		if sym.Flags&Unreferenced != 0 {
			flags = append(flags, 'U')
		}
		if !sym.Defined {
			flags = append(flags, '?')
		}

		line := fmt.Sprintf("%-16s $%04X %s", name, sym.Value&0xffff, flags)
		nn, err := io.WriteString(w, strings.TrimRight(line, " ")+"\n")
		n += int64(nn)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
