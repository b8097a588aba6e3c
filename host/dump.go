// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/edasm/cpu"
	"github.com/beevik/edasm/disasm"
	"github.com/beevik/edasm/prodos"
	"github.com/beevik/edasm/rel"
	"github.com/k0kubun/pp/v3"
)

// Dump describes an output file. A REL module is decoded, its header,
// relocation dictionary and entry points are printed, and its code is
// disassembled with relocated fields marked. Any other file is
// disassembled at the load address recorded in its attribute sidecar.
func Dump(w io.Writer, path string, arch cpu.Architecture) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	attrs, err := prodos.Read(path)
	if err != nil {
		return err
	}

	set := cpu.GetInstructionSet(arch)
	if attrs != nil {
		fmt.Fprintf(w, "File type $%02X, aux type $%04X\n", attrs.FileType, attrs.AuxType)
	}

	// Without a sidecar the file is treated as REL if it decodes as one.
	if attrs == nil || attrs.FileType == prodos.TypeREL {
		obj, err := rel.Decode(b)
		switch {
		case err == nil:
			return dumpObject(w, obj, set)
		case attrs != nil:
			return err
		}
	}

	var base uint16
	if attrs != nil {
		base = attrs.AuxType
	}
	fmt.Fprintf(w, "%d bytes at $%04X\n", len(b), base)
	return disasm.Listing(w, b, base, set, nil)
}

func dumpObject(w io.Writer, obj *rel.Object, set *cpu.InstructionSet) error {
	printer := pp.New()
	printer.SetColoringEnabled(false)
	printer.Fprintln(w, obj.Header)

	if len(obj.Relocations) > 0 {
		fmt.Fprintln(w, "Relocations:")
		for _, r := range obj.Relocations {
			fmt.Fprintf(w, "    $%04X  %s\n", r.Offset, relocationString(&r))
		}
	}
	if len(obj.Symbols) > 0 {
		fmt.Fprintln(w, "Entry points:")
		for _, s := range obj.Symbols {
			fmt.Fprintf(w, "    %-16s $%04X\n", s.Name, s.Value)
		}
	}

	annotate := func(off, length int) string {
		var notes []string
		for _, r := range obj.Relocations {
			if int(r.Offset) >= off && int(r.Offset) < off+length {
				notes = append(notes, relocationString(&r))
			}
		}
		return strings.Join(notes, ", ")
	}
	return disasm.Listing(w, obj.Code, 0, set, annotate)
}

func relocationString(r *rel.Relocation) string {
	var s string
	switch {
	case r.IsExternal():
		s = r.Symbol
	default:
		s = "reloc"
	}
	if r.Word {
		s += " word"
	} else {
		s += " byte"
	}
	if r.Relative {
		s += " relative"
	}
	return s
}
