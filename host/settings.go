// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/edasm/asm"
	"github.com/beevik/edasm/cpu"
	"github.com/beevik/edasm/link"
	"github.com/beevik/prefixtree/v2"
)

type settings struct {
	Origin      uint16 `doc:"assembly origin when the source has no ORG"`
	CPU         string `doc:"target CPU, 6502 or 65C02"`
	Relocatable bool   `doc:"assemble REL modules"`
	Listing     bool   `doc:"write a listing file when assembling"`
	Verbose     bool   `doc:"trace assembly and linking"`
	LinkOrigin  uint16 `doc:"load address of linked programs"`
}

func newSettings() *settings {
	return &settings{
		Origin:      0,
		CPU:         cpu.CMOS.String(),
		Relocatable: false,
		Listing:     false,
		Verbose:     false,
		LinkOrigin:  0x0800,
	}
}

type settingsField struct {
	name  string
	index int
	kind  reflect.Kind
	typ   reflect.Type
	doc   string
}

var (
	settingsTree   = prefixtree.New[*settingsField]()
	settingsFields []settingsField
)

func init() {
	settingsType := reflect.TypeOf(settings{})
	settingsFields = make([]settingsField, settingsType.NumField())
	for i := 0; i < len(settingsFields); i++ {
		f := settingsType.Field(i)
		doc, _ := f.Tag.Lookup("doc")
		settingsFields[i] = settingsField{
			name:  f.Name,
			index: i,
			kind:  f.Type.Kind(),
			typ:   f.Type,
			doc:   doc,
		}
		settingsTree.Add(strings.ToLower(f.Name), &settingsFields[i])
	}
}

func (s *settings) Display(w io.Writer) {
	value := reflect.ValueOf(s).Elem()
	for i, f := range settingsFields {
		v := value.Field(i)
		var s string
		switch f.kind {
		case reflect.String:
			s = fmt.Sprintf("    %-16s \"%s\"", f.name, v.String())
		case reflect.Uint16:
			s = fmt.Sprintf("    %-16s $%04X", f.name, uint16(v.Uint()))
		default:
			s = fmt.Sprintf("    %-16s %v", f.name, v)
		}
		fmt.Fprintf(w, "%-28s (%s)\n", s, f.doc)
	}
}

// Name returns the full name of the setting matching a key prefix.
func (s *settings) Name(key string) (string, error) {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return "", err
	}
	return f.name, nil
}

func (s *settings) Kind(key string) reflect.Kind {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return reflect.Invalid
	}
	return f.kind
}

func (s *settings) Set(key string, value any) error {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return err
	}

	vIn := reflect.ValueOf(value)
	if (f.kind == reflect.String && vIn.Type().Kind() != reflect.String) ||
		(f.kind != reflect.String && vIn.Type().Kind() == reflect.String) ||
		!vIn.Type().ConvertibleTo(f.typ) {
		return errors.New("invalid type")
	}
	vInConverted := vIn.Convert(f.typ)

	vOut := reflect.ValueOf(s).Elem().Field(f.index)
	vOut.Set(vInConverted)

	return nil
}

// Return assembler options reflecting the current settings.
func (s *settings) asmOptions(log io.Writer) asm.Options {
	o := asm.Options{
		CPU:         s.CPU,
		Relocatable: s.Relocatable,
		Listing:     s.Listing,
		Verbose:     s.Verbose,
		Log:         log,
	}
	if s.Origin != 0 {
		origin := s.Origin
		o.Origin = &origin
	}
	return o
}

// Return linker options reflecting the current settings.
func (s *settings) linkOptions(log io.Writer) link.Options {
	origin := s.LinkOrigin
	return link.Options{
		Origin:  &origin,
		Verbose: s.Verbose,
		Log:     log,
	}
}
