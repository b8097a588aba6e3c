// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"sort"
	"strings"
)

// SymbolFlags is a bitset describing the state of a symbol.
type SymbolFlags byte

// Symbol flag bits.
const (
	Unreferenced SymbolFlags = 0x01 // never referenced by an expression
	Relocatable  SymbolFlags = 0x08 // value depends on the load address
	External     SymbolFlags = 0x10 // defined by another module
	Undefined    SymbolFlags = 0x80 // referenced but not yet defined
)

// A Symbol associates a name with a value.
type Symbol struct {
	Name    string
	Value   int
	Flags   SymbolFlags
	Defined bool
}

// IsRelocatable reports whether the symbol's value is relative to the
// module's load address.
func (s *Symbol) IsRelocatable() bool {
	return s.Flags&Relocatable != 0
}

// IsExternal reports whether the symbol is defined by another module.
func (s *Symbol) IsExternal() bool {
	return s.Flags&External != 0
}

// A SymbolTable maps upper-cased names to symbols. Each assembly owns its
// own table.
type SymbolTable struct {
	symbols map[string]*Symbol
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]*Symbol)}
}

// Define assigns a value to a symbol, creating it if necessary. Defining a
// symbol that is already defined fails with ErrDuplicateSymbol.
func (t *SymbolTable) Define(name string, value int, relocatable bool) error {
	name = strings.ToUpper(name)
	sym, ok := t.symbols[name]
	switch {
	case !ok:
		sym = &Symbol{Name: name, Flags: Unreferenced}
		t.symbols[name] = sym
	case sym.Defined:
		return fmt.Errorf("%w '%s'", ErrDuplicateSymbol, name)
	}

	sym.Value = value
	sym.Defined = true
	sym.Flags &^= Undefined
	if relocatable {
		sym.Flags |= Relocatable
	}
	return nil
}

// DefineExternal declares a symbol that another module defines. Its value
// is zero until the linker resolves it.
func (t *SymbolTable) DefineExternal(name string) error {
	if err := t.Define(name, 0, false); err != nil {
		return err
	}
	t.symbols[strings.ToUpper(name)].Flags |= External
	return nil
}

// Reference returns the named symbol, creating an undefined placeholder
// if it does not exist yet. The symbol is marked as referenced.
func (t *SymbolTable) Reference(name string) *Symbol {
	name = strings.ToUpper(name)
	sym, ok := t.symbols[name]
	if !ok {
		sym = &Symbol{Name: name, Flags: Undefined}
		t.symbols[name] = sym
	}
	sym.Flags &^= Unreferenced
	return sym
}

// Lookup returns the named symbol without marking it as referenced.
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := t.symbols[strings.ToUpper(name)]
	return sym, ok
}

// Has reports whether the table holds an entry for the name, defined or
// not.
func (t *SymbolTable) Has(name string) bool {
	_, ok := t.symbols[strings.ToUpper(name)]
	return ok
}

// Get returns the value of a defined symbol.
func (t *SymbolTable) Get(name string) (int, bool) {
	sym, ok := t.Lookup(name)
	if !ok || !sym.Defined {
		return 0, false
	}
	return sym.Value, true
}

// Len returns the number of symbols in the table.
func (t *SymbolTable) Len() int {
	return len(t.symbols)
}

// Clone returns a copy of the table that can be changed without affecting
// the original.
func (t *SymbolTable) Clone() *SymbolTable {
	c := NewSymbolTable()
	for name, sym := range t.symbols {
		s := *sym
		c.symbols[name] = &s
	}
	return c
}

// Names returns all symbol names in sorted order.
func (t *SymbolTable) Names() []string {
	names := make([]string, 0, len(t.symbols))
	for name := range t.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Undefined returns the sorted names of symbols that have been referenced
// but never defined.
func (t *SymbolTable) Undefined() []string {
	var names []string
	for name, sym := range t.symbols {
		if !sym.Defined {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Qualify returns the full name of a label. Local labels, which begin with
// '.', are prefixed by the enclosing global label.
func Qualify(name, scope string) string {
	if strings.HasPrefix(name, ".") && scope != "" {
		name = scope + name
	}
	return strings.ToUpper(name)
}
