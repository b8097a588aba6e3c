// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"
)

// A directive identifies an assembler pseudo-op.
type directive byte

const (
	dirNone directive = iota // not a directive
	dirORG                   // set the program counter
	dirEQU                   // define a constant
	dirDB                    // bytes
	dirDW                    // little-endian words
	dirDDB                   // big-endian words
	dirASC                   // ASCII string
	dirDCI                   // string with the last character inverted
	dirDS                    // reserve storage
	dirEXT                   // declare external symbols
	dirENT                   // declare entry points
	dirREL                   // produce a relocatable module
	dirCHN                   // chain to another source file
	dirEND                   // end of source
)

var directives = map[string]directive{
	"ORG": dirORG,
	"EQU": dirEQU,
	"=":   dirEQU,
	"DB":  dirDB,
	"DFB": dirDB,
	"DW":  dirDW,
	"DA":  dirDW,
	"DDB": dirDDB,
	"ASC": dirASC,
	"DCI": dirDCI,
	"DS":  dirDS,
	"EXT": dirEXT,
	"ENT": dirENT,
	"REL": dirREL,
	"CHN": dirCHN,
	"END": dirEND,
}

func lookupDirective(mnemonic string) directive {
	return directives[mnemonic]
}

// Report whether the directive requires an operand.
func (d directive) needsOperand() bool {
	switch d {
	case dirORG, dirEQU, dirDB, dirDW, dirDDB, dirASC, dirDCI, dirDS, dirEXT, dirENT:
		return true
	default:
		return false
	}
}

// Return the number of bytes each operand of a data directive occupies.
func (d directive) width() int {
	switch d {
	case dirDB:
		return 1
	case dirDW, dirDDB:
		return 2
	default:
		return 0
	}
}

// Parse a quoted string operand. Either quote character may delimit the
// string, and the closing quote must match the opening one.
func parseString(operand string) (string, error) {
	if operand == "" || !stringQuote(operand[0]) {
		return "", fmt.Errorf("%w: expected quoted string, found '%s'", ErrSyntax, operand)
	}

	q := operand[0]
	end := strings.IndexByte(operand[1:], q)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string %s", ErrSyntax, operand)
	}
	if rest := strings.TrimSpace(operand[end+2:]); rest != "" {
		return "", fmt.Errorf("%w: unexpected '%s' after string", ErrSyntax, rest)
	}
	return operand[1 : end+1], nil
}

// Return the bytes of an ASC or DCI string.
func stringBytes(s string, dci bool) []byte {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		b[i] = s[i] & 0x7f
	}
	if dci && len(b) > 0 {
		b[len(b)-1] |= 0x80
	}
	return b
}

// Split a list of symbol names, checking that each is an identifier.
func parseNames(operand string) ([]string, error) {
	names := splitOperands(operand)
	for _, n := range names {
		if !isIdentifier(n) || strings.HasPrefix(n, ".") {
			return nil, fmt.Errorf("%w: invalid symbol name '%s'", ErrSyntax, n)
		}
	}
	return names, nil
}

func isLocal(label string) bool {
	return strings.HasPrefix(label, ".")
}
