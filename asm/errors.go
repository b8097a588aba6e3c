// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"fmt"
)

// Error conditions reported by the assembler. Diagnostics wrap one of
// these, so callers may test them with errors.Is.
var (
	ErrDuplicateSymbol       = errors.New("duplicate symbol")
	ErrUndefinedSymbol       = errors.New("undefined symbol")
	ErrUnknownMnemonic       = errors.New("unknown mnemonic")
	ErrInvalidAddressingMode = errors.New("invalid addressing mode")
	ErrBranchOutOfRange      = errors.New("branch out of range")
	ErrMissingOperand        = errors.New("missing operand")
	ErrSyntax                = errors.New("syntax error")
	ErrPhase                 = errors.New("phase error")
)

// An Error describes a problem found on one line of the source.
type Error struct {
	Line int    // 1-based line number, or 0 if not tied to a line
	Err  error  // wraps one of the Err* conditions
	Msg  string // detail message
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// An ErrorList is returned when assembly fails. It holds every diagnostic
// collected by the failing pass.
type ErrorList []*Error

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
	}
}

// Unwrap exposes the individual diagnostics to errors.Is and errors.As.
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}
