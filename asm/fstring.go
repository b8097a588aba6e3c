// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "strings"

// An fstring is a substring of a source line that remembers the line it
// came from and the column at which it starts.
type fstring struct {
	row    int    // 1-based line number of substring
	column int    // 0-based column of start of substring
	str    string // the actual substring of interest
	full   string // the full line as originally read
}

func newFstring(row int, str string) fstring {
	return fstring{row, 0, str, str}
}

func (l fstring) String() string {
	return l.str
}

func (l *fstring) advanceColumn(n int) int {
	c := l.column
	for i := 0; i < n; i++ {
		if l.str[i] == '\t' {
			c += 8 - (c % 8)
		} else {
			c++
		}
	}
	return c
}

func (l fstring) consume(n int) fstring {
	col := l.advanceColumn(n)
	return fstring{l.row, col, l.str[n:], l.full}
}

func (l fstring) trunc(n int) fstring {
	return fstring{l.row, l.column, l.str[:n], l.full}
}

func (l fstring) isEmpty() bool {
	return len(l.str) == 0
}

func (l fstring) startsWith(fn func(c byte) bool) bool {
	return len(l.str) > 0 && fn(l.str[0])
}

func (l fstring) startsWithChar(c byte) bool {
	return len(l.str) > 0 && l.str[0] == c
}

func (l fstring) consumeWhitespace() fstring {
	return l.consume(l.scanWhile(whitespace))
}

func (l fstring) trimRight() fstring {
	return l.trunc(len(strings.TrimRight(l.str, " \t")))
}

func (l fstring) scanWhile(fn func(c byte) bool) int {
	i := 0
	for ; i < len(l.str) && fn(l.str[i]); i++ {
	}
	return i
}

func (l fstring) consumeWhile(fn func(c byte) bool) (consumed, remain fstring) {
	i := l.scanWhile(fn)
	consumed, remain = l.trunc(i), l.consume(i)
	return
}

// Return the index of the first occurrence of c that is not inside a
// quoted string, or -1.
func (l fstring) indexUnquoted(c byte) int {
	var quote byte
	for i := 0; i < len(l.str); i++ {
		switch {
		case quote != 0:
			if l.str[i] == quote {
				quote = 0
			}
		case l.str[i] == c:
			return i
		case stringQuote(l.str[i]):
			quote = l.str[i]
		}
	}
	return -1
}

func (l fstring) consumeUntilUnquotedChar(c byte) (consumed, remain fstring) {
	i := l.indexUnquoted(c)
	if i < 0 {
		i = len(l.str)
	}
	consumed, remain = l.trunc(i), l.consume(i)
	return
}

// Split the line at the first unquoted comment character, returning the
// code portion and the comment text (without the ';').
func (l fstring) splitComment() (code, comment fstring) {
	i := l.indexUnquoted(';')
	if i < 0 {
		return l, fstring{row: l.row, full: l.full}
	}
	return l.trunc(i), l.consume(i + 1)
}

// Split a comma-separated operand list, ignoring commas inside quotes.
func splitOperands(s string) []string {
	var parts []string
	remain := newFstring(0, s)
	for {
		var part fstring
		part, remain = remain.consumeUntilUnquotedChar(',')
		parts = append(parts, strings.TrimSpace(part.str))
		if remain.isEmpty() {
			break
		}
		remain = remain.consume(1)
	}
	return parts
}

//
// character helper functions
//

func whitespace(c byte) bool {
	return c == ' ' || c == '\t'
}

func wordChar(c byte) bool {
	return c != ' ' && c != '\t'
}

func alpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func decimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func hexadecimal(c byte) bool {
	return decimal(c) || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func binarynum(c byte) bool {
	return c == '0' || c == '1'
}

func labelStartChar(c byte) bool {
	return alpha(c) || c == '_' || c == '.'
}

func labelChar(c byte) bool {
	return alpha(c) || decimal(c) || c == '_' || c == '.'
}

func stringQuote(c byte) bool {
	return c == '"' || c == '\''
}

// Report whether s is a well-formed identifier.
func isIdentifier(s string) bool {
	if len(s) == 0 || !labelStartChar(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !labelChar(s[i]) {
			return false
		}
	}
	return true
}
