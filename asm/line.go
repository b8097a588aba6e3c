// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strings"
)

// A SourceLine holds the fields of one line of assembly source.
type SourceLine struct {
	Number   int    // 1-based line number
	Raw      string // the line as read, without its line terminator
	Label    string // label field, as written
	Mnemonic string // instruction or directive, upper-cased
	Operand  string // operand text with surrounding whitespace removed
	Comment  string // comment text following ';'
}

// IsEmpty reports whether the line carries neither a label nor a
// mnemonic.
func (s *SourceLine) IsEmpty() bool {
	return s.Label == "" && s.Mnemonic == ""
}

// ParseLine splits a single line of source into its label, mnemonic,
// operand and comment fields.
func ParseLine(raw string, number int) SourceLine {
	raw = strings.TrimRight(raw, "\r\n")
	sl := SourceLine{Number: number, Raw: raw}

	line := newFstring(number, raw)

	// A '*' in the first column marks a full-line comment.
	if line.startsWithChar('*') {
		sl.Comment = raw[1:]
		return sl
	}

	code, comment := line.splitComment()
	sl.Comment = comment.str
	code = code.trimRight()
	if code.isEmpty() {
		return sl
	}

	// Only a line starting in column 0 may carry a label.
	if code.startsWith(labelStartChar) {
		var label fstring
		label, code = code.consumeWhile(labelChar)
		if code.startsWithChar(':') {
			code = code.consume(1)
		}
		sl.Label = label.str
	}

	code = code.consumeWhitespace()
	word, remain := code.consumeWhile(wordChar)
	remain = remain.consumeWhitespace()

	// An indented "IDENT EQU value" line still defines IDENT.
	if sl.Label == "" && isIdentifier(word.str) {
		next, rest := remain.consumeWhile(wordChar)
		if isEquate(next.str) {
			sl.Label = word.str
			word, remain = next, rest.consumeWhitespace()
		}
	}

	sl.Mnemonic = strings.ToUpper(word.str)
	sl.Operand = strings.TrimSpace(remain.str)
	return sl
}

// ParseSource splits source text into lines and parses each one.
func ParseSource(src string) []SourceLine {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	texts := strings.Split(src, "\n")

	// A trailing newline does not start another line.
	if len(texts) > 1 && texts[len(texts)-1] == "" {
		texts = texts[:len(texts)-1]
	}

	lines := make([]SourceLine, len(texts))
	for i, t := range texts {
		lines[i] = ParseLine(t, i+1)
	}
	return lines
}

func isEquate(word string) bool {
	return strings.EqualFold(word, "EQU") || word == "="
}
