// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "edasm",
		Short: "A 6502 and 65C02 assembler and linker",
		Long: `Edasm assembles 6502 and 65C02 source files into binary files or
relocatable object modules, and links object modules into programs.

Output files are accompanied by a sidecar file holding their ProDOS file
type and auxiliary type, named after the output file with a leading dot.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAsmCmd())
	root.AddCommand(newLinkCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newShellCmd())
	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		exitOnError(err)
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}

// Parse an address given as 0x8000, $8000, 8000h or decimal.
func parseAddress(s string) (uint16, error) {
	digits, base := s, 10
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		digits, base = s[2:], 16
	case strings.HasPrefix(s, "$"):
		digits, base = s[1:], 16
	case strings.HasSuffix(s, "h"), strings.HasSuffix(s, "H"):
		digits, base = s[:len(s)-1], 16
	}

	v, err := strconv.ParseUint(digits, base, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address '%s'", s)
	}
	return uint16(v), nil
}

// An addressFlag is a command line flag holding an optional address.
type addressFlag struct {
	value uint16
	set   bool
}

func (a *addressFlag) String() string {
	if !a.set {
		return ""
	}
	return fmt.Sprintf("$%04X", a.value)
}

func (a *addressFlag) Set(s string) error {
	v, err := parseAddress(s)
	if err != nil {
		return err
	}
	a.value, a.set = v, true
	return nil
}

func (a *addressFlag) Type() string {
	return "address"
}

// Return the address, or nil if the flag was not given.
func (a *addressFlag) get() *uint16 {
	if !a.set {
		return nil
	}
	v := a.value
	return &v
}
